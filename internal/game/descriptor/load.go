package descriptor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Library holds loaded card definitions keyed by name.
type Library struct {
	cards map[string]*CardDefinition
}

// NewLibrary creates an empty card library.
func NewLibrary() *Library {
	return &Library{cards: make(map[string]*CardDefinition)}
}

// Get looks up a definition by card name.
func (l *Library) Get(name string) (*CardDefinition, bool) {
	def, ok := l.cards[strings.ToLower(strings.TrimSpace(name))]
	return def, ok
}

// Names returns all loaded card names, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.cards))
	for _, def := range l.cards {
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}

// Add validates and registers a definition. Duplicate names are rejected.
func (l *Library) Add(def *CardDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	key := strings.ToLower(strings.TrimSpace(def.Name))
	if _, exists := l.cards[key]; exists {
		return fmt.Errorf("duplicate card definition %q", def.Name)
	}
	l.cards[key] = def
	return nil
}

// deckFile is the YAML document shape for a deck of card definitions.
type deckFile struct {
	Cards []*CardDefinition `yaml:"cards"`
}

// LoadDeck reads card definitions from a YAML document. Any invalid
// definition, including one using an unknown effect primitive, fails the
// whole load.
func (l *Library) LoadDeck(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read deck: %w", err)
	}
	var deck deckFile
	if err := yaml.Unmarshal(data, &deck); err != nil {
		return fmt.Errorf("parse deck: %w", err)
	}
	for _, def := range deck.Cards {
		if err := l.Add(def); err != nil {
			return err
		}
	}
	return nil
}

// LoadDeckFile loads card definitions from a YAML file on disk.
func (l *Library) LoadDeckFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open deck %s: %w", path, err)
	}
	defer f.Close()
	if err := l.LoadDeck(f); err != nil {
		return fmt.Errorf("deck %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadDeckDir loads every .yaml/.yml file in the given directory.
func (l *Library) LoadDeckDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read deck dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := l.LoadDeckFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
