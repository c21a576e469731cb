package rules

import (
	"errors"
	"sync"

	"github.com/ChristianIvicevic/sorcery/internal/game/targeting"
)

// StackItemKind describes the type of object on the stack.
type StackItemKind string

const (
	// StackItemKindSpell represents a spell cast by a player.
	StackItemKindSpell StackItemKind = "SPELL"
	// StackItemKindActivated represents an activated ability.
	StackItemKindActivated StackItemKind = "ACTIVATED"
	// StackItemKindTriggered represents a triggered ability.
	StackItemKindTriggered StackItemKind = "TRIGGERED"
)

// StackItem represents a single object on the stack. Spells carry the ID of
// the card object that moved to the stack; abilities carry their source's ID
// but exist independently of it.
type StackItem struct {
	ID          string
	Controller  string
	Description string
	Kind        StackItemKind
	SourceID    string
	ObjectID string   // card object on the stack, empty for abilities
	Targets  []string // chosen targets, in declaration order
	// TargetReqs holds the requirement each chosen target was validated
	// against, parallel to Targets. Resolution re-checks each target against
	// its own requirement, not a generic one.
	TargetReqs []targeting.Requirement
	XValue     int
	Metadata   map[string]string
	Resolve    func(*StackItem) error
	OnFizzle   func()
}

// StackManager manages the game stack. Items resolve last-in first-out.
type StackManager struct {
	mu    sync.Mutex
	items []StackItem
}

// NewStackManager creates an empty stack.
func NewStackManager() *StackManager {
	return &StackManager{
		items: make([]StackItem, 0, 16),
	}
}

// Push adds an item to the top of the stack.
func (sm *StackManager) Push(item StackItem) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.items = append(sm.items, item)
}

// Pop removes and returns the top item.
func (sm *StackManager) Pop() (StackItem, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if len(sm.items) == 0 {
		return StackItem{}, errors.New("stack empty")
	}
	idx := len(sm.items) - 1
	item := sm.items[idx]
	sm.items = sm.items[:idx]
	return item, nil
}

// Remove deletes an item from anywhere in the stack by ID. Used when a spell
// or ability is countered.
func (sm *StackManager) Remove(id string) (StackItem, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for idx := len(sm.items) - 1; idx >= 0; idx-- {
		if sm.items[idx].ID == id {
			item := sm.items[idx]
			sm.items = append(sm.items[:idx], sm.items[idx+1:]...)
			return item, true
		}
	}
	return StackItem{}, false
}

// Peek returns the top item without removing it.
func (sm *StackManager) Peek() (StackItem, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if len(sm.items) == 0 {
		return StackItem{}, false
	}
	return sm.items[len(sm.items)-1], true
}

// Find returns the item with the given ID without removing it.
func (sm *StackManager) Find(id string) (StackItem, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for idx := len(sm.items) - 1; idx >= 0; idx-- {
		if sm.items[idx].ID == id {
			return sm.items[idx], true
		}
	}
	return StackItem{}, false
}

// List returns a copy of all stack items, bottom first.
func (sm *StackManager) List() []StackItem {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	cpy := make([]StackItem, len(sm.items))
	copy(cpy, sm.items)
	return cpy
}

// Size returns the number of items on the stack.
func (sm *StackManager) Size() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.items)
}

// IsEmpty reports whether the stack holds no items.
func (sm *StackManager) IsEmpty() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.items) == 0
}

// Clear drops every item from the stack without resolving, invoking OnFizzle
// for each. Used when the game ends mid-resolution.
func (sm *StackManager) Clear() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for _, item := range sm.items {
		if item.OnFizzle != nil {
			item.OnFizzle()
		}
	}
	sm.items = sm.items[:0]
}
