package rules

import (
	"sync"
)

// WatcherScope defines the scope of a watcher's tracking.
type WatcherScope int

const (
	// WatcherScopeGame tracks events for the entire game.
	WatcherScopeGame WatcherScope = iota
	// WatcherScopePlayer tracks events for a specific player.
	WatcherScopePlayer
	// WatcherScopeCard tracks events for a specific card or permanent.
	WatcherScopeCard
)

func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeGame:
		return "GAME"
	case WatcherScopePlayer:
		return "PLAYER"
	case WatcherScopeCard:
		return "CARD"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes game events and accumulates state that trigger conditions
// and effects can query, such as "spells cast this turn". Watchers reset at
// the end of each turn.
type Watcher interface {
	Watch(event Event)
	Reset()
	GetScope() WatcherScope
	GetKey() string
}

// WatcherRegistry manages the watchers for a single game.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
}

// NewWatcherRegistry creates an empty registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{
		watchers: make(map[string]Watcher),
	}
}

// Add registers a watcher under its key, replacing any previous watcher with
// the same key.
func (wr *WatcherRegistry) Add(watcher Watcher) {
	if watcher == nil {
		return
	}
	wr.mu.Lock()
	defer wr.mu.Unlock()
	wr.watchers[watcher.GetKey()] = watcher
}

// Remove deletes the watcher with the given key.
func (wr *WatcherRegistry) Remove(key string) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	delete(wr.watchers, key)
}

// Get retrieves a watcher by key, or nil.
func (wr *WatcherRegistry) Get(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.watchers[key]
}

// Notify delivers the event to every registered watcher.
func (wr *WatcherRegistry) Notify(event Event) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, watcher := range wr.watchers {
		watcher.Watch(event)
	}
}

// ResetAll resets every watcher, called during the cleanup step.
func (wr *WatcherRegistry) ResetAll() {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, watcher := range wr.watchers {
		watcher.Reset()
	}
}

// SpellsCastWatcher counts spells cast this turn per player.
type SpellsCastWatcher struct {
	counts map[string]int
}

func NewSpellsCastWatcher() *SpellsCastWatcher {
	return &SpellsCastWatcher{counts: make(map[string]int)}
}

func (w *SpellsCastWatcher) Watch(event Event) {
	if event.Type == EventSpellCast {
		w.counts[event.Controller]++
	}
}

func (w *SpellsCastWatcher) Reset()                 { w.counts = make(map[string]int) }
func (w *SpellsCastWatcher) GetScope() WatcherScope { return WatcherScopeGame }
func (w *SpellsCastWatcher) GetKey() string         { return "SpellsCastThisTurn" }

// SpellsCastBy returns how many spells the player cast this turn.
func (w *SpellsCastWatcher) SpellsCastBy(player string) int { return w.counts[player] }

// CardsDrawnWatcher counts cards drawn this turn per player.
type CardsDrawnWatcher struct {
	counts map[string]int
}

func NewCardsDrawnWatcher() *CardsDrawnWatcher {
	return &CardsDrawnWatcher{counts: make(map[string]int)}
}

func (w *CardsDrawnWatcher) Watch(event Event) {
	if event.Type == EventDrewCard {
		w.counts[event.PlayerID]++
	}
}

func (w *CardsDrawnWatcher) Reset()                 { w.counts = make(map[string]int) }
func (w *CardsDrawnWatcher) GetScope() WatcherScope { return WatcherScopeGame }
func (w *CardsDrawnWatcher) GetKey() string         { return "CardsDrawnThisTurn" }

// DrawnBy returns how many cards the player drew this turn.
func (w *CardsDrawnWatcher) DrawnBy(player string) int { return w.counts[player] }

// PermanentsDiedWatcher records which permanents went to a graveyard from the
// battlefield this turn.
type PermanentsDiedWatcher struct {
	died []string
}

func NewPermanentsDiedWatcher() *PermanentsDiedWatcher {
	return &PermanentsDiedWatcher{}
}

func (w *PermanentsDiedWatcher) Watch(event Event) {
	if event.Type == EventPermanentDies {
		w.died = append(w.died, event.TargetID)
	}
}

func (w *PermanentsDiedWatcher) Reset()                 { w.died = nil }
func (w *PermanentsDiedWatcher) GetScope() WatcherScope { return WatcherScopeGame }
func (w *PermanentsDiedWatcher) GetKey() string         { return "PermanentsDiedThisTurn" }

// DiedThisTurn returns the IDs of permanents that died this turn, in order.
func (w *PermanentsDiedWatcher) DiedThisTurn() []string {
	cpy := make([]string, len(w.died))
	copy(cpy, w.died)
	return cpy
}

// LifeGainedWatcher tracks life gained this turn per player.
type LifeGainedWatcher struct {
	gained map[string]int
}

func NewLifeGainedWatcher() *LifeGainedWatcher {
	return &LifeGainedWatcher{gained: make(map[string]int)}
}

func (w *LifeGainedWatcher) Watch(event Event) {
	if event.Type == EventGainedLife {
		w.gained[event.PlayerID] += event.Amount
	}
}

func (w *LifeGainedWatcher) Reset()                 { w.gained = make(map[string]int) }
func (w *LifeGainedWatcher) GetScope() WatcherScope { return WatcherScopeGame }
func (w *LifeGainedWatcher) GetKey() string         { return "LifeGainedThisTurn" }

// GainedBy returns how much life the player gained this turn.
func (w *LifeGainedWatcher) GainedBy(player string) int { return w.gained[player] }
