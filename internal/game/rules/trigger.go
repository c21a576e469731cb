package rules

import (
	"sync"

	"github.com/google/uuid"
)

// AbilityTrigger encapsulates the logic for reacting to a specific event and
// producing a stack item when its condition is satisfied.
type AbilityTrigger struct {
	ID         string
	SourceID   string
	Controller string
	EventType  EventType
	Condition  func(Event) bool
	Build      func(Event) StackItem
	Once       bool
}

// PendingTrigger is a triggered ability that has fired but not yet been put
// on the stack. Triggers accumulate here until a player would next receive
// priority.
type PendingTrigger struct {
	TriggerID  string
	Controller string
	Item       StackItem
	Event      Event
}

// TriggerManager stores ability triggers, evaluates them against events, and
// queues the resulting pending triggers until the engine drains them.
// Triggers are evaluated in registration order so that simultaneous firings
// queue deterministically.
type TriggerManager struct {
	mu       sync.Mutex
	triggers map[string]AbilityTrigger
	order    []string
	pending  []PendingTrigger
	newID    func() string
}

// NewTriggerManager creates an empty trigger manager. The ID generator mints
// trigger and stack item IDs; nil falls back to random UUIDs.
func NewTriggerManager(newID func() string) *TriggerManager {
	if newID == nil {
		newID = uuid.NewString
	}
	return &TriggerManager{
		triggers: make(map[string]AbilityTrigger),
		newID:    newID,
	}
}

// Register adds a new trigger to the manager.
func (tm *TriggerManager) Register(trigger AbilityTrigger) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if trigger.ID == "" {
		trigger.ID = tm.newID()
	}
	if _, exists := tm.triggers[trigger.ID]; !exists {
		tm.order = append(tm.order, trigger.ID)
	}
	tm.triggers[trigger.ID] = trigger
	return trigger.ID
}

// Unregister removes a trigger by ID.
func (tm *TriggerManager) Unregister(id string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.remove(id)
}

// UnregisterBySource removes every trigger whose source is the given object.
// Called when the source leaves the battlefield.
func (tm *TriggerManager) UnregisterBySource(sourceID string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for _, id := range append([]string(nil), tm.order...) {
		if tm.triggers[id].SourceID == sourceID {
			tm.remove(id)
		}
	}
}

// remove deletes a trigger and its order entry. Callers hold the lock.
func (tm *TriggerManager) remove(id string) {
	if _, ok := tm.triggers[id]; !ok {
		return
	}
	delete(tm.triggers, id)
	for i, existing := range tm.order {
		if existing == id {
			tm.order = append(tm.order[:i], tm.order[i+1:]...)
			return
		}
	}
}

// Handle evaluates the event against all registered triggers and queues the
// pending triggers it produces. The queued triggers are not put on the stack
// until DrainPending is called.
func (tm *TriggerManager) Handle(event Event) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if len(tm.triggers) == 0 {
		return 0
	}

	fired := 0
	var toRemove []string
	for _, id := range tm.order {
		trigger := tm.triggers[id]
		if trigger.EventType != event.Type {
			continue
		}
		if trigger.Condition != nil && !trigger.Condition(event) {
			continue
		}
		if trigger.Build == nil {
			continue
		}

		item := trigger.Build(event)
		if item.ID == "" {
			item.ID = tm.newID()
		}
		if item.Kind == "" {
			item.Kind = StackItemKindTriggered
		}
		tm.pending = append(tm.pending, PendingTrigger{
			TriggerID:  id,
			Controller: trigger.Controller,
			Item:       item,
			Event:      event,
		})
		fired++

		if trigger.Once {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		tm.remove(id)
	}
	return fired
}

// HasPending reports whether fired triggers are waiting to be stacked.
func (tm *TriggerManager) HasPending() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.pending) > 0
}

// DrainPending removes and returns all queued pending triggers grouped by
// controller in the given player order. Triggers controlled by the first
// player come first; within one controller's group the firing order is kept
// until the controller reorders it.
func (tm *TriggerManager) DrainPending(playerOrder []string) [][]PendingTrigger {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if len(tm.pending) == 0 {
		return nil
	}

	byController := make(map[string][]PendingTrigger)
	for _, pt := range tm.pending {
		byController[pt.Controller] = append(byController[pt.Controller], pt)
	}
	tm.pending = nil

	groups := make([][]PendingTrigger, 0, len(byController))
	for _, player := range playerOrder {
		if group, ok := byController[player]; ok {
			groups = append(groups, group)
			delete(byController, player)
		}
	}
	return groups
}
