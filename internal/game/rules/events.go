package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a rules event. Events come in pairs
// where relevant: the imperative form ("DAMAGE_PLAYER") fires before the
// change and may be replaced or prevented, the past form ("DAMAGED_PLAYER")
// fires after the change actually happened and is what triggers match.
type EventType string

const (
	// Turn structure events
	EventBeginTurn   EventType = "BEGIN_TURN"
	EventEndTurn     EventType = "END_TURN"
	EventPhaseBegan  EventType = "PHASE_BEGAN"
	EventPhaseEnded  EventType = "PHASE_ENDED"
	EventStepBegan   EventType = "STEP_BEGAN"
	EventStepEnded   EventType = "STEP_ENDED"
	EventUpkeepStep  EventType = "UPKEEP_STEP"
	EventDrawStep    EventType = "DRAW_STEP"
	EventEndStep     EventType = "END_STEP"
	EventCleanupStep EventType = "CLEANUP_STEP"

	// Zone events
	EventZoneChange            EventType = "ZONE_CHANGE"
	EventZoneChanged           EventType = "ZONE_CHANGED"
	EventEntersTheBattlefield  EventType = "ENTERS_THE_BATTLEFIELD"
	EventLeavesTheBattlefield  EventType = "LEAVES_THE_BATTLEFIELD"
	EventPermanentDies         EventType = "PERMANENT_DIES"
	EventShuffleLibrary        EventType = "SHUFFLE_LIBRARY"
	EventLibraryShuffled       EventType = "LIBRARY_SHUFFLED"
	EventDrawCard              EventType = "DRAW_CARD"
	EventDrewCard              EventType = "DREW_CARD"
	EventDiscardCard           EventType = "DISCARD_CARD"
	EventDiscardedCard         EventType = "DISCARDED_CARD"
	EventMilledCard            EventType = "MILLED_CARD"
	EventDrawFromEmptyLibrary  EventType = "DRAW_FROM_EMPTY_LIBRARY"

	// Life and damage events
	EventDamagePlayer     EventType = "DAMAGE_PLAYER"
	EventDamagedPlayer    EventType = "DAMAGED_PLAYER"
	EventDamagePermanent  EventType = "DAMAGE_PERMANENT"
	EventDamagedPermanent EventType = "DAMAGED_PERMANENT"
	EventGainLife         EventType = "GAIN_LIFE"
	EventGainedLife       EventType = "GAINED_LIFE"
	EventLoseLife         EventType = "LOSE_LIFE"
	EventLostLife         EventType = "LOST_LIFE"
	EventPlayerLost       EventType = "PLAYER_LOST"
	EventPlayerWon        EventType = "PLAYER_WON"
	EventPlayerConceded   EventType = "PLAYER_CONCEDED"

	// Spell and ability events
	EventPlayLand         EventType = "PLAY_LAND"
	EventLandPlayed       EventType = "LAND_PLAYED"
	EventCastSpell        EventType = "CAST_SPELL"
	EventSpellCast        EventType = "SPELL_CAST"
	EventActivateAbility  EventType = "ACTIVATE_ABILITY"
	EventActivatedAbility EventType = "ACTIVATED_ABILITY"
	EventTriggeredAbility EventType = "TRIGGERED_ABILITY"
	EventSpellResolved    EventType = "SPELL_RESOLVED"
	EventAbilityResolved  EventType = "ABILITY_RESOLVED"
	EventSpellFizzled     EventType = "SPELL_FIZZLED"
	EventCounterSpell     EventType = "COUNTER"
	EventCountered        EventType = "COUNTERED"
	EventManaAdded        EventType = "MANA_ADDED"
	EventManaPoolEmptied  EventType = "MANA_POOL_EMPTIED"

	// Targeting events
	EventTarget   EventType = "TARGET"
	EventTargeted EventType = "TARGETED"

	// Combat events
	EventAttackerDeclared  EventType = "ATTACKER_DECLARED"
	EventBlockerDeclared   EventType = "BLOCKER_DECLARED"
	EventUnblockedAttacker EventType = "UNBLOCKED_ATTACKER"
	EventCreatureBlocked   EventType = "CREATURE_BLOCKED"
	EventCombatDamageDealt EventType = "COMBAT_DAMAGE_DEALT"
	EventRemovedFromCombat EventType = "REMOVED_FROM_COMBAT"

	// Tap/untap events
	EventTap      EventType = "TAP"
	EventTapped   EventType = "TAPPED"
	EventUntap    EventType = "UNTAP"
	EventUntapped EventType = "UNTAPPED"

	// Counter events
	EventAddCounter     EventType = "ADD_COUNTER"
	EventCounterAdded   EventType = "COUNTER_ADDED"
	EventRemoveCounter  EventType = "REMOVE_COUNTER"
	EventCounterRemoved EventType = "COUNTER_REMOVED"

	// Control events
	EventGainControl   EventType = "GAIN_CONTROL"
	EventGainedControl EventType = "GAINED_CONTROL"
	EventLostControl   EventType = "LOST_CONTROL"

	// Token events
	EventCreateToken  EventType = "CREATE_TOKEN"
	EventCreatedToken EventType = "CREATED_TOKEN"

	// Attachment events
	EventAttached EventType = "ATTACHED"

	// Destruction/sacrifice events
	EventDestroyPermanent    EventType = "DESTROY_PERMANENT"
	EventDestroyedPermanent  EventType = "DESTROYED_PERMANENT"
	EventSacrificePermanent  EventType = "SACRIFICE_PERMANENT"
	EventSacrificedPermanent EventType = "SACRIFICED_PERMANENT"

	// State-based actions event
	EventStateBasedActions EventType = "STATE_BASED_ACTIONS"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type           EventType
	ID             string
	TargetID       string // object or player the event is about
	SourceID       string // ability or object that caused it
	Controller     string
	PlayerID       string
	Amount         int
	Flag           bool // combat damage, optional effect, etc.
	Data           string
	Targets        []string
	Timestamp      time.Time
	Metadata       map[string]string
	AppliedEffects []string // replacement effect IDs already applied to this event
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener reacts only to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with
// optional type filtering. Delivery order for typed listeners follows
// registration order; untyped listeners see every event.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, listener := range bus.listeners {
		listener(event)
	}
	if typed, ok := bus.typedListeners[event.Type]; ok {
		for _, listener := range typed {
			listener.Callback(event)
		}
	}
}

// PublishBatch publishes multiple events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, targetID, sourceID, controllerID string) Event {
	return Event{
		Type:       eventType,
		TargetID:   targetID,
		SourceID:   sourceID,
		Controller: controllerID,
		PlayerID:   controllerID,
		Timestamp:  time.Now(),
		Metadata:   make(map[string]string),
	}
}

// NewEventWithAmount creates a new event carrying a numeric value.
func NewEventWithAmount(eventType EventType, targetID, sourceID, controllerID string, amount int) Event {
	evt := NewEvent(eventType, targetID, sourceID, controllerID)
	evt.Amount = amount
	return evt
}
