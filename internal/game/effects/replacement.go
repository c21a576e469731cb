package effects

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
)

// ReplacementEffect watches for a particular event and modifies or replaces
// it before it happens. Replacement effects apply as events happen, one
// opportunity per event; self-replacement effects apply before others.
type ReplacementEffect interface {
	ID() string
	SourceID() string
	Duration() Duration

	// ChecksEventType is the cheap first filter on event category.
	ChecksEventType(eventType rules.EventType) bool

	// Applies checks the specific conditions beyond the event type.
	Applies(event rules.Event) bool

	// ReplaceEvent modifies or replaces the event. The boolean reports
	// whether the event was completely replaced, ending the chain.
	ReplaceEvent(event rules.Event) (rules.Event, bool)

	// IsSelfReplacement reports whether this effect replaces part of its own
	// source's effect; such effects apply before all others.
	IsSelfReplacement() bool
}

// BaseReplacementEffect provides the fields common to replacement effects.
type BaseReplacementEffect struct {
	id              string
	sourceID        string
	duration        Duration
	selfReplacement bool
}

// NewBaseReplacementEffect creates a base replacement effect.
func NewBaseReplacementEffect(sourceID string, duration Duration, selfReplacement bool) *BaseReplacementEffect {
	return &BaseReplacementEffect{
		id:              uuid.NewString(),
		sourceID:        strings.TrimSpace(sourceID),
		duration:        duration,
		selfReplacement: selfReplacement,
	}
}

func (e *BaseReplacementEffect) ID() string              { return e.id }
func (e *BaseReplacementEffect) SourceID() string        { return e.sourceID }
func (e *BaseReplacementEffect) Duration() Duration      { return e.duration }
func (e *BaseReplacementEffect) IsSelfReplacement() bool { return e.selfReplacement }

// DamagePreventionEffect prevents some or all damage to a target.
// A shield of 0 prevents all damage for the effect's duration.
type DamagePreventionEffect struct {
	*BaseReplacementEffect
	targetID    string // object or player damage is prevented to, empty = any
	fromSource  string // source damage must come from, empty = any
	shield      int    // remaining shield, 0 = prevent all
	preventAll  bool
}

// NewDamagePreventionEffect creates a damage prevention effect. A shield of
// zero means "prevent all damage" rather than "prevent none".
func NewDamagePreventionEffect(sourceID, targetID, fromSource string, shield int, duration Duration) *DamagePreventionEffect {
	return &DamagePreventionEffect{
		BaseReplacementEffect: NewBaseReplacementEffect(sourceID, duration, false),
		targetID:              strings.TrimSpace(targetID),
		fromSource:            strings.TrimSpace(fromSource),
		shield:                shield,
		preventAll:            shield == 0,
	}
}

func (e *DamagePreventionEffect) ChecksEventType(eventType rules.EventType) bool {
	return eventType == rules.EventDamagePlayer || eventType == rules.EventDamagePermanent
}

func (e *DamagePreventionEffect) Applies(event rules.Event) bool {
	if !e.ChecksEventType(event.Type) || event.Amount <= 0 {
		return false
	}
	if e.targetID != "" && event.TargetID != e.targetID {
		return false
	}
	if e.fromSource != "" && event.SourceID != e.fromSource {
		return false
	}
	return e.preventAll || e.shield > 0
}

func (e *DamagePreventionEffect) ReplaceEvent(event rules.Event) (rules.Event, bool) {
	if e.preventAll {
		event.Amount = 0
		return event, true
	}
	prevented := event.Amount
	if prevented > e.shield {
		prevented = e.shield
	}
	e.shield -= prevented
	event.Amount -= prevented
	return event, event.Amount == 0
}

// Shield returns the remaining prevention shield.
func (e *DamagePreventionEffect) Shield() int { return e.shield }

// RedirectZoneChangeEffect changes the destination of a zone change, e.g.
// "if a creature would die this turn, exile it instead".
type RedirectZoneChangeEffect struct {
	*BaseReplacementEffect
	objectID     string // specific object, empty = any matching
	controllerID string // owner of the moving card, empty = any
	fromZone     string // required origin, empty = any
	toZone       string // required destination, empty = any
	newZone      string // destination to use instead
}

func NewRedirectZoneChangeEffect(sourceID, objectID, controllerID, fromZone, toZone, newZone string, duration Duration) *RedirectZoneChangeEffect {
	return &RedirectZoneChangeEffect{
		BaseReplacementEffect: NewBaseReplacementEffect(sourceID, duration, false),
		objectID:              strings.TrimSpace(objectID),
		controllerID:          strings.TrimSpace(controllerID),
		fromZone:              strings.TrimSpace(fromZone),
		toZone:                strings.TrimSpace(toZone),
		newZone:               strings.TrimSpace(newZone),
	}
}

func (e *RedirectZoneChangeEffect) ChecksEventType(eventType rules.EventType) bool {
	return eventType == rules.EventZoneChange
}

func (e *RedirectZoneChangeEffect) Applies(event rules.Event) bool {
	if event.Type != rules.EventZoneChange {
		return false
	}
	if e.objectID != "" && event.TargetID != e.objectID {
		return false
	}
	if e.controllerID != "" && event.Controller != e.controllerID {
		return false
	}
	if e.fromZone != "" && event.Metadata["from_zone"] != e.fromZone {
		return false
	}
	if e.toZone != "" && event.Metadata["to_zone"] != e.toZone {
		return false
	}
	// Do not redirect to where it is already going.
	return event.Metadata["to_zone"] != e.newZone
}

func (e *RedirectZoneChangeEffect) ReplaceEvent(event rules.Event) (rules.Event, bool) {
	if event.Metadata == nil {
		event.Metadata = make(map[string]string)
	}
	event.Metadata["original_to_zone"] = event.Metadata["to_zone"]
	event.Metadata["to_zone"] = e.newZone
	return event, false
}

// DoubleAmountEffect doubles the amount carried by matching events, e.g.
// "if you would gain life, you gain twice that much life instead".
type DoubleAmountEffect struct {
	*BaseReplacementEffect
	eventTypes []rules.EventType
	targetID   string
}

func NewDoubleAmountEffect(sourceID string, eventTypes []rules.EventType, targetID string, duration Duration) *DoubleAmountEffect {
	return &DoubleAmountEffect{
		BaseReplacementEffect: NewBaseReplacementEffect(sourceID, duration, false),
		eventTypes:            eventTypes,
		targetID:              strings.TrimSpace(targetID),
	}
}

func (e *DoubleAmountEffect) ChecksEventType(eventType rules.EventType) bool {
	for _, et := range e.eventTypes {
		if et == eventType {
			return true
		}
	}
	return false
}

func (e *DoubleAmountEffect) Applies(event rules.Event) bool {
	if !e.ChecksEventType(event.Type) || event.Amount <= 0 {
		return false
	}
	if e.targetID != "" && event.TargetID != e.targetID {
		return false
	}
	return true
}

func (e *DoubleAmountEffect) ReplaceEvent(event rules.Event) (rules.Event, bool) {
	event.Amount *= 2
	return event, false
}

// SkipEventEffect completely replaces a matching event with nothing, e.g.
// "skip your draw step" draw replacement.
type SkipEventEffect struct {
	*BaseReplacementEffect
	eventType rules.EventType
	playerID  string
}

func NewSkipEventEffect(sourceID string, eventType rules.EventType, playerID string, duration Duration) *SkipEventEffect {
	return &SkipEventEffect{
		BaseReplacementEffect: NewBaseReplacementEffect(sourceID, duration, false),
		eventType:             eventType,
		playerID:              strings.TrimSpace(playerID),
	}
}

func (e *SkipEventEffect) ChecksEventType(eventType rules.EventType) bool {
	return eventType == e.eventType
}

func (e *SkipEventEffect) Applies(event rules.Event) bool {
	if event.Type != e.eventType {
		return false
	}
	return e.playerID == "" || event.PlayerID == e.playerID
}

func (e *SkipEventEffect) ReplaceEvent(event rules.Event) (rules.Event, bool) {
	event.Amount = 0
	return event, true
}

func describeEffect(effect ReplacementEffect) string {
	return fmt.Sprintf("%T(%s)", effect, effect.ID())
}
