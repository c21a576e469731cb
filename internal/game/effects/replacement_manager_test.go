package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
)

func TestReplacementManager_AddRemove(t *testing.T) {
	rm := NewReplacementManager(zap.NewNop())
	effect := NewDamagePreventionEffect("shield-src", "bear-1", "", 5, DurationEndOfTurn)

	rm.AddEffect(effect)
	require.Equal(t, 1, rm.EffectCount())

	rm.RemoveEffect(effect.ID())
	assert.Equal(t, 0, rm.EffectCount())
}

func TestReplacementManager_PreventionShield(t *testing.T) {
	rm := NewReplacementManager(zap.NewNop())
	shield := NewDamagePreventionEffect("circle", "bear-1", "", 3, DurationEndOfTurn)
	rm.AddEffect(shield)

	event := rules.NewEventWithAmount(rules.EventDamagePermanent, "bear-1", "bolt", "alice", 5)
	replaced, happens := rm.ReplaceEvent(event)
	assert.True(t, happens)
	assert.Equal(t, 2, replaced.Amount)
	assert.Equal(t, 0, shield.Shield())

	// The shield is spent; further damage passes through untouched.
	again, happens := rm.ReplaceEvent(rules.NewEventWithAmount(rules.EventDamagePermanent, "bear-1", "bolt", "alice", 2))
	assert.True(t, happens)
	assert.Equal(t, 2, again.Amount)
}

func TestReplacementManager_PreventAll(t *testing.T) {
	rm := NewReplacementManager(zap.NewNop())
	rm.AddEffect(NewDamagePreventionEffect("fog", "", "", 0, DurationEndOfTurn))

	event := rules.NewEventWithAmount(rules.EventDamagePlayer, "bob", "dragon", "bob", 7)
	replaced, happens := rm.ReplaceEvent(event)
	assert.False(t, happens)
	assert.Equal(t, 0, replaced.Amount)
}

func TestReplacementManager_SelfReplacementFirst(t *testing.T) {
	rm := NewReplacementManager(zap.NewNop())

	// Registered later, but self-replacement effects always get the first
	// opportunity.
	doubler := NewDoubleAmountEffect("furnace", []rules.EventType{rules.EventDamagePlayer}, "bob", DurationPermanent)
	rm.AddEffect(doubler)

	self := NewDoubleAmountEffect("self", []rules.EventType{rules.EventDamagePlayer}, "bob", DurationPermanent)
	self.BaseReplacementEffect = NewBaseReplacementEffect("self", DurationPermanent, true)
	rm.AddEffect(self)

	event := rules.NewEventWithAmount(rules.EventDamagePlayer, "bob", "bolt", "bob", 3)
	replaced, happens := rm.ReplaceEvent(event)
	assert.True(t, happens)
	// Both apply exactly once: 3 doubled twice is 12 regardless of order,
	// but the chain records the self effect first.
	assert.Equal(t, 12, replaced.Amount)
	require.Len(t, replaced.AppliedEffects, 2)
	assert.Equal(t, self.ID(), replaced.AppliedEffects[0])
}

func TestReplacementManager_OncePerEvent(t *testing.T) {
	rm := NewReplacementManager(zap.NewNop())
	rm.AddEffect(NewDoubleAmountEffect("doubler", []rules.EventType{rules.EventGainLife}, "", DurationPermanent))

	event := rules.NewEventWithAmount(rules.EventGainLife, "alice", "", "alice", 2)
	replaced, happens := rm.ReplaceEvent(event)
	assert.True(t, happens)
	assert.Equal(t, 4, replaced.Amount, "a doubler applies once, not until fixpoint")
}

func TestReplacementManager_OneShotRemovedOnUse(t *testing.T) {
	rm := NewReplacementManager(zap.NewNop())
	rm.AddEffect(NewDoubleAmountEffect("ritual", []rules.EventType{rules.EventGainLife}, "", DurationOneShot))

	first, _ := rm.ReplaceEvent(rules.NewEventWithAmount(rules.EventGainLife, "alice", "", "alice", 2))
	assert.Equal(t, 4, first.Amount)
	assert.Equal(t, 0, rm.EffectCount())

	second, _ := rm.ReplaceEvent(rules.NewEventWithAmount(rules.EventGainLife, "alice", "", "alice", 2))
	assert.Equal(t, 2, second.Amount)
}

func TestReplacementManager_RedirectZoneChange(t *testing.T) {
	rm := NewReplacementManager(zap.NewNop())
	rm.AddEffect(NewRedirectZoneChangeEffect("leyline", "", "alice", "battlefield", "graveyard", "exile", DurationPermanent))

	event := rules.NewEvent(rules.EventZoneChange, "bear-1", "", "alice")
	event.Metadata = map[string]string{"from_zone": "battlefield", "to_zone": "graveyard"}

	replaced, happens := rm.ReplaceEvent(event)
	assert.True(t, happens)
	assert.Equal(t, "exile", replaced.Metadata["to_zone"])
	assert.Equal(t, "graveyard", replaced.Metadata["original_to_zone"])

	// Other players' cards are unaffected.
	other := rules.NewEvent(rules.EventZoneChange, "wolf-1", "", "bob")
	other.Metadata = map[string]string{"from_zone": "battlefield", "to_zone": "graveyard"}
	replaced, _ = rm.ReplaceEvent(other)
	assert.Equal(t, "graveyard", replaced.Metadata["to_zone"])
}

func TestReplacementManager_SkipEvent(t *testing.T) {
	rm := NewReplacementManager(zap.NewNop())
	rm.AddEffect(NewSkipEventEffect("curse", rules.EventDrawCard, "bob", DurationPermanent))

	_, happens := rm.ReplaceEvent(rules.NewEventWithAmount(rules.EventDrawCard, "", "", "bob", 1))
	assert.False(t, happens)

	_, happens = rm.ReplaceEvent(rules.NewEventWithAmount(rules.EventDrawCard, "", "", "alice", 1))
	assert.True(t, happens)
}

func TestReplacementManager_CleanupExpired(t *testing.T) {
	rm := NewReplacementManager(zap.NewNop())
	rm.AddEffect(NewDamagePreventionEffect("trick", "bear-1", "", 2, DurationEndOfTurn))
	rm.AddEffect(NewDoubleAmountEffect("enchantment", []rules.EventType{rules.EventGainLife}, "", DurationPermanent))

	rm.CleanupExpired(DurationEndOfTurn)
	assert.Equal(t, 1, rm.EffectCount())
}
