package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bearPrinted() *Characteristics {
	return &Characteristics{
		ObjectID:     "bear-1",
		ControllerID: "alice",
		Name:         "Grizzly Bears",
		Types:        []string{"creature"},
		Subtypes:     []string{"bear"},
		Colors:       []string{"green"},
		Power:        2,
		Toughness:    2,
		HasPT:        true,
	}
}

func TestLayerEngine_BoostStacks(t *testing.T) {
	le := NewLayerEngine()
	le.AddEffect(NewBoostEffect("giant-growth", FilterObject("bear-1"), 3, 3, DurationEndOfTurn))
	le.AddEffect(NewBoostEffect("other-pump", FilterObject("bear-1"), 1, 0, DurationEndOfTurn))

	current := le.Compute(bearPrinted())
	assert.Equal(t, 6, current.Power)
	assert.Equal(t, 5, current.Toughness)
}

func TestLayerEngine_SetPTTimestampOrder(t *testing.T) {
	le := NewLayerEngine()
	le.AddEffect(NewSetPowerToughnessEffect("weaken", FilterObject("bear-1"), 1, 1, DurationEndOfTurn))
	le.AddEffect(NewSetPowerToughnessEffect("embiggen", FilterObject("bear-1"), 4, 4, DurationEndOfTurn))

	// Same sublayer, so the later timestamp wins.
	current := le.Compute(bearPrinted())
	assert.Equal(t, 4, current.Power)
	assert.Equal(t, 4, current.Toughness)
}

func TestLayerEngine_SetThenModifyThenSwitch(t *testing.T) {
	le := NewLayerEngine()
	// Registration order is deliberately scrambled; sublayers put setting
	// before modifying before switching.
	le.AddEffect(NewSwitchPowerToughnessEffect("switcher", FilterObject("bear-1"), DurationEndOfTurn))
	le.AddEffect(NewBoostEffect("pump", FilterObject("bear-1"), 2, 0, DurationEndOfTurn))
	le.AddEffect(NewSetPowerToughnessEffect("setter", FilterObject("bear-1"), 0, 5, DurationEndOfTurn))

	// set 0/5, then +2/+0 gives 2/5, then switch gives 5/2.
	current := le.Compute(bearPrinted())
	assert.Equal(t, 5, current.Power)
	assert.Equal(t, 2, current.Toughness)
}

func TestLayerEngine_GrantAndRemoveAbilities(t *testing.T) {
	le := NewLayerEngine()
	le.AddEffect(NewGrantAbilityEffect("wings", FilterObject("bear-1"), "flying", DurationEndOfTurn))

	current := le.Compute(bearPrinted())
	assert.True(t, current.HasAbility("flying"))

	le.AddEffect(NewRemoveAllAbilitiesEffect("humility", FilterObject("bear-1"), DurationEndOfTurn))
	current = le.Compute(bearPrinted())
	assert.False(t, current.HasAbility("flying"))
}

func TestLayerEngine_DependencyBeatsTimestamp(t *testing.T) {
	le := NewLayerEngine()
	// The grant only applies to zombies; the type change makes the bear a
	// zombie. Although the grant is registered first, the type layer runs
	// before the ability layer, so the grant sees the new type.
	le.AddEffect(NewGrantAbilityEffect("zombie-lord", FilterType("zombie"), "menace", DurationPermanent))
	le.AddEffect(NewAddTypeEffect("corruption", FilterObject("bear-1"), "", "zombie", DurationPermanent))

	current := le.Compute(bearPrinted())
	require.True(t, current.HasSubtype("zombie"))
	assert.True(t, current.HasAbility("menace"))
}

func TestLayerEngine_SameLayerDependency(t *testing.T) {
	le := NewLayerEngine()
	// Both effects live in the ability layer. The conditional grant depends
	// on the unconditional one: applying "flying" changes whether the
	// dependent effect applies, so the engine orders the grant first even
	// though its timestamp is later.
	le.AddEffect(NewGrantAbilityEffect("rider", filterHasAbility("flying"), "vigilance", DurationPermanent))
	le.AddEffect(NewGrantAbilityEffect("wings", FilterObject("bear-1"), "flying", DurationPermanent))

	current := le.Compute(bearPrinted())
	assert.True(t, current.HasAbility("flying"))
	assert.True(t, current.HasAbility("vigilance"))
}

// filterHasAbility matches objects that currently have the given ability.
func filterHasAbility(ability string) Filter {
	return func(c *Characteristics) bool { return c.HasAbility(ability) }
}

func TestLayerEngine_RemoveBySourceAndExpiry(t *testing.T) {
	le := NewLayerEngine()
	le.AddEffect(NewBoostEffect("anthem", FilterControlledBy("alice"), 1, 1, DurationWhileOnBattlefield))
	le.AddEffect(NewBoostEffect("trick", FilterObject("bear-1"), 2, 2, DurationEndOfTurn))
	require.Equal(t, 2, le.EffectCount())

	CleanupEndOfTurn(le)
	assert.Equal(t, 1, le.EffectCount())

	le.RemoveBySource("anthem")
	assert.Equal(t, 0, le.EffectCount())

	current := le.Compute(bearPrinted())
	assert.Equal(t, 2, current.Power)
}

func TestLayerEngine_ControlChange(t *testing.T) {
	le := NewLayerEngine()
	le.AddEffect(NewChangeControlEffect("theft", FilterObject("bear-1"), "bob", DurationPermanent))

	current := le.Compute(bearPrinted())
	assert.Equal(t, "bob", current.ControllerID)
}

func TestLayerEngine_ColorSetThenAdd(t *testing.T) {
	le := NewLayerEngine()
	le.AddEffect(NewSetColorEffect("paint", FilterObject("bear-1"), []string{"blue"}, DurationEndOfTurn))
	le.AddEffect(NewAddColorEffect("tint", FilterObject("bear-1"), "black", DurationEndOfTurn))

	current := le.Compute(bearPrinted())
	assert.True(t, current.HasColor("blue"))
	assert.True(t, current.HasColor("black"))
	assert.False(t, current.HasColor("green"))
}
