package descriptor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bolt() *CardDefinition {
	return &CardDefinition{
		Name:     "Lightning Strike",
		ManaCost: "{1}{R}",
		Types:    []string{"Instant"},
		Targets: []TargetSpec{
			{Kind: "any", Min: 1, Max: 1, Description: "any target"},
		},
		Effects: []EffectStep{
			{Op: PrimDealDamage, Subject: "target:0", Amount: 3},
		},
	}
}

func TestValidate_UnknownPrimitive(t *testing.T) {
	def := bolt()
	def.Effects[0].Op = "counter_spell"

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown effect primitive")
}

func TestValidate_TargetIndexOutOfRange(t *testing.T) {
	def := bolt()
	def.Effects[0].Subject = "target:1"

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds declared targets")
}

func TestValidate_DependsOnEarlierStepsOnly(t *testing.T) {
	def := bolt()
	def.Effects = []EffectStep{
		{Op: PrimDealDamage, Subject: "target:0", Amount: 3},
		{Op: PrimGainLife, Subject: "controller", Amount: 3, DependsOn: []int{0}},
	}
	require.NoError(t, def.Validate())

	def.Effects[1].DependsOn = []int{1}
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an earlier step")
}

func TestValidate_AbilityNeedsTriggerOrCost(t *testing.T) {
	def := &CardDefinition{
		Name:  "Broken Relic",
		Types: []string{"Artifact"},
		Abilities: []AbilitySpec{
			{Effects: []EffectStep{{Op: PrimDrawCards, Subject: "controller", Amount: 1}}},
		},
	}
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither triggered nor activated")

	def.Abilities[0].Cost = "{T}"
	assert.NoError(t, def.Validate())
}

func TestSubject_TargetIndex(t *testing.T) {
	assert.Equal(t, 0, Subject("target:0").TargetIndex())
	assert.Equal(t, 2, Subject("target:2").TargetIndex())
	assert.Equal(t, -1, Subject("self").TargetIndex())
	assert.Equal(t, -1, Subject("controller").TargetIndex())
	assert.Equal(t, -1, Subject("target:x").TargetIndex())
}

const sampleDeck = `
cards:
  - name: Grizzly Bears
    mana_cost: "{1}{G}"
    types: [Creature]
    subtypes: [Bear]
    power: 2
    toughness: 2
  - name: Forest
    types: [Land]
    subtypes: [Forest]
    mana_ability: "{G}"
  - name: Lava Spike
    mana_cost: "{R}"
    types: [Sorcery]
    targets:
      - kind: player
        min: 1
        max: 1
        description: target player
    effects:
      - op: deal_damage
        subject: "target:0"
        amount: 3
`

func TestLoadDeck(t *testing.T) {
	lib := NewLibrary()
	require.NoError(t, lib.LoadDeck(strings.NewReader(sampleDeck)))

	assert.Equal(t, []string{"Forest", "Grizzly Bears", "Lava Spike"}, lib.Names())

	bears, ok := lib.Get("grizzly bears")
	require.True(t, ok)
	assert.Equal(t, 2, bears.Power)
	assert.True(t, bears.IsPermanent())
	assert.True(t, bears.IsType("creature"))

	spike, ok := lib.Get("Lava Spike")
	require.True(t, ok)
	assert.False(t, spike.IsPermanent())
	require.Len(t, spike.Effects, 1)
	assert.Equal(t, PrimDealDamage, spike.Effects[0].Op)
	assert.Equal(t, 0, spike.Effects[0].Subject.TargetIndex())
}

func TestLoadDeck_DuplicateRejected(t *testing.T) {
	lib := NewLibrary()
	require.NoError(t, lib.LoadDeck(strings.NewReader(sampleDeck)))

	err := lib.LoadDeck(strings.NewReader(`
cards:
  - name: grizzly bears
    types: [Creature]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate card definition")
}

func TestLoadDeck_InvalidCardFailsWholeLoad(t *testing.T) {
	lib := NewLibrary()
	err := lib.LoadDeck(strings.NewReader(`
cards:
  - name: Good Card
    types: [Creature]
  - name: Bad Card
    types: [Instant]
    effects:
      - op: summon_demon
        subject: controller
`))
	require.Error(t, err)

	// The first card of the document was added before the failure; loads are
	// per-definition, not transactional.
	_, ok := lib.Get("Good Card")
	assert.True(t, ok)
}
