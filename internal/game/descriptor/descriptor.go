// Package descriptor defines the declarative card and ability definitions the
// engine loads from YAML decks. Ability effects are graphs of primitive
// steps over a closed vocabulary; the engine interprets them at resolution.
package descriptor

import (
	"fmt"
	"strings"
)

// Primitive names the closed vocabulary of effect steps. Definitions using a
// primitive outside this set fail at load time.
const (
	PrimDealDamage             = "deal_damage"
	PrimMoveZone               = "move_zone"
	PrimCreateContinuousEffect = "create_continuous_effect"
	PrimDrawCards              = "draw_cards"
	PrimGainLife               = "gain_life"
	PrimAddMana                = "add_mana"
	PrimAddCounters            = "add_counters"
	PrimTap                    = "tap"
	PrimUntap                  = "untap"
	PrimCreateToken            = "create_token"
	PrimModifyCharacteristic   = "modify_characteristic"
	PrimAttach                 = "attach"
)

var knownPrimitives = map[string]bool{
	PrimDealDamage:             true,
	PrimMoveZone:               true,
	PrimCreateContinuousEffect: true,
	PrimDrawCards:              true,
	PrimGainLife:               true,
	PrimAddMana:                true,
	PrimAddCounters:            true,
	PrimTap:                    true,
	PrimUntap:                  true,
	PrimCreateToken:            true,
	PrimModifyCharacteristic:   true,
	PrimAttach:                 true,
}

// Subject selects who or what an effect step applies to.
//
//	target:N     the Nth declared target
//	self         the source object
//	controller   the controller of the source
//	opponent     each opponent of the controller
//	each_player  every player
type Subject string

// TargetIndex returns the declared-target index a subject refers to, or -1
// when the subject is not target-bound.
func (s Subject) TargetIndex() int {
	str := string(s)
	if !strings.HasPrefix(str, "target:") {
		return -1
	}
	var idx int
	if _, err := fmt.Sscanf(str, "target:%d", &idx); err != nil || idx < 0 {
		return -1
	}
	return idx
}

// EffectStep is one primitive operation in an ability's effect graph. Steps
// run in order; a step whose subject is a target that became illegal is
// skipped, along with every step that depends on it.
type EffectStep struct {
	Op      string  `yaml:"op"`
	Subject Subject `yaml:"subject"`
	// Amount carries damage, cards drawn, life gained, counters added or
	// tokens created, depending on the primitive.
	Amount int `yaml:"amount"`
	// Zone is the destination zone for move_zone.
	Zone string `yaml:"zone"`
	// Mana is a mana string like "{G}{G}" for add_mana.
	Mana string `yaml:"mana"`
	// CounterName names the counter kind for add_counters.
	CounterName string `yaml:"counter"`
	// Power and Toughness carry the boost for create_continuous_effect and
	// modify_characteristic.
	Power     int `yaml:"power"`
	Toughness int `yaml:"toughness"`
	// Ability is granted by create_continuous_effect, e.g. "flying".
	Ability string `yaml:"ability"`
	// Duration for create_continuous_effect, e.g. "EndOfTurn".
	Duration string `yaml:"duration"`
	// Token describes the token for create_token.
	Token *TokenSpec `yaml:"token"`
	// DependsOn lists indexes of earlier steps this step requires; if any of
	// them was skipped, this step is skipped too.
	DependsOn []int `yaml:"depends_on"`
}

// TokenSpec describes a token created by create_token.
type TokenSpec struct {
	Name      string   `yaml:"name"`
	Types     []string `yaml:"types"`
	Subtypes  []string `yaml:"subtypes"`
	Colors    []string `yaml:"colors"`
	Power     int      `yaml:"power"`
	Toughness int      `yaml:"toughness"`
	Abilities []string `yaml:"abilities"`
}

// TargetSpec describes one target a spell or ability requires.
type TargetSpec struct {
	// Kind matches the targeting requirement types: creature, player, spell,
	// permanent, artifact, enchantment, land, any.
	Kind string `yaml:"kind"`
	Min  int    `yaml:"min"`
	Max  int    `yaml:"max"`
	// Description is the human-readable phrase, e.g. "target creature".
	Description string `yaml:"description"`
}

// TriggerSpec describes a triggered ability condition.
type TriggerSpec struct {
	// Event names the past-form event the trigger listens for.
	Event string `yaml:"event"`
	// SelfOnly restricts the trigger to events about the source itself.
	SelfOnly bool `yaml:"self_only"`
}

// AbilitySpec is one triggered or activated ability on a card.
type AbilitySpec struct {
	// Trigger is set for triggered abilities.
	Trigger *TriggerSpec `yaml:"trigger"`
	// Cost is the activation cost for activated abilities, e.g. "{T}" or
	// "{2}{W}".
	Cost string `yaml:"cost"`
	// Targets the ability requires.
	Targets []TargetSpec `yaml:"targets"`
	// Effects is the effect graph applied at resolution.
	Effects []EffectStep `yaml:"effects"`
	// Description for logs and the decision API.
	Description string `yaml:"description"`
}

// CardDefinition is the loadable description of a card.
type CardDefinition struct {
	Name     string   `yaml:"name"`
	ManaCost string   `yaml:"mana_cost"`
	Types    []string `yaml:"types"`
	Subtypes []string `yaml:"subtypes"`
	// ColorIndicator overrides the colors derived from the mana cost.
	ColorIndicator []string `yaml:"color_indicator"`
	Power          int      `yaml:"power"`
	Toughness      int      `yaml:"toughness"`
	// Loyalty is the starting loyalty of a planeswalker; it enters the
	// battlefield with that many loyalty counters.
	Loyalty int `yaml:"loyalty"`
	// Keywords are static keyword abilities: flying, haste, first strike...
	Keywords []string `yaml:"keywords"`
	// Targets for instants and sorceries cast as spells.
	Targets []TargetSpec `yaml:"targets"`
	// Effects resolve when the card is an instant or sorcery.
	Effects []EffectStep `yaml:"effects"`
	// Abilities are the card's triggered and activated abilities.
	Abilities []AbilitySpec `yaml:"abilities"`
	// ManaAbility marks lands and mana producers: tapping adds this mana
	// without using the stack.
	ManaAbility string `yaml:"mana_ability"`
}

// IsType reports whether the definition has the given card type.
func (cd *CardDefinition) IsType(typeName string) bool {
	for _, t := range cd.Types {
		if strings.EqualFold(t, typeName) {
			return true
		}
	}
	return false
}

// IsPermanent reports whether the card stays on the battlefield when it
// resolves.
func (cd *CardDefinition) IsPermanent() bool {
	return !cd.IsType("instant") && !cd.IsType("sorcery")
}

// Validate checks the definition against the closed primitive vocabulary and
// internal consistency. Any violation is a fatal load-time error.
func (cd *CardDefinition) Validate() error {
	if strings.TrimSpace(cd.Name) == "" {
		return fmt.Errorf("card definition with empty name")
	}
	if len(cd.Types) == 0 {
		return fmt.Errorf("card %q has no types", cd.Name)
	}
	if err := validateSteps(cd.Name, cd.Effects, len(cd.Targets)); err != nil {
		return err
	}
	for i, ability := range cd.Abilities {
		if ability.Trigger == nil && strings.TrimSpace(ability.Cost) == "" {
			return fmt.Errorf("card %q ability %d is neither triggered nor activated", cd.Name, i)
		}
		if err := validateSteps(cd.Name, ability.Effects, len(ability.Targets)); err != nil {
			return err
		}
	}
	return nil
}

func validateSteps(cardName string, steps []EffectStep, targetCount int) error {
	for i, step := range steps {
		if !knownPrimitives[step.Op] {
			return fmt.Errorf("card %q step %d: unknown effect primitive %q", cardName, i, step.Op)
		}
		if idx := step.Subject.TargetIndex(); idx >= targetCount && idx >= 0 {
			return fmt.Errorf("card %q step %d: subject %q exceeds declared targets (%d)",
				cardName, i, step.Subject, targetCount)
		}
		for _, dep := range step.DependsOn {
			if dep < 0 || dep >= i {
				return fmt.Errorf("card %q step %d: depends_on %d is not an earlier step", cardName, i, dep)
			}
		}
	}
	return nil
}
