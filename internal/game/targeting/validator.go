package targeting

import (
	"strings"

	"github.com/ChristianIvicevic/sorcery/internal/game/gameerr"
)

// CardInfo describes a candidate card target with its current, not printed,
// characteristics.
type CardInfo struct {
	ID           string
	Name         string
	Types        []string
	Colors       []string
	Abilities    []string
	Zone         string
	ControllerID string
	OwnerID      string
}

func (ci *CardInfo) hasType(typeName string) bool {
	for _, t := range ci.Types {
		if strings.EqualFold(t, typeName) {
			return true
		}
	}
	return false
}

func (ci *CardInfo) hasAbility(ability string) bool {
	for _, a := range ci.Abilities {
		if strings.EqualFold(a, ability) {
			return true
		}
	}
	return false
}

// PlayerInfo describes a candidate player target.
type PlayerInfo struct {
	PlayerID  string
	Name      string
	Life      int
	Lost      bool
	Left      bool
	Abilities []string // hexproof, protection granted to the player
}

// StackItemInfo describes a candidate stack target.
type StackItemInfo struct {
	ID         string
	Controller string
	Kind       string
}

// GameStateAccessor provides the validator access to current game state.
// Characteristics must come from the continuous effect engine so targeting
// sees granted and removed abilities.
type GameStateAccessor interface {
	FindCardForTarget(cardID string) (CardInfo, bool)
	FindPlayerForTarget(playerID string) (PlayerInfo, bool)
	FindStackItemForTarget(itemID string) (StackItemInfo, bool)
}

// Source identifies the spell or ability doing the targeting, used for
// hexproof, shroud and protection checks.
type Source struct {
	ID         string
	Controller string
	Colors     []string
}

// Validator validates that selected targets are legal, both at declaration
// and again at resolution.
type Validator struct {
	state GameStateAccessor
}

// NewValidator creates a target validator over the given game state.
func NewValidator(state GameStateAccessor) *Validator {
	return &Validator{state: state}
}

// ValidateTarget checks a single target ID against a requirement for the
// given source. Returns a rejection wrapping ErrInvalidTarget on failure.
func (v *Validator) ValidateTarget(targetID string, requirement Requirement, source Source) error {
	if v == nil || v.state == nil {
		return gameerr.Invariant("target validator not initialized")
	}

	if player, ok := v.state.FindPlayerForTarget(targetID); ok {
		return v.validatePlayerTarget(player, requirement, source)
	}
	if item, ok := v.state.FindStackItemForTarget(targetID); ok {
		if requirement.Type != TargetTypeSpell {
			return gameerr.InvalidTarget("wrong_target_kind",
				"%s is on the stack but requirement is %s", targetID, requirement.Type)
		}
		_ = item
		return nil
	}
	card, ok := v.state.FindCardForTarget(targetID)
	if !ok {
		return gameerr.InvalidTarget("target_not_found", "target %s no longer exists", targetID)
	}
	return v.validateCardTarget(card, requirement, source)
}

func (v *Validator) validatePlayerTarget(player PlayerInfo, requirement Requirement, source Source) error {
	if requirement.Type != TargetTypePlayer && requirement.Type != TargetTypeAny {
		return gameerr.InvalidTarget("wrong_target_kind",
			"%s is a player but requirement is %s", player.PlayerID, requirement.Type)
	}
	if player.Lost || player.Left {
		return gameerr.InvalidTarget("player_gone",
			"player %s has left the game", player.PlayerID)
	}
	if source.Controller != player.PlayerID {
		for _, ability := range player.Abilities {
			if strings.EqualFold(ability, "hexproof") {
				return gameerr.InvalidTarget("hexproof",
					"player %s has hexproof from opponents", player.PlayerID)
			}
		}
	}
	return nil
}

func (v *Validator) validateCardTarget(card CardInfo, requirement Requirement, source Source) error {
	switch requirement.Type {
	case TargetTypeCreature:
		if !card.hasType("creature") {
			return gameerr.InvalidTarget("not_creature", "%s is not a creature", card.Name)
		}
		if card.Zone != "battlefield" {
			return gameerr.InvalidTarget("not_on_battlefield", "%s is not on the battlefield", card.Name)
		}
	case TargetTypeAny:
		if !card.hasType("creature") || card.Zone != "battlefield" {
			return gameerr.InvalidTarget("not_damageable", "%s cannot be dealt damage", card.Name)
		}
	case TargetTypeSpell:
		if card.Zone != "stack" {
			return gameerr.InvalidTarget("not_on_stack", "%s is not on the stack", card.Name)
		}
	case TargetTypePermanent:
		if card.Zone != "battlefield" {
			return gameerr.InvalidTarget("not_permanent", "%s is not a permanent", card.Name)
		}
	case TargetTypeArtifact:
		if !card.hasType("artifact") || card.Zone != "battlefield" {
			return gameerr.InvalidTarget("not_artifact", "%s is not an artifact permanent", card.Name)
		}
	case TargetTypeEnchantment:
		if !card.hasType("enchantment") || card.Zone != "battlefield" {
			return gameerr.InvalidTarget("not_enchantment", "%s is not an enchantment permanent", card.Name)
		}
	case TargetTypeLand:
		if !card.hasType("land") || card.Zone != "battlefield" {
			return gameerr.InvalidTarget("not_land", "%s is not a land permanent", card.Name)
		}
	case TargetTypePlayer:
		return gameerr.InvalidTarget("wrong_target_kind", "%s is a card but requirement is player", card.Name)
	}

	if requirement.Controller != "" && card.ControllerID != requirement.Controller {
		return gameerr.InvalidTarget("wrong_controller",
			"%s is not controlled by the required player", card.Name)
	}

	// Shroud blocks all targeting; hexproof only targeting by opponents.
	if card.hasAbility("shroud") {
		return gameerr.InvalidTarget("shroud", "%s has shroud", card.Name)
	}
	if card.hasAbility("hexproof") && card.ControllerID != source.Controller {
		return gameerr.InvalidTarget("hexproof", "%s has hexproof", card.Name)
	}
	for _, color := range source.Colors {
		if card.hasAbility("protection from " + strings.ToLower(color)) {
			return gameerr.InvalidTarget("protection",
				"%s has protection from %s", card.Name, strings.ToLower(color))
		}
	}
	return nil
}

// ValidateSelection validates an entire selection: counts, duplicates, and
// every individual target.
func (v *Validator) ValidateSelection(selection *Selection, source Source) error {
	if err := selection.ValidateCounts(); err != nil {
		return err
	}
	for _, targetID := range selection.Targets {
		if err := v.ValidateTarget(targetID, selection.Requirement, source); err != nil {
			return err
		}
	}
	return nil
}

// LegalTargets filters candidate IDs down to those legal for the requirement.
// Used at resolution to decide whether a spell fizzles: a spell with targets
// resolves only against the targets still legal, and fizzles when none are.
func (v *Validator) LegalTargets(candidates []string, requirement Requirement, source Source) []string {
	var legal []string
	for _, id := range candidates {
		if v.ValidateTarget(id, requirement, source) == nil {
			legal = append(legal, id)
		}
	}
	return legal
}
