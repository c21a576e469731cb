package targeting

import (
	"strings"

	"github.com/ChristianIvicevic/sorcery/internal/game/gameerr"
)

// TargetType represents the kind of object a spell or ability can target.
type TargetType string

const (
	// TargetTypeCreature targets creatures on the battlefield.
	TargetTypeCreature TargetType = "CREATURE"
	// TargetTypePlayer targets players.
	TargetTypePlayer TargetType = "PLAYER"
	// TargetTypeSpell targets spells or abilities on the stack.
	TargetTypeSpell TargetType = "SPELL"
	// TargetTypePermanent targets any permanent.
	TargetTypePermanent TargetType = "PERMANENT"
	// TargetTypeArtifact targets artifacts.
	TargetTypeArtifact TargetType = "ARTIFACT"
	// TargetTypeEnchantment targets enchantments.
	TargetTypeEnchantment TargetType = "ENCHANTMENT"
	// TargetTypeLand targets lands.
	TargetTypeLand TargetType = "LAND"
	// TargetTypeAny targets any creature or player (damage targets).
	TargetTypeAny TargetType = "ANY"
)

// Requirement defines what targets a spell or ability needs. A spell with no
// requirements targets nothing.
type Requirement struct {
	Type TargetType
	// MinTargets is the minimum number of targets, 0 for "up to" choices.
	MinTargets int
	// MaxTargets is the maximum number of targets.
	MaxTargets int
	// Controller restricts targets to those controlled by a specific player,
	// empty for no restriction.
	Controller string
	// Description is the human-readable requirement, e.g. "target creature".
	Description string
}

// Selection is a player's chosen targets for one requirement.
type Selection struct {
	Targets     []string
	Requirement Requirement
}

// ValidateCounts checks the selection against the requirement's counts and
// rejects duplicate targets. A single spell may not target the same object
// twice for one requirement.
func (s *Selection) ValidateCounts() error {
	if s == nil {
		return gameerr.InvalidTarget("nil_selection", "no target selection provided")
	}
	count := len(s.Targets)
	if count < s.Requirement.MinTargets {
		return gameerr.InvalidTarget("too_few_targets",
			"need at least %d targets for %q, got %d",
			s.Requirement.MinTargets, s.Requirement.Description, count)
	}
	if count > s.Requirement.MaxTargets {
		return gameerr.InvalidTarget("too_many_targets",
			"need at most %d targets for %q, got %d",
			s.Requirement.MaxTargets, s.Requirement.Description, count)
	}
	seen := make(map[string]bool, count)
	for _, targetID := range s.Targets {
		if seen[targetID] {
			return gameerr.InvalidTarget("duplicate_target", "duplicate target %s", targetID)
		}
		seen[targetID] = true
	}
	return nil
}

// FormatTargets joins target IDs for metadata storage.
func FormatTargets(targets []string) string {
	return strings.Join(targets, ",")
}

// ParseTargets splits target IDs from a formatted string.
func ParseTargets(formatted string) []string {
	if formatted == "" {
		return nil
	}
	return strings.Split(formatted, ",")
}
