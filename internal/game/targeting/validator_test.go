package targeting

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChristianIvicevic/sorcery/internal/game/gameerr"
)

type fakeState struct {
	cards   map[string]CardInfo
	players map[string]PlayerInfo
	items   map[string]StackItemInfo
}

func (f *fakeState) FindCardForTarget(cardID string) (CardInfo, bool) {
	card, ok := f.cards[cardID]
	return card, ok
}

func (f *fakeState) FindPlayerForTarget(playerID string) (PlayerInfo, bool) {
	player, ok := f.players[playerID]
	return player, ok
}

func (f *fakeState) FindStackItemForTarget(itemID string) (StackItemInfo, bool) {
	item, ok := f.items[itemID]
	return item, ok
}

func testState() *fakeState {
	return &fakeState{
		cards: map[string]CardInfo{
			"bear": {
				ID: "bear", Name: "Grizzly Bears",
				Types: []string{"Creature"}, Zone: "battlefield",
				ControllerID: "alice", OwnerID: "alice",
			},
			"veiled": {
				ID: "veiled", Name: "Veiled Serpent",
				Types: []string{"Creature"}, Abilities: []string{"shroud"},
				Zone: "battlefield", ControllerID: "alice", OwnerID: "alice",
			},
			"sly": {
				ID: "sly", Name: "Sly Fox",
				Types: []string{"Creature"}, Abilities: []string{"hexproof"},
				Zone: "battlefield", ControllerID: "alice", OwnerID: "alice",
			},
			"paladin": {
				ID: "paladin", Name: "White Paladin",
				Types:     []string{"Creature"},
				Abilities: []string{"protection from red"},
				Zone:      "battlefield", ControllerID: "bob", OwnerID: "bob",
			},
			"dead": {
				ID: "dead", Name: "Buried Bears",
				Types: []string{"Creature"}, Zone: "graveyard",
				ControllerID: "alice", OwnerID: "alice",
			},
		},
		players: map[string]PlayerInfo{
			"alice": {PlayerID: "alice", Name: "Alice", Life: 20},
			"bob":   {PlayerID: "bob", Name: "Bob", Life: 20},
		},
		items: map[string]StackItemInfo{
			"spell-1": {ID: "spell-1", Controller: "alice", Kind: "SPELL"},
		},
	}
}

func rejectionCode(t *testing.T, err error) string {
	t.Helper()
	var rej *gameerr.Rejection
	require.True(t, errors.As(err, &rej), "expected a rejection, got %v", err)
	return rej.Code
}

func TestValidateTarget_Creature(t *testing.T) {
	v := NewValidator(testState())
	req := Requirement{Type: TargetTypeCreature, MinTargets: 1, MaxTargets: 1}
	src := Source{ID: "bolt", Controller: "bob", Colors: []string{"R"}}

	assert.NoError(t, v.ValidateTarget("bear", req, src))

	err := v.ValidateTarget("dead", req, src)
	assert.Equal(t, "not_on_battlefield", rejectionCode(t, err))

	err = v.ValidateTarget("missing", req, src)
	assert.Equal(t, "target_not_found", rejectionCode(t, err))
	assert.True(t, errors.Is(err, gameerr.ErrInvalidTarget))
}

func TestValidateTarget_ShroudBlocksEveryone(t *testing.T) {
	v := NewValidator(testState())
	req := Requirement{Type: TargetTypeCreature, MinTargets: 1, MaxTargets: 1}

	// Even the controller cannot target a shrouded creature.
	err := v.ValidateTarget("veiled", req, Source{ID: "pump", Controller: "alice"})
	assert.Equal(t, "shroud", rejectionCode(t, err))

	err = v.ValidateTarget("veiled", req, Source{ID: "bolt", Controller: "bob"})
	assert.Equal(t, "shroud", rejectionCode(t, err))
}

func TestValidateTarget_HexproofBlocksOpponentsOnly(t *testing.T) {
	v := NewValidator(testState())
	req := Requirement{Type: TargetTypeCreature, MinTargets: 1, MaxTargets: 1}

	assert.NoError(t, v.ValidateTarget("sly", req, Source{ID: "pump", Controller: "alice"}))

	err := v.ValidateTarget("sly", req, Source{ID: "bolt", Controller: "bob"})
	assert.Equal(t, "hexproof", rejectionCode(t, err))
}

func TestValidateTarget_Protection(t *testing.T) {
	v := NewValidator(testState())
	req := Requirement{Type: TargetTypeCreature, MinTargets: 1, MaxTargets: 1}

	err := v.ValidateTarget("paladin", req, Source{ID: "bolt", Controller: "alice", Colors: []string{"Red"}})
	assert.Equal(t, "protection", rejectionCode(t, err))

	// A green source gets through.
	assert.NoError(t, v.ValidateTarget("paladin", req, Source{ID: "hunt", Controller: "alice", Colors: []string{"Green"}}))
}

func TestValidateTarget_PlayerAndSpell(t *testing.T) {
	v := NewValidator(testState())
	src := Source{ID: "bolt", Controller: "alice", Colors: []string{"R"}}

	assert.NoError(t, v.ValidateTarget("bob", Requirement{Type: TargetTypePlayer, MaxTargets: 1}, src))
	assert.NoError(t, v.ValidateTarget("bob", Requirement{Type: TargetTypeAny, MaxTargets: 1}, src))

	err := v.ValidateTarget("bob", Requirement{Type: TargetTypeCreature, MaxTargets: 1}, src)
	assert.Equal(t, "wrong_target_kind", rejectionCode(t, err))

	assert.NoError(t, v.ValidateTarget("spell-1", Requirement{Type: TargetTypeSpell, MaxTargets: 1}, src))
	err = v.ValidateTarget("spell-1", Requirement{Type: TargetTypeCreature, MaxTargets: 1}, src)
	assert.Equal(t, "wrong_target_kind", rejectionCode(t, err))
}

func TestValidateTarget_ControllerRestriction(t *testing.T) {
	v := NewValidator(testState())
	req := Requirement{Type: TargetTypeCreature, MinTargets: 1, MaxTargets: 1, Controller: "bob"}

	err := v.ValidateTarget("bear", req, Source{ID: "edict", Controller: "alice"})
	assert.Equal(t, "wrong_controller", rejectionCode(t, err))
}

func TestValidateSelection_Counts(t *testing.T) {
	v := NewValidator(testState())
	req := Requirement{Type: TargetTypeCreature, MinTargets: 1, MaxTargets: 2, Description: "up to two target creatures"}
	src := Source{ID: "spell", Controller: "alice"}

	err := v.ValidateSelection(&Selection{Targets: nil, Requirement: req}, src)
	assert.Equal(t, "too_few_targets", rejectionCode(t, err))

	err = v.ValidateSelection(&Selection{Targets: []string{"bear", "bear"}, Requirement: req}, src)
	assert.Equal(t, "duplicate_target", rejectionCode(t, err))

	err = v.ValidateSelection(&Selection{Targets: []string{"bear", "dead", "sly"}, Requirement: req}, src)
	assert.Equal(t, "too_many_targets", rejectionCode(t, err))

	assert.NoError(t, v.ValidateSelection(&Selection{Targets: []string{"bear"}, Requirement: req}, src))
}

func TestLegalTargets(t *testing.T) {
	v := NewValidator(testState())
	req := Requirement{Type: TargetTypeCreature, MinTargets: 1, MaxTargets: 1}
	src := Source{ID: "bolt", Controller: "bob", Colors: []string{"Red"}}

	legal := v.LegalTargets([]string{"bear", "veiled", "sly", "paladin", "dead", "missing"}, req, src)
	assert.Equal(t, []string{"bear"}, legal)

	green := Source{ID: "hunt", Controller: "bob", Colors: []string{"Green"}}
	legal = v.LegalTargets([]string{"bear", "paladin", "sly"}, req, green)
	assert.Equal(t, []string{"bear", "paladin"}, legal)
}
