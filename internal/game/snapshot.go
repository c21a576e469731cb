package game

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/ChristianIvicevic/sorcery/internal/game/gameerr"
	"github.com/ChristianIvicevic/sorcery/internal/game/mana"
	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
)

// ObjectView is one object in a snapshot.
type ObjectView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	OwnerID      string `json:"owner_id"`
	ControllerID string `json:"controller_id"`
	Zone         string `json:"zone"`
	Tapped       bool   `json:"tapped,omitempty"`
	Token        bool   `json:"token,omitempty"`
	Damage       int    `json:"damage,omitempty"`
	Power        int    `json:"power,omitempty"`
	Toughness    int    `json:"toughness,omitempty"`
	Attacking    string `json:"attacking,omitempty"`
}

// PlayerView is one player's public state in a snapshot. The per-turn counts
// come from the game's watchers and reset during cleanup.
type PlayerView struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	Life      int    `json:"life"`
	Poison    int    `json:"poison,omitempty"`
	HandSize  int    `json:"hand_size"`
	Library   int    `json:"library"`
	Graveyard int    `json:"graveyard"`
	Lost      bool   `json:"lost,omitempty"`
	Won       bool   `json:"won,omitempty"`

	SpellsCastThisTurn int `json:"spells_cast_this_turn,omitempty"`
	CardsDrawnThisTurn int `json:"cards_drawn_this_turn,omitempty"`
	LifeGainedThisTurn int `json:"life_gained_this_turn,omitempty"`
}

// StackView is one stack entry in a snapshot, top last.
type StackView struct {
	ID          string   `json:"id"`
	Controller  string   `json:"controller"`
	Description string   `json:"description"`
	Targets     []string `json:"targets,omitempty"`
}

// GameSnapshot is a complete, serializable view of a game at one decision
// point. Two games with equal checksums are in the same state.
type GameSnapshot struct {
	GameID      string           `json:"game_id"`
	Seed        int64            `json:"seed"`
	Phase       GamePhase        `json:"phase"`
	TurnNumber  int              `json:"turn_number"`
	Step        string           `json:"step"`
	ActivePlayer string          `json:"active_player"`
	Players     []PlayerView     `json:"players"`
	Battlefield []ObjectView     `json:"battlefield"`
	Stack       []StackView      `json:"stack"`
	Pending     *DecisionRequest `json:"pending,omitempty"`
	// PermanentsDiedThisTurn lists permanents that hit a graveyard from the
	// battlefield this turn, in order.
	PermanentsDiedThisTurn []string `json:"permanents_died_this_turn,omitempty"`
	Decisions              int      `json:"decisions"`
	Checksum               string   `json:"checksum"`
}

// Snapshot captures the game's current state.
func (e *Engine) Snapshot(gameID string) (*GameSnapshot, error) {
	gs, err := e.game(gameID)
	if err != nil {
		return nil, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.snapshot(), nil
}

func (gs *gameState) snapshot() *GameSnapshot {
	snap := &GameSnapshot{
		GameID:       gs.gameID,
		Seed:         gs.seed,
		Phase:        gs.phase,
		TurnNumber:   gs.turns.TurnNumber(),
		Step:         gs.turns.CurrentStep().String(),
		ActivePlayer: gs.turns.ActivePlayer(),
		Pending:      gs.pending,
		Decisions:    len(gs.decisionLog),
	}
	spellsCast, _ := gs.watchers.Get("SpellsCastThisTurn").(*rules.SpellsCastWatcher)
	cardsDrawn, _ := gs.watchers.Get("CardsDrawnThisTurn").(*rules.CardsDrawnWatcher)
	lifeGained, _ := gs.watchers.Get("LifeGainedThisTurn").(*rules.LifeGainedWatcher)
	for _, id := range gs.playerOrder {
		p := gs.players[id]
		view := PlayerView{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Life:      p.Life,
			Poison:    p.Poison,
			HandSize:  len(gs.store.Hand(id)),
			Library:   len(gs.store.Library(id)),
			Graveyard: len(gs.store.Graveyard(id)),
			Lost:      p.Lost,
			Won:       p.Won,
		}
		if spellsCast != nil {
			view.SpellsCastThisTurn = spellsCast.SpellsCastBy(id)
		}
		if cardsDrawn != nil {
			view.CardsDrawnThisTurn = cardsDrawn.DrawnBy(id)
		}
		if lifeGained != nil {
			view.LifeGainedThisTurn = lifeGained.GainedBy(id)
		}
		snap.Players = append(snap.Players, view)
	}
	if died, ok := gs.watchers.Get("PermanentsDiedThisTurn").(*rules.PermanentsDiedWatcher); ok {
		snap.PermanentsDiedThisTurn = died.DiedThisTurn()
	}
	for _, obj := range gs.store.Battlefield() {
		chars := gs.characteristicsOf(obj)
		snap.Battlefield = append(snap.Battlefield, ObjectView{
			ID:           obj.ID,
			Name:         obj.Name,
			OwnerID:      obj.OwnerID,
			ControllerID: obj.ControllerID,
			Zone:         string(obj.Zone),
			Tapped:       obj.Tapped,
			Token:        obj.Token,
			Damage:       obj.Damage,
			Power:        chars.Power,
			Toughness:    chars.Toughness,
			Attacking:    obj.Attacking,
		})
	}
	sort.Slice(snap.Battlefield, func(i, j int) bool {
		return snap.Battlefield[i].ID < snap.Battlefield[j].ID
	})
	for _, item := range gs.stack.List() {
		snap.Stack = append(snap.Stack, StackView{
			ID:          item.ID,
			Controller:  item.Controller,
			Description: item.Description,
			Targets:     item.Targets,
		})
	}
	snap.Checksum = gs.checksum()
	return snap
}

// checksum folds the rules-relevant state into a SHA-256 digest. Object IDs
// are excluded; the digest compares rules-visible state only.
func (gs *gameState) checksum() string {
	var b strings.Builder
	fmt.Fprintf(&b, "phase=%s;turn=%d;step=%s;active=%s;",
		gs.phase, gs.turns.TurnNumber(), gs.turns.CurrentStep(), gs.turns.ActivePlayer())

	for _, id := range gs.playerOrder {
		p := gs.players[id]
		fmt.Fprintf(&b, "p=%s;life=%d;poison=%d;lost=%t;mana=", id, p.Life, p.Poison, p.Lost)
		for _, manaType := range mana.Types {
			fmt.Fprintf(&b, "%d,", p.ManaPool.Get(manaType))
		}
		b.WriteString(";")
		for _, zone := range []ZoneName{ZoneLibrary, ZoneHand, ZoneGraveyard} {
			var names []string
			for _, obj := range gs.zoneObjects(id, zone) {
				names = append(names, obj.Name)
			}
			if zone != ZoneLibrary {
				// Library order matters for determinism; other zones are
				// unordered.
				sort.Strings(names)
			}
			fmt.Fprintf(&b, "%s=%s;", zone, strings.Join(names, ","))
		}
	}

	var perms []string
	for _, obj := range gs.store.Battlefield() {
		chars := gs.characteristicsOf(obj)
		perms = append(perms, fmt.Sprintf("%s/%s/%d/%d/%d/%t",
			obj.Name, obj.ControllerID, chars.Power, chars.Toughness, obj.Damage, obj.Tapped))
	}
	sort.Strings(perms)
	fmt.Fprintf(&b, "battlefield=%s;", strings.Join(perms, ","))

	for _, item := range gs.stack.List() {
		fmt.Fprintf(&b, "stack=%s/%s;", item.Description, item.Controller)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (gs *gameState) zoneObjects(playerID string, zone ZoneName) []*GameObject {
	switch zone {
	case ZoneLibrary:
		return gs.store.Library(playerID)
	case ZoneHand:
		return gs.store.Hand(playerID)
	case ZoneGraveyard:
		return gs.store.Graveyard(playerID)
	default:
		return nil
	}
}

// Checksum returns the game's deterministic state digest.
func (e *Engine) Checksum(gameID string) (string, error) {
	gs, err := e.game(gameID)
	if err != nil {
		return "", err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.checksum(), nil
}

// DecisionLog returns a copy of every decision submitted so far, in order.
// Replaying them against a game created with the same config reproduces the
// current state.
func (e *Engine) DecisionLog(gameID string) ([]Decision, error) {
	gs, err := e.game(gameID)
	if err != nil {
		return nil, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	log := make([]Decision, len(gs.decisionLog))
	copy(log, gs.decisionLog)
	return log, nil
}

// ActionLog returns the game's audit trail.
func (e *Engine) ActionLog(gameID string) ([]ActionRecord, error) {
	gs, err := e.game(gameID)
	if err != nil {
		return nil, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	log := make([]ActionRecord, len(gs.actionLog))
	copy(log, gs.actionLog)
	return log, nil
}

// Replay reconstructs a game from its configuration and decision log. The
// entire game is deterministic given the seed, so replaying the log lands in
// a state with the same checksum as the original.
func (e *Engine) Replay(cfg GameConfig, decisions []Decision) (*DecisionRequest, error) {
	pending, err := e.CreateGame(cfg)
	if err != nil {
		return nil, err
	}
	for i, decision := range decisions {
		if pending == nil {
			return nil, gameerr.IllegalAction("replay_overrun",
				"decision %d submitted but the game is finished", i)
		}
		// Request IDs are freshly minted on every run; rebind the recorded
		// answer to the request it answers positionally.
		decision.RequestID = pending.ID
		pending, err = e.SubmitDecision(cfg.GameID, &decision)
		if err != nil {
			return nil, fmt.Errorf("replaying decision %d: %w", i, err)
		}
	}
	return pending, nil
}

// Bookmark marks the current decision point of a game.
type Bookmark struct {
	GameID    string `json:"game_id"`
	Decisions int    `json:"decisions"`
	Checksum  string `json:"checksum"`
}

// BookmarkGame captures a rollback point for the game.
func (e *Engine) BookmarkGame(gameID string) (*Bookmark, error) {
	gs, err := e.game(gameID)
	if err != nil {
		return nil, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return &Bookmark{
		GameID:    gameID,
		Decisions: len(gs.decisionLog),
		Checksum:  gs.checksum(),
	}, nil
}

// RollbackToBookmark rebuilds the game at the bookmarked decision point by
// replaying the prefix of its decision log under a fresh game ID. The
// original game is left untouched.
func (e *Engine) RollbackToBookmark(bookmark *Bookmark, newGameID string) (*DecisionRequest, error) {
	if bookmark == nil {
		return nil, gameerr.IllegalAction("no_bookmark", "no bookmark provided")
	}
	gs, err := e.game(bookmark.GameID)
	if err != nil {
		return nil, err
	}
	gs.mu.Lock()
	cfg := gs.cfg
	if bookmark.Decisions > len(gs.decisionLog) {
		gs.mu.Unlock()
		return nil, gameerr.IllegalAction("bad_bookmark",
			"bookmark is %d decisions in but only %d were made", bookmark.Decisions, len(gs.decisionLog))
	}
	prefix := make([]Decision, bookmark.Decisions)
	copy(prefix, gs.decisionLog[:bookmark.Decisions])
	gs.mu.Unlock()

	cfg.GameID = newGameID
	return e.Replay(cfg, prefix)
}
