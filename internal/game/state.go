package game

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ChristianIvicevic/sorcery/internal/game/descriptor"
	"github.com/ChristianIvicevic/sorcery/internal/game/effects"
	"github.com/ChristianIvicevic/sorcery/internal/game/mana"
	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
	"github.com/ChristianIvicevic/sorcery/internal/game/targeting"
)

// GamePhase is the lifecycle state of a game, distinct from turn phases.
type GamePhase string

const (
	GamePhaseMulligan GamePhase = "MULLIGAN"
	GamePhaseRunning  GamePhase = "RUNNING"
	GamePhaseFinished GamePhase = "FINISHED"
)

const startingLife = 20
const startingHandSize = 7

// playerState holds one player's mutable state.
type playerState struct {
	PlayerID string
	Name     string
	Life     int
	Poison   int
	ManaPool *mana.Pool

	LandsPlayedThisTurn int
	MulliganCount       int
	KeptHand            bool

	Lost     bool
	Won      bool
	Conceded bool
	// LossReason records why the player lost, for views and the archive.
	LossReason string

	// AttemptedDrawFromEmpty is latched when a draw from an empty library is
	// attempted; the loss is applied by the next state-based action check.
	AttemptedDrawFromEmpty bool
}

// gameState is the full state of one game.
type gameState struct {
	mu sync.Mutex

	gameID      string
	cfg         GameConfig
	phase       GamePhase
	players     map[string]*playerState
	playerOrder []string
	winnerID    string

	store    *zoneStore
	turns    *rules.TurnManager
	priority *rules.PriorityTracker
	stack    *rules.StackManager
	bus      *rules.EventBus
	triggers *rules.TriggerManager
	watchers *rules.WatcherRegistry
	layers   *effects.LayerEngine
	replace  *effects.ReplacementManager
	library  *descriptor.Library

	rng *rand.Rand
	// newID mints seed-derived IDs for objects, stack items and triggers.
	newID func() string
	seed  int64

	// pending is the decision the engine is waiting on; nil while the engine
	// can make progress on its own.
	pending *DecisionRequest
	// resume consumes the answer to the pending decision.
	resume func(*Decision) error

	combat *combatState

	// actionLog is the human-readable audit trail; decisionLog holds the
	// exact submitted decisions and, with the seed, reproduces the game.
	actionLog   []ActionRecord
	decisionLog []Decision
	startedAt   time.Time
	logger      *zap.Logger
}

// ActionRecord is one replayable entry in the game's action log.
type ActionRecord struct {
	Seq      int               `json:"seq"`
	PlayerID string            `json:"player_id"`
	Kind     string            `json:"kind"`
	Payload  map[string]string `json:"payload,omitempty"`
	At       time.Time         `json:"at"`
}

func (gs *gameState) player(id string) (*playerState, bool) {
	p, ok := gs.players[id]
	return p, ok
}

// opponentsOf returns all players other than the given one, in seating order.
func (gs *gameState) opponentsOf(playerID string) []string {
	var opps []string
	for _, id := range gs.playerOrder {
		if id != playerID {
			opps = append(opps, id)
		}
	}
	return opps
}

func (gs *gameState) record(playerID, kind string, payload map[string]string) {
	gs.actionLog = append(gs.actionLog, ActionRecord{
		Seq:      len(gs.actionLog),
		PlayerID: playerID,
		Kind:     kind,
		Payload:  payload,
		At:       time.Now(),
	})
}

// characteristicsOf computes an object's current characteristics through the
// continuous effect layers. Power and toughness include counters, applied
// between layer modifications and the final switch effects.
func (gs *gameState) characteristicsOf(obj *GameObject) *effects.Characteristics {
	printed := &effects.Characteristics{
		ObjectID:     obj.ID,
		ControllerID: obj.ControllerID,
		Name:         obj.Name,
	}
	if obj.Def != nil {
		printed.Types = append(printed.Types, obj.Def.Types...)
		printed.Subtypes = append(printed.Subtypes, obj.Def.Subtypes...)
		printed.Abilities = append(printed.Abilities, obj.Def.Keywords...)
		printed.Colors = deriveColors(obj.Def)
		printed.Power = obj.Def.Power
		printed.Toughness = obj.Def.Toughness
		printed.HasPT = obj.Def.IsType("creature")
	}
	current := gs.layers.Compute(printed)
	if current.HasPT {
		p, t := obj.Counters.BoostTotals()
		current.Power += p
		current.Toughness += t
	}
	return current
}

// deriveColors determines a card's colors from its mana cost symbols unless a
// color indicator overrides them.
func deriveColors(def *descriptor.CardDefinition) []string {
	if len(def.ColorIndicator) > 0 {
		return append([]string(nil), def.ColorIndicator...)
	}
	cost, err := mana.ParseCost(def.ManaCost)
	if err != nil || cost == nil {
		return nil
	}
	var colors []string
	add := func(c string) {
		for _, existing := range colors {
			if existing == c {
				return
			}
		}
		colors = append(colors, c)
	}
	for manaType, amount := range cost.Colored {
		if amount <= 0 {
			continue
		}
		if name := colorName(manaType); name != "" {
			add(name)
		}
	}
	for _, hybrid := range cost.Hybrid {
		for _, option := range hybrid.Options {
			if name := colorName(option); name != "" {
				add(name)
			}
		}
	}
	return colors
}

func colorName(t mana.Type) string {
	switch t {
	case mana.White:
		return "white"
	case mana.Blue:
		return "blue"
	case mana.Black:
		return "black"
	case mana.Red:
		return "red"
	case mana.Green:
		return "green"
	default:
		return ""
	}
}

// --- targeting.GameStateAccessor ---

type stateAccessor struct {
	gs *gameState
}

func (sa *stateAccessor) FindCardForTarget(cardID string) (targeting.CardInfo, bool) {
	obj, ok := sa.gs.store.Find(cardID)
	if !ok {
		return targeting.CardInfo{}, false
	}
	current := sa.gs.characteristicsOf(obj)
	return targeting.CardInfo{
		ID:           obj.ID,
		Name:         current.Name,
		Types:        current.Types,
		Colors:       current.Colors,
		Abilities:    current.Abilities,
		Zone:         string(obj.Zone),
		ControllerID: current.ControllerID,
		OwnerID:      obj.OwnerID,
	}, true
}

func (sa *stateAccessor) FindPlayerForTarget(playerID string) (targeting.PlayerInfo, bool) {
	p, ok := sa.gs.player(playerID)
	if !ok {
		return targeting.PlayerInfo{}, false
	}
	return targeting.PlayerInfo{
		PlayerID: p.PlayerID,
		Name:     p.Name,
		Life:     p.Life,
		Lost:     p.Lost,
		Left:     p.Conceded,
	}, true
}

func (sa *stateAccessor) FindStackItemForTarget(itemID string) (targeting.StackItemInfo, bool) {
	item, ok := sa.gs.stack.Find(itemID)
	if !ok {
		return targeting.StackItemInfo{}, false
	}
	return targeting.StackItemInfo{
		ID:         item.ID,
		Controller: item.Controller,
		Kind:       string(item.Kind),
	}, true
}

func (gs *gameState) validator() *targeting.Validator {
	return targeting.NewValidator(&stateAccessor{gs: gs})
}
