package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ChristianIvicevic/sorcery/internal/game/descriptor"
	"github.com/ChristianIvicevic/sorcery/internal/game/effects"
	"github.com/ChristianIvicevic/sorcery/internal/game/gameerr"
	"github.com/ChristianIvicevic/sorcery/internal/game/mana"
	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
)

// PlayerSetup describes one player joining a new game.
type PlayerSetup struct {
	PlayerID string
	Name     string
	// Deck lists card names resolved against the engine's card library.
	Deck []string
}

// GameConfig configures a new game.
type GameConfig struct {
	GameID string
	// Seed drives every random choice in the game; replaying the same seed
	// with the same decisions reproduces the same game.
	Seed    int64
	Players []PlayerSetup
}

// Engine hosts games and advances them decision by decision. All entry
// points are safe for concurrent use; each game is processed under its own
// lock.
type Engine struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	games   map[string]*gameState
	library *descriptor.Library
}

// NewEngine creates an engine over the given card library.
func NewEngine(logger *zap.Logger, library *descriptor.Library) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if library == nil {
		library = descriptor.NewLibrary()
	}
	return &Engine{
		logger:  logger,
		games:   make(map[string]*gameState),
		library: library,
	}
}

// CreateGame builds a new game, shuffles with the configured seed, deals
// opening hands and returns the first decision: the starting player's
// mulligan choice.
func (e *Engine) CreateGame(cfg GameConfig) (*DecisionRequest, error) {
	if len(cfg.Players) < 2 {
		return nil, gameerr.IllegalAction("too_few_players", "a game needs at least two players")
	}
	gameID := cfg.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	e.mu.RLock()
	_, exists := e.games[gameID]
	e.mu.RUnlock()
	if exists {
		return nil, gameerr.IllegalAction("duplicate_game", "game %s already exists", gameID)
	}

	cfg.GameID = gameID
	rng := rand.New(rand.NewSource(cfg.Seed))
	// IDs for objects, stack items and triggers derive from the seed: two
	// runs of the same game mint the same IDs, so a recorded decision log
	// replays verbatim.
	newID := func() string {
		return uuid.Must(uuid.NewRandomFromReader(rng)).String()
	}
	gs := &gameState{
		gameID:    gameID,
		cfg:       cfg,
		phase:     GamePhaseMulligan,
		players:   make(map[string]*playerState),
		store:     newZoneStore(newID),
		stack:     rules.NewStackManager(),
		bus:       rules.NewEventBus(),
		triggers:  rules.NewTriggerManager(newID),
		watchers:  rules.NewWatcherRegistry(),
		layers:    effects.NewLayerEngine(),
		replace:   effects.NewReplacementManager(e.logger),
		library:   e.library,
		rng:       rng,
		newID:     newID,
		seed:      cfg.Seed,
		startedAt: time.Now(),
		logger:    e.logger.With(zap.String("game_id", gameID)),
	}

	for _, setup := range cfg.Players {
		if _, dup := gs.players[setup.PlayerID]; dup {
			return nil, gameerr.IllegalAction("duplicate_player", "player %s joined twice", setup.PlayerID)
		}
		gs.players[setup.PlayerID] = &playerState{
			PlayerID: setup.PlayerID,
			Name:     setup.Name,
			Life:     startingLife,
			ManaPool: mana.NewPool(),
		}
		gs.playerOrder = append(gs.playerOrder, setup.PlayerID)

		for _, cardName := range setup.Deck {
			def, ok := e.library.Get(cardName)
			if !ok {
				return nil, gameerr.IllegalAction("unknown_card",
					"deck of %s names unknown card %q", setup.PlayerID, cardName)
			}
			gs.store.AddToLibrary(setup.PlayerID, def)
		}
	}

	tracker, err := rules.NewPriorityTracker(gs.playerOrder)
	if err != nil {
		return nil, err
	}
	gs.priority = tracker
	gs.turns = rules.NewTurnManager(gs.playerOrder[0])

	gs.watchers.Add(rules.NewSpellsCastWatcher())
	gs.watchers.Add(rules.NewCardsDrawnWatcher())
	gs.watchers.Add(rules.NewPermanentsDiedWatcher())
	gs.watchers.Add(rules.NewLifeGainedWatcher())
	gs.bus.Subscribe(gs.watchers.Notify)
	gs.bus.Subscribe(func(event rules.Event) {
		gs.triggers.Handle(event)
	})

	for _, playerID := range gs.playerOrder {
		gs.store.Shuffle(playerID, gs.rng)
		gs.bus.Publish(rules.NewEvent(rules.EventLibraryShuffled, "", "", playerID))
		for i := 0; i < startingHandSize; i++ {
			gs.dealFromTop(playerID)
		}
	}

	e.mu.Lock()
	e.games[gameID] = gs
	e.mu.Unlock()

	gs.logger.Info("game created",
		zap.Int64("seed", cfg.Seed),
		zap.Strings("players", gs.playerOrder))

	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.askMulligan(gs.playerOrder[0])
	return gs.pending, nil
}

// PendingDecision returns the decision the game is waiting on, or nil when
// the game is finished.
func (e *Engine) PendingDecision(gameID string) (*DecisionRequest, error) {
	gs, err := e.game(gameID)
	if err != nil {
		return nil, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.pending, nil
}

// SubmitDecision answers the pending decision and advances the game to the
// next decision point. Rejected answers leave the pending decision and all
// game state unchanged; fatal errors (ErrInternalInvariant) mean the game
// state can no longer be trusted.
func (e *Engine) SubmitDecision(gameID string, decision *Decision) (*DecisionRequest, error) {
	gs, err := e.game(gameID)
	if err != nil {
		return nil, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.phase == GamePhaseFinished {
		return nil, gameerr.IllegalAction("game_over", "game %s is finished", gameID)
	}
	if gs.pending == nil {
		return nil, gameerr.Invariant("game %s is running with no pending decision", gameID)
	}
	if decision == nil {
		return nil, gameerr.IllegalAction("empty_decision", "no decision provided")
	}
	if decision.RequestID != gs.pending.ID {
		return nil, gameerr.IllegalAction("stale_decision",
			"decision answers request %s but %s is pending", decision.RequestID, gs.pending.ID)
	}
	if decision.PlayerID != gs.pending.PlayerID {
		return nil, gameerr.IllegalAction("wrong_player",
			"decision %s belongs to %s", gs.pending.ID, gs.pending.PlayerID)
	}

	resume := gs.resume
	if resume == nil {
		return nil, gameerr.Invariant("pending decision %s has no handler", gs.pending.ID)
	}
	if err := resume(decision); err != nil {
		// The decision stays pending; the caller may retry with a legal
		// answer unless the error is fatal.
		return gs.pending, err
	}

	gs.decisionLog = append(gs.decisionLog, *decision)
	gs.advance()
	return gs.pending, nil
}

// Concede removes a player from the game immediately. Concession is always
// legal, regardless of whose decision is pending.
func (e *Engine) Concede(gameID, playerID string) (*DecisionRequest, error) {
	gs, err := e.game(gameID)
	if err != nil {
		return nil, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, ok := gs.player(playerID)
	if !ok {
		return nil, gameerr.IllegalAction("unknown_player", "no player %s in game %s", playerID, gameID)
	}
	if p.Lost {
		return gs.pending, nil
	}
	p.Conceded = true
	gs.lose(p, "conceded")
	gs.bus.Publish(rules.NewEvent(rules.EventPlayerConceded, playerID, "", playerID))
	gs.record(playerID, "concede", nil)

	if gs.phase != GamePhaseFinished {
		// If the conceding player owned the pending decision, re-plan.
		if gs.pending != nil && gs.pending.PlayerID == playerID {
			gs.pending = nil
			gs.resume = nil
			if gs.phase == GamePhaseRunning {
				gs.grantPriority(gs.turns.ActivePlayer())
			}
		}
		gs.advance()
	}
	return gs.pending, nil
}

// Winner returns the winner's player ID once the game has finished.
func (e *Engine) Winner(gameID string) (string, bool, error) {
	gs, err := e.game(gameID)
	if err != nil {
		return "", false, err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.winnerID, gs.phase == GamePhaseFinished, nil
}

func (e *Engine) game(gameID string) (*gameState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	gs, ok := e.games[gameID]
	if !ok {
		return nil, gameerr.IllegalAction("unknown_game", "no game %s", gameID)
	}
	return gs, nil
}

// dealFromTop moves the top card of a library to its owner's hand without
// draw events, used for opening hands.
func (gs *gameState) dealFromTop(playerID string) {
	top := gs.store.TopOfLibrary(playerID)
	if top == nil {
		return
	}
	if _, err := gs.store.Move(top.ID, ZoneHand); err != nil {
		gs.logger.Error("opening hand deal failed", zap.Error(err))
	}
}

// lose marks a player as having lost and checks whether the game is over.
func (gs *gameState) lose(p *playerState, reason string) {
	if p.Lost {
		return
	}
	p.Lost = true
	p.LossReason = reason
	gs.priority.Remove(p.PlayerID)
	gs.bus.Publish(rules.NewEvent(rules.EventPlayerLost, p.PlayerID, "", p.PlayerID))
	gs.logger.Info("player lost", zap.String("player_id", p.PlayerID), zap.String("reason", reason))

	var remaining []*playerState
	for _, id := range gs.playerOrder {
		if other := gs.players[id]; !other.Lost {
			remaining = append(remaining, other)
		}
	}
	if len(remaining) == 1 {
		remaining[0].Won = true
		gs.winnerID = remaining[0].PlayerID
		gs.phase = GamePhaseFinished
		gs.pending = nil
		gs.resume = nil
		gs.stack.Clear()
		gs.bus.Publish(rules.NewEvent(rules.EventPlayerWon, gs.winnerID, "", gs.winnerID))
		gs.logger.Info("game finished", zap.String("winner", gs.winnerID))
	} else if len(remaining) == 0 {
		gs.phase = GamePhaseFinished
		gs.pending = nil
		gs.resume = nil
		gs.stack.Clear()
	}
}
