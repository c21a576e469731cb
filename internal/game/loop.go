package game

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ChristianIvicevic/sorcery/internal/game/effects"
	"github.com/ChristianIvicevic/sorcery/internal/game/gameerr"
	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
	"github.com/ChristianIvicevic/sorcery/internal/game/targeting"
)

// setPending installs the decision the engine is waiting on.
func (gs *gameState) setPending(req *DecisionRequest, resume func(*Decision) error) {
	req.ID = uuid.NewString()
	req.GameID = gs.gameID
	gs.pending = req
	gs.resume = resume
}

func (gs *gameState) clearPending() {
	gs.pending = nil
	gs.resume = nil
}

// --- mulligans ---

// askMulligan asks a player to keep or mulligan their current hand.
func (gs *gameState) askMulligan(playerID string) {
	p := gs.players[playerID]
	keepSize := startingHandSize - p.MulliganCount
	gs.setPending(&DecisionRequest{
		PlayerID: playerID,
		Kind:     DecisionMakeChoice,
		Choices:  []string{"keep", "mulligan"},
		Prompt:   fmt.Sprintf("keep this hand of %d or mulligan to %d?", keepSize, keepSize-1),
	}, func(d *Decision) error {
		switch d.Choice {
		case "keep":
			p.KeptHand = true
		case "mulligan":
			gs.takeMulligan(p)
		default:
			return gameerr.IllegalAction("bad_choice", "choice must be keep or mulligan")
		}
		gs.clearPending()
		gs.nextMulliganDecision()
		return nil
	})
}

// takeMulligan shuffles the hand back and draws one fewer card.
func (gs *gameState) takeMulligan(p *playerState) {
	for _, obj := range append([]*GameObject(nil), gs.store.Hand(p.PlayerID)...) {
		if _, err := gs.store.Move(obj.ID, ZoneLibrary); err != nil {
			gs.logger.Error("mulligan return failed", zap.Error(err))
		}
	}
	gs.store.Shuffle(p.PlayerID, gs.rng)
	p.MulliganCount++
	for i := 0; i < startingHandSize-p.MulliganCount; i++ {
		gs.dealFromTop(p.PlayerID)
	}
	gs.record(p.PlayerID, "mulligan", nil)
}

// nextMulliganDecision asks the next player who has not kept, or starts the
// game when everyone has.
func (gs *gameState) nextMulliganDecision() {
	for _, id := range gs.playerOrder {
		p := gs.players[id]
		if !p.Lost && !p.KeptHand {
			gs.askMulligan(id)
			return
		}
	}
	gs.beginFirstTurn()
}

// beginFirstTurn transitions from mulligans into turn 1. The starting player
// skips the first draw step.
func (gs *gameState) beginFirstTurn() {
	gs.phase = GamePhaseRunning
	active := gs.turns.ActivePlayer()
	gs.bus.Publish(rules.NewEvent(rules.EventBeginTurn, "", "", active))
	gs.performTurnBasedActions(gs.turns.CurrentPhase(), gs.turns.CurrentStep())
	if gs.pending == nil {
		gs.endStep()
	}
	gs.advance()
}

// --- the drive loop ---

// advance makes progress until the game needs a decision or ends.
func (gs *gameState) advance() {
	for gs.phase == GamePhaseRunning && gs.pending == nil {
		if gs.checkStateAndTriggers() {
			return
		}
		if gs.phase != GamePhaseRunning || gs.pending != nil {
			return
		}
		gs.askAction(gs.priority.Holder())
	}
}

// checkStateAndTriggers runs the state-based action fixed point and puts any
// pending triggered abilities on the stack. Returns true when a decision was
// set.
func (gs *gameState) checkStateAndTriggers() bool {
	for {
		applied := gs.checkStateBasedActions()
		if gs.phase != GamePhaseRunning {
			return false
		}
		if !applied {
			break
		}
	}
	if gs.triggers.HasPending() {
		groups := gs.triggers.DrainPending(gs.priority.APNAPOrder(gs.turns.ActivePlayer()))
		return gs.stackTriggerGroups(groups)
	}
	return false
}

// stackTriggerGroups pushes pending trigger groups onto the stack in APNAP
// order. A controller with more than one simultaneous trigger chooses their
// stacking order.
func (gs *gameState) stackTriggerGroups(groups [][]rules.PendingTrigger) bool {
	for len(groups) > 0 {
		group := groups[0]
		groups = groups[1:]
		if len(group) == 1 {
			return gs.stackOrderedTriggers(group, groups)
		}

		prompts := make([]TriggerPrompt, len(group))
		byID := make(map[string]rules.PendingTrigger, len(group))
		for i, pt := range group {
			prompts[i] = TriggerPrompt{ItemID: pt.Item.ID, Description: pt.Item.Description}
			byID[pt.Item.ID] = pt
		}
		rest := groups
		gs.setPending(&DecisionRequest{
			PlayerID: group[0].Controller,
			Kind:     DecisionOrderTriggers,
			Triggers: prompts,
			Prompt:   "order your triggered abilities (first goes on the stack first)",
		}, func(d *Decision) error {
			if len(d.Order) != len(byID) {
				return gameerr.IllegalAction("bad_trigger_order",
					"order must list all %d triggers", len(byID))
			}
			seen := make(map[string]bool)
			for _, id := range d.Order {
				if _, ok := byID[id]; !ok || seen[id] {
					return gameerr.IllegalAction("bad_trigger_order", "unknown or duplicate trigger %s", id)
				}
				seen[id] = true
			}
			gs.clearPending()
			ordered := make([]rules.PendingTrigger, 0, len(d.Order))
			for _, id := range d.Order {
				ordered = append(ordered, byID[id])
			}
			gs.stackOrderedTriggers(ordered, rest)
			return nil
		})
		return true
	}
	return false
}

// stackOrderedTriggers pushes an already-ordered run of one controller's
// triggers, prompting for targets where the underlying ability declares
// any. A trigger whose required targets have no legal choice is removed
// without going on the stack. Returns true when a decision was set.
func (gs *gameState) stackOrderedTriggers(queue []rules.PendingTrigger, rest [][]rules.PendingTrigger) bool {
	for len(queue) > 0 {
		pt := queue[0]
		queue = queue[1:]

		reqs := gs.triggerTargetReqs(pt.Item)
		if len(reqs) == 0 {
			gs.pushTrigger(pt)
			continue
		}

		source := targeting.Source{ID: pt.Item.SourceID, Controller: pt.Controller}
		if src, ok := gs.store.Find(pt.Item.SourceID); ok && src.Def != nil {
			source.Colors = deriveColors(src.Def)
		}
		prompts := make([]TargetPrompt, len(reqs))
		removed := false
		for i, req := range reqs {
			legal := gs.legalTargetsFor(req, source)
			if len(legal) < req.MinTargets {
				gs.logger.Debug("trigger removed, no legal targets",
					zap.String("description", pt.Item.Description))
				removed = true
				break
			}
			prompts[i] = TargetPrompt{
				Description: req.Description,
				Min:         req.MinTargets,
				Max:         req.MaxTargets,
				Legal:       legal,
			}
		}
		if removed {
			continue
		}

		remainder := queue
		restGroups := rest
		gs.setPending(&DecisionRequest{
			PlayerID: pt.Controller,
			Kind:     DecisionChooseTargets,
			Targets:  prompts,
			Prompt:   "choose targets for " + pt.Item.Description,
		}, func(d *Decision) error {
			flat, flatReqs, err := gs.validateTargetSets(d.Targets, reqs, source)
			if err != nil {
				return err
			}
			gs.clearPending()
			pt.Item.Targets = flat
			pt.Item.TargetReqs = flatReqs
			gs.pushTrigger(pt)
			gs.stackOrderedTriggers(remainder, restGroups)
			return nil
		})
		return true
	}
	return gs.stackTriggerGroups(rest)
}

func (gs *gameState) pushTrigger(pt rules.PendingTrigger) {
	gs.stack.Push(pt.Item)
	gs.bus.Publish(rules.NewEvent(rules.EventTriggeredAbility, pt.Item.ID, pt.Item.SourceID, pt.Controller))
	gs.logger.Debug("trigger stacked",
		zap.String("item_id", pt.Item.ID),
		zap.String("description", pt.Item.Description))
}

// grantPriority gives priority to a player, usually the active player.
func (gs *gameState) grantPriority(playerID string) {
	if err := gs.priority.Grant(playerID); err != nil {
		gs.logger.Error("priority grant failed", zap.Error(err))
	}
}

// onAllPassed reacts to every player passing in succession: the top of the
// stack resolves, or the step ends.
func (gs *gameState) onAllPassed() {
	if !gs.stack.IsEmpty() {
		gs.resolveTop()
		if gs.phase == GamePhaseRunning {
			gs.grantPriority(gs.turns.ActivePlayer())
		}
		return
	}
	gs.endStep()
}

// endStep finishes the current step and moves through the turn structure
// until a step that hands out priority (or needs a decision) is reached.
func (gs *gameState) endStep() {
	for gs.phase == GamePhaseRunning {
		gs.emptyManaPools()
		gs.bus.Publish(rules.NewEvent(rules.EventStepEnded, "", "", gs.turns.ActivePlayer()))

		endingTurn := gs.turns.CurrentStep() == rules.StepCleanup
		next := gs.priority.NextInOrder(gs.turns.ActivePlayer())
		phase, step := gs.turns.AdvanceStep(next)
		if endingTurn {
			gs.bus.Publish(rules.NewEvent(rules.EventBeginTurn, "", "", gs.turns.ActivePlayer()))
		}
		gs.bus.Publish(rules.NewEvent(rules.EventStepBegan, "", "", gs.turns.ActivePlayer()))

		gs.performTurnBasedActions(phase, step)
		if gs.pending != nil || gs.phase != GamePhaseRunning {
			return
		}
		if step.GrantsPriority() {
			gs.grantPriority(gs.turns.ActivePlayer())
			return
		}
		// Untap and cleanup grant priority only when something triggered.
		if gs.triggers.HasPending() {
			gs.grantPriority(gs.turns.ActivePlayer())
			return
		}
	}
}

func (gs *gameState) emptyManaPools() {
	for _, id := range gs.playerOrder {
		p := gs.players[id]
		if p.ManaPool.Total() > 0 {
			p.ManaPool.Empty()
			gs.bus.Publish(rules.NewEvent(rules.EventManaPoolEmptied, "", "", id))
		}
	}
}

// performTurnBasedActions runs the automatic actions at the start of a step.
func (gs *gameState) performTurnBasedActions(phase rules.Phase, step rules.Step) {
	active := gs.turns.ActivePlayer()
	switch step {
	case rules.StepUntap:
		gs.untapStep(active)
	case rules.StepUpkeep:
		gs.bus.Publish(rules.NewEvent(rules.EventUpkeepStep, "", "", active))
	case rules.StepDraw:
		gs.bus.Publish(rules.NewEvent(rules.EventDrawStep, "", "", active))
		// The starting player skips the draw of the game's first turn.
		if gs.turns.TurnNumber() == 1 && active == gs.playerOrder[0] {
			return
		}
		gs.drawCards(active, 1, "")
	case rules.StepDeclareAttackers:
		gs.askAttackers(active)
	case rules.StepDeclareBlockers:
		gs.askBlockers()
	case rules.StepFirstStrikeDamage:
		gs.dealCombatDamage(true)
	case rules.StepCombatDamage:
		gs.dealCombatDamage(false)
	case rules.StepEndCombat:
		gs.clearCombat()
	case rules.StepEnd:
		gs.bus.Publish(rules.NewEvent(rules.EventEndStep, "", "", active))
	case rules.StepCleanup:
		gs.cleanupStep(active)
	}
	_ = phase
}

func (gs *gameState) untapStep(active string) {
	p := gs.players[active]
	p.LandsPlayedThisTurn = 0
	for _, obj := range gs.store.Battlefield() {
		if obj.ControllerID != active {
			continue
		}
		obj.SummoningSick = false
		if obj.Tapped {
			obj.Tapped = false
			gs.bus.Publish(rules.NewEvent(rules.EventUntapped, obj.ID, "", active))
		}
	}
}

func (gs *gameState) cleanupStep(active string) {
	gs.bus.Publish(rules.NewEvent(rules.EventCleanupStep, "", "", active))

	hand := gs.store.Hand(active)
	if excess := len(hand) - startingHandSize; excess > 0 {
		legal := make([]string, len(hand))
		for i, obj := range hand {
			legal[i] = obj.ID
		}
		gs.setPending(&DecisionRequest{
			PlayerID: active,
			Kind:     DecisionChooseTargets,
			Targets: []TargetPrompt{{
				Description: fmt.Sprintf("discard %d cards", excess),
				Min:         excess,
				Max:         excess,
				Legal:       legal,
			}},
			Prompt: fmt.Sprintf("discard down to %d cards", startingHandSize),
		}, func(d *Decision) error {
			if len(d.Targets) != 1 || len(d.Targets[0]) != excess {
				return gameerr.IllegalAction("bad_discard", "must discard exactly %d cards", excess)
			}
			for _, id := range d.Targets[0] {
				obj, ok := gs.store.Find(id)
				if !ok || obj.Zone != ZoneHand || obj.OwnerID != active {
					return gameerr.IllegalAction("bad_discard", "card %s is not in your hand", id)
				}
			}
			gs.clearPending()
			for _, id := range d.Targets[0] {
				gs.discard(active, id)
			}
			gs.finishCleanup(active)
			// Players only receive priority in cleanup when something
			// triggered; otherwise the turn ends here.
			if gs.triggers.HasPending() {
				gs.grantPriority(active)
			} else {
				gs.endStep()
			}
			return nil
		})
		return
	}
	gs.finishCleanup(active)
}

func (gs *gameState) finishCleanup(active string) {
	for _, obj := range gs.store.Battlefield() {
		obj.Damage = 0
		obj.DamageSources = make(map[string]int)
		obj.DeathtouchDamage = false
	}
	effects.CleanupEndOfTurn(gs.layers)
	gs.replace.CleanupExpired(effects.DurationEndOfTurn)
	gs.watchers.ResetAll()
}

func (gs *gameState) discard(playerID, objectID string) {
	gs.bus.Publish(rules.NewEvent(rules.EventDiscardCard, objectID, "", playerID))
	next, err := gs.store.Move(objectID, ZoneGraveyard)
	if err != nil {
		gs.logger.Error("discard failed", zap.Error(err))
		return
	}
	if next != nil {
		gs.bus.Publish(rules.NewEvent(rules.EventDiscardedCard, next.ID, "", playerID))
	}
}

// drawCards draws n cards for a player, applying draw replacement effects.
// Drawing from an empty library latches a loss applied by the next
// state-based action check.
func (gs *gameState) drawCards(playerID string, n int, sourceID string) {
	p := gs.players[playerID]
	for i := 0; i < n; i++ {
		event := rules.NewEventWithAmount(rules.EventDrawCard, "", sourceID, playerID, 1)
		event, happens := gs.replace.ReplaceEvent(event)
		if !happens {
			continue
		}
		top := gs.store.TopOfLibrary(playerID)
		if top == nil {
			p.AttemptedDrawFromEmpty = true
			gs.bus.Publish(rules.NewEvent(rules.EventDrawFromEmptyLibrary, "", sourceID, playerID))
			continue
		}
		next, err := gs.store.Move(top.ID, ZoneHand)
		if err != nil {
			gs.logger.Error("draw failed", zap.Error(err))
			return
		}
		drew := rules.NewEvent(rules.EventDrewCard, next.ID, sourceID, playerID)
		gs.bus.Publish(drew)
	}
}
