package game

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ChristianIvicevic/sorcery/internal/game/counters"
	"github.com/ChristianIvicevic/sorcery/internal/game/descriptor"
	"github.com/ChristianIvicevic/sorcery/internal/game/gameerr"
	"github.com/ChristianIvicevic/sorcery/internal/game/mana"
	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
	"github.com/ChristianIvicevic/sorcery/internal/game/targeting"
)

// askAction offers the priority holder their legal actions.
func (gs *gameState) askAction(playerID string) {
	options := gs.legalActions(playerID)
	gs.setPending(&DecisionRequest{
		PlayerID: playerID,
		Kind:     DecisionChooseAction,
		Actions:  options,
		Prompt:   fmt.Sprintf("%s: %s", gs.turns.CurrentStep(), "take an action or pass"),
	}, func(d *Decision) error {
		if d.Action == nil {
			return gameerr.IllegalAction("no_action", "choose_action needs an action")
		}
		return gs.handleAction(playerID, *d.Action)
	})
}

// legalActions enumerates what the player may do right now. Costs are
// checked when the action is taken, not here, except that unpayable spells
// are still offered so the rejection is explicit.
func (gs *gameState) legalActions(playerID string) []ActionOption {
	options := []ActionOption{{Kind: "pass", Description: "pass priority"}}
	p := gs.players[playerID]
	if p == nil || p.Lost {
		return options
	}

	sorcerySpeed := playerID == gs.turns.ActivePlayer() &&
		gs.turns.CurrentStep().IsMainPhase() &&
		gs.stack.IsEmpty()

	for _, obj := range gs.store.Hand(playerID) {
		def := obj.Def
		if def == nil {
			continue
		}
		if def.IsType("land") {
			if sorcerySpeed && p.LandsPlayedThisTurn < 1 {
				options = append(options, ActionOption{
					Kind:        "play_land",
					ObjectID:    obj.ID,
					Description: "play " + def.Name,
				})
			}
			continue
		}
		if def.IsType("instant") || sorcerySpeed {
			options = append(options, ActionOption{
				Kind:        "cast_spell",
				ObjectID:    obj.ID,
				Description: "cast " + def.Name,
			})
		}
	}

	for _, obj := range gs.store.Battlefield() {
		if obj.ControllerID != playerID || obj.Def == nil {
			continue
		}
		if obj.Def.ManaAbility != "" && !obj.Tapped {
			options = append(options, ActionOption{
				Kind:        "activate_ability",
				ObjectID:    obj.ID,
				AbilityIndex: -1,
				Description: fmt.Sprintf("tap %s for %s", obj.Name, obj.Def.ManaAbility),
			})
		}
		for i, ability := range obj.Def.Abilities {
			if ability.Trigger != nil {
				continue
			}
			options = append(options, ActionOption{
				Kind:         "activate_ability",
				ObjectID:     obj.ID,
				AbilityIndex: i,
				Description:  ability.Description,
			})
		}
	}
	return options
}

func (gs *gameState) handleAction(playerID string, action ActionOption) error {
	switch action.Kind {
	case "pass":
		gs.clearPending()
		if gs.priority.Pass() {
			gs.onAllPassed()
		}
		return nil
	case "play_land":
		return gs.playLand(playerID, action.ObjectID)
	case "cast_spell":
		return gs.beginCast(playerID, action.ObjectID)
	case "activate_ability":
		return gs.activateAbility(playerID, action.ObjectID, action.AbilityIndex)
	case "concede":
		p := gs.players[playerID]
		p.Conceded = true
		gs.clearPending()
		gs.lose(p, "conceded")
		return nil
	default:
		return gameerr.IllegalAction("unknown_action", "unknown action kind %q", action.Kind)
	}
}

// playLand is a special action: it uses no mana, does not use the stack and
// is limited to one per turn.
func (gs *gameState) playLand(playerID, objectID string) error {
	p := gs.players[playerID]
	if playerID != gs.turns.ActivePlayer() || !gs.turns.CurrentStep().IsMainPhase() || !gs.stack.IsEmpty() {
		return gameerr.IllegalAction("bad_timing", "lands can only be played in your main phase with an empty stack")
	}
	if p.LandsPlayedThisTurn >= 1 {
		return gameerr.IllegalAction("land_limit", "already played a land this turn")
	}
	obj, ok := gs.store.Find(objectID)
	if !ok || obj.Zone != ZoneHand || obj.OwnerID != playerID {
		return gameerr.IllegalAction("object_gone", "card %s is not in your hand", objectID)
	}
	if !obj.IsLand() {
		return gameerr.IllegalAction("not_a_land", "%s is not a land", obj.Name)
	}

	gs.clearPending()
	gs.bus.Publish(rules.NewEvent(rules.EventPlayLand, obj.ID, "", playerID))
	next, err := gs.store.Move(obj.ID, ZoneBattlefield)
	if err != nil {
		return err
	}
	p.LandsPlayedThisTurn++
	gs.priority.ActionTaken()
	gs.record(playerID, "play_land", map[string]string{"card": next.Name})
	gs.bus.Publish(rules.NewEvent(rules.EventLandPlayed, next.ID, "", playerID))
	gs.publishEntersBattlefield(next)
	return nil
}

// beginCast starts the casting sequence for a spell: propose, choose
// targets, pay costs. Any failure before completion rewinds entirely; the
// card stays in hand and no mana is spent.
func (gs *gameState) beginCast(playerID, objectID string) error {
	obj, ok := gs.store.Find(objectID)
	if !ok || obj.Zone != ZoneHand || obj.OwnerID != playerID {
		return gameerr.IllegalAction("object_gone", "card %s is not in your hand", objectID)
	}
	def := obj.Def
	if def == nil || def.IsType("land") {
		return gameerr.IllegalAction("not_castable", "%s cannot be cast", obj.Name)
	}
	if !def.IsType("instant") {
		if playerID != gs.turns.ActivePlayer() || !gs.turns.CurrentStep().IsMainPhase() || !gs.stack.IsEmpty() {
			return gameerr.IllegalAction("bad_timing",
				"%s can only be cast in your main phase with an empty stack", obj.Name)
		}
	}

	cost, err := mana.ParseCost(def.ManaCost)
	if err != nil {
		return gameerr.Invariant("card %s has unparseable cost %q: %v", def.Name, def.ManaCost, err)
	}

	requirements := targetRequirements(def.Targets)
	source := targeting.Source{ID: obj.ID, Controller: playerID, Colors: deriveColors(def)}

	if len(requirements) == 0 {
		if cost != nil && cost.X {
			return gs.askXPayment(playerID, obj, cost)
		}
		return gs.finishCast(playerID, obj, cost, nil, nil, 0)
	}

	// Offer target prompts with the currently legal candidates.
	prompts := make([]TargetPrompt, len(requirements))
	for i, req := range requirements {
		legal := gs.legalTargetsFor(req, source)
		if len(legal) < req.MinTargets {
			return gameerr.InvalidTarget("no_legal_targets",
				"no legal targets for %q", req.Description)
		}
		prompts[i] = TargetPrompt{
			Description: req.Description,
			Min:         req.MinTargets,
			Max:         req.MaxTargets,
			Legal:       legal,
		}
	}

	gs.clearPending()
	gs.setPending(&DecisionRequest{
		PlayerID: playerID,
		Kind:     DecisionChooseTargets,
		Targets:  prompts,
		HasX:     cost != nil && cost.X,
		Prompt:   "choose targets for " + def.Name,
	}, func(d *Decision) error {
		flat, flatReqs, err := gs.validateTargetSets(d.Targets, requirements, source)
		if err != nil {
			return err
		}
		return gs.finishCast(playerID, obj, cost, flat, flatReqs, d.XValue)
	})
	return nil
}

// askXPayment collects the X value (and a confirm) for a targetless spell
// with {X} in its cost. Declining leaves the card in hand with nothing spent.
func (gs *gameState) askXPayment(playerID string, obj *GameObject, cost *mana.Cost) error {
	gs.clearPending()
	gs.setPending(&DecisionRequest{
		PlayerID: playerID,
		Kind:     DecisionPayCost,
		HasX:     true,
		Prompt:   "choose X and confirm payment for " + obj.Name,
	}, func(d *Decision) error {
		if !d.Pay {
			gs.clearPending()
			return nil
		}
		if d.XValue < 0 {
			return gameerr.InsufficientCost("bad_x", "X cannot be negative")
		}
		return gs.finishCast(playerID, obj, cost, nil, nil, d.XValue)
	})
	return nil
}

// validateTargetSets validates one chosen target list per requirement and
// flattens them with a parallel requirement list for resolution re-checks.
func (gs *gameState) validateTargetSets(chosen [][]string, requirements []targeting.Requirement, source targeting.Source) ([]string, []targeting.Requirement, error) {
	if len(chosen) != len(requirements) {
		return nil, nil, gameerr.InvalidTarget("wrong_target_sets",
			"expected %d target sets, got %d", len(requirements), len(chosen))
	}
	validator := gs.validator()
	var flat []string
	var flatReqs []targeting.Requirement
	for i, req := range requirements {
		selection := &targeting.Selection{Targets: chosen[i], Requirement: req}
		if err := validator.ValidateSelection(selection, source); err != nil {
			return nil, nil, err
		}
		flat = append(flat, chosen[i]...)
		for range chosen[i] {
			flatReqs = append(flatReqs, req)
		}
	}
	return flat, flatReqs, nil
}

// finishCast pays the cost and puts the spell on the stack. Payment is
// all-or-nothing: an unpayable cost rejects the cast with the hand, pool and
// stack untouched.
func (gs *gameState) finishCast(playerID string, obj *GameObject, cost *mana.Cost, targets []string, targetReqs []targeting.Requirement, xValue int) error {
	p := gs.players[playerID]
	payment, err := mana.Pay(cost, p.ManaPool, xValue)
	if err != nil {
		return gameerr.InsufficientCost("mana", "cannot cast %s: %v", obj.Name, err)
	}

	gs.clearPending()
	gs.bus.Publish(rules.NewEvent(rules.EventCastSpell, obj.ID, "", playerID))

	stackObj, moveErr := gs.store.Move(obj.ID, ZoneStack)
	if moveErr != nil {
		payment.Refund(p.ManaPool)
		return moveErr
	}

	item := rules.StackItem{
		ID:          gs.newID(),
		Controller:  playerID,
		Description: "cast " + stackObj.Name,
		Kind:        rules.StackItemKindSpell,
		SourceID:    stackObj.ID,
		ObjectID:    stackObj.ID,
		Targets:     targets,
		TargetReqs:  targetReqs,
		XValue:      xValue,
	}
	gs.stack.Push(item)
	gs.priority.ActionTaken()
	gs.record(playerID, "cast_spell", map[string]string{"card": stackObj.Name})
	gs.bus.Publish(rules.NewEvent(rules.EventSpellCast, stackObj.ID, "", playerID))
	gs.logger.Debug("spell cast",
		zap.String("player_id", playerID),
		zap.String("card", stackObj.Name),
		zap.Strings("targets", targets))
	return nil
}

// activateAbility activates an ability of a permanent. Index -1 means the
// permanent's mana ability, which resolves immediately without the stack.
func (gs *gameState) activateAbility(playerID, objectID string, index int) error {
	obj, ok := gs.store.Find(objectID)
	if !ok || obj.Zone != ZoneBattlefield {
		return gameerr.IllegalAction("object_gone", "permanent %s no longer exists", objectID)
	}
	if obj.ControllerID != playerID {
		return gameerr.IllegalAction("not_controller", "you do not control %s", obj.Name)
	}
	def := obj.Def
	if def == nil {
		return gameerr.IllegalAction("no_abilities", "%s has no abilities", obj.Name)
	}

	if index == -1 {
		if def.ManaAbility == "" {
			return gameerr.IllegalAction("no_mana_ability", "%s has no mana ability", obj.Name)
		}
		if obj.Tapped {
			return gameerr.IllegalAction("already_tapped", "%s is already tapped", obj.Name)
		}
		gs.clearPending()
		obj.Tapped = true
		gs.bus.Publish(rules.NewEvent(rules.EventTapped, obj.ID, "", playerID))
		if err := gs.addManaFromString(playerID, def.ManaAbility, obj.ID); err != nil {
			return err
		}
		gs.priority.ActionTaken()
		gs.record(playerID, "mana_ability", map[string]string{"source": obj.Name})
		// The player keeps priority and must still act or pass.
		gs.askAction(playerID)
		return nil
	}

	if index < 0 || index >= len(def.Abilities) {
		return gameerr.IllegalAction("no_such_ability", "%s has no ability %d", obj.Name, index)
	}
	ability := def.Abilities[index]
	if ability.Trigger != nil {
		return gameerr.IllegalAction("not_activated", "ability %d of %s is triggered, not activated", index, obj.Name)
	}

	tapCost := strings.Contains(ability.Cost, "{T}")
	if tapCost && (obj.Tapped || (obj.SummoningSick && obj.IsCreature() && !gs.hasAbility(obj, "haste"))) {
		return gameerr.IllegalAction("cannot_tap", "%s cannot be tapped right now", obj.Name)
	}
	costStr := strings.ReplaceAll(ability.Cost, "{T}", "")
	cost, err := mana.ParseCost(costStr)
	if err != nil {
		return gameerr.Invariant("ability cost %q unparseable: %v", ability.Cost, err)
	}

	requirements := targetRequirements(ability.Targets)
	source := targeting.Source{ID: obj.ID, Controller: playerID, Colors: deriveColors(def)}
	if len(requirements) == 0 {
		return gs.finishActivation(playerID, obj, ability, cost, tapCost, nil, nil)
	}

	prompts := make([]TargetPrompt, len(requirements))
	for i, req := range requirements {
		legal := gs.legalTargetsFor(req, source)
		if len(legal) < req.MinTargets {
			return gameerr.InvalidTarget("no_legal_targets",
				"no legal targets for %q", req.Description)
		}
		prompts[i] = TargetPrompt{
			Description: req.Description,
			Min:         req.MinTargets,
			Max:         req.MaxTargets,
			Legal:       legal,
		}
	}

	gs.clearPending()
	gs.setPending(&DecisionRequest{
		PlayerID: playerID,
		Kind:     DecisionChooseTargets,
		Targets:  prompts,
		Prompt:   "choose targets for " + ability.Description,
	}, func(d *Decision) error {
		flat, flatReqs, err := gs.validateTargetSets(d.Targets, requirements, source)
		if err != nil {
			return err
		}
		return gs.finishActivation(playerID, obj, ability, cost, tapCost, flat, flatReqs)
	})
	return nil
}

// finishActivation pays the activation cost and puts the ability on the
// stack. An unpayable cost rejects the activation with nothing changed.
func (gs *gameState) finishActivation(playerID string, obj *GameObject, ability descriptor.AbilitySpec, cost *mana.Cost, tapCost bool, targets []string, targetReqs []targeting.Requirement) error {
	p := gs.players[playerID]
	if _, err := mana.Pay(cost, p.ManaPool, 0); err != nil {
		return gameerr.InsufficientCost("mana", "cannot activate %s: %v", obj.Name, err)
	}
	if tapCost {
		obj.Tapped = true
		gs.bus.Publish(rules.NewEvent(rules.EventTapped, obj.ID, "", playerID))
	}

	gs.clearPending()
	gs.bus.Publish(rules.NewEvent(rules.EventActivateAbility, obj.ID, obj.ID, playerID))
	item := rules.StackItem{
		ID:          gs.newID(),
		Controller:  playerID,
		Description: ability.Description,
		Kind:        rules.StackItemKindActivated,
		SourceID:    obj.ID,
		Targets:     targets,
		TargetReqs:  targetReqs,
	}
	steps := ability.Effects
	item.Resolve = func(it *rules.StackItem) error {
		return gs.applyEffectGraph(steps, *it)
	}
	gs.stack.Push(item)
	gs.priority.ActionTaken()
	gs.record(playerID, "activate_ability", map[string]string{"source": obj.Name})
	gs.bus.Publish(rules.NewEvent(rules.EventActivatedAbility, item.ID, obj.ID, playerID))
	return nil
}

func (gs *gameState) addManaFromString(playerID, manaStr, sourceID string) error {
	cost, err := mana.ParseCost(manaStr)
	if err != nil {
		return gameerr.Invariant("mana ability %q unparseable: %v", manaStr, err)
	}
	p := gs.players[playerID]
	for manaType, amount := range cost.Colored {
		p.ManaPool.Add(manaType, amount)
	}
	if cost.Generic > 0 {
		p.ManaPool.Add(mana.Colorless, cost.Generic)
	}
	gs.bus.Publish(rules.NewEvent(rules.EventManaAdded, "", sourceID, playerID))
	return nil
}

// hasAbility checks the object's current abilities through the layers.
func (gs *gameState) hasAbility(obj *GameObject, ability string) bool {
	return gs.characteristicsOf(obj).HasAbility(ability)
}

func targetRequirements(specs []descriptor.TargetSpec) []targeting.Requirement {
	reqs := make([]targeting.Requirement, len(specs))
	for i, spec := range specs {
		min, max := spec.Min, spec.Max
		if max == 0 {
			max = 1
		}
		if min == 0 && spec.Kind != "" && max == 1 {
			min = 1
		}
		reqs[i] = targeting.Requirement{
			Type:        targeting.TargetType(strings.ToUpper(spec.Kind)),
			MinTargets:  min,
			MaxTargets:  max,
			Description: spec.Description,
		}
	}
	return reqs
}

// legalTargetsFor enumerates the currently legal targets for a requirement.
func (gs *gameState) legalTargetsFor(req targeting.Requirement, source targeting.Source) []string {
	validator := gs.validator()
	var candidates []string
	for _, obj := range gs.store.Battlefield() {
		candidates = append(candidates, obj.ID)
	}
	for _, item := range gs.stack.List() {
		candidates = append(candidates, item.ID)
	}
	for _, id := range gs.playerOrder {
		candidates = append(candidates, id)
	}
	return validator.LegalTargets(candidates, req, source)
}

// publishEntersBattlefield fires battlefield entry events and registers the
// permanent's triggered abilities and keyword effects.
func (gs *gameState) publishEntersBattlefield(obj *GameObject) {
	if obj.Def != nil && obj.Def.Loyalty > 0 {
		obj.Counters.Add(counters.Loyalty, obj.Def.Loyalty)
	}
	gs.registerTriggers(obj)
	gs.bus.Publish(rules.NewEvent(rules.EventEntersTheBattlefield, obj.ID, "", obj.ControllerID))
}

// registerTriggers registers the triggered abilities of a permanent that just
// entered the battlefield. They stay registered until it leaves.
func (gs *gameState) registerTriggers(obj *GameObject) {
	if obj.Def == nil {
		return
	}
	for i, ability := range obj.Def.Abilities {
		if ability.Trigger == nil {
			continue
		}
		spec := ability
		abilityIndex := i
		sourceID := obj.ID
		controller := obj.ControllerID
		gs.triggers.Register(rules.AbilityTrigger{
			SourceID:   sourceID,
			Controller: controller,
			EventType:  rules.EventType(spec.Trigger.Event),
			Condition: func(event rules.Event) bool {
				if spec.Trigger.SelfOnly && event.TargetID != sourceID {
					return false
				}
				return true
			},
			Build: func(event rules.Event) rules.StackItem {
				item := rules.StackItem{
					ID:          gs.newID(),
					Controller:  controller,
					Description: spec.Description,
					Kind:        rules.StackItemKindTriggered,
					SourceID:    sourceID,
					Metadata:    map[string]string{"ability_index": strconv.Itoa(abilityIndex)},
				}
				steps := spec.Effects
				item.Resolve = func(it *rules.StackItem) error {
					return gs.applyEffectGraph(steps, *it)
				}
				return item
			},
		})
	}
}

// triggerTargetReqs returns the target requirements of the ability behind a
// queued trigger, or nil when the trigger targets nothing or its source is
// gone.
func (gs *gameState) triggerTargetReqs(item rules.StackItem) []targeting.Requirement {
	idxStr, ok := item.Metadata["ability_index"]
	if !ok {
		return nil
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return nil
	}
	src, found := gs.store.Find(item.SourceID)
	if !found || src.Def == nil || idx < 0 || idx >= len(src.Def.Abilities) {
		return nil
	}
	return targetRequirements(src.Def.Abilities[idx].Targets)
}
