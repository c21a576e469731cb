package game

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ChristianIvicevic/sorcery/internal/game/descriptor"
	"github.com/ChristianIvicevic/sorcery/internal/game/effects"
	"github.com/ChristianIvicevic/sorcery/internal/game/gameerr"
	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
	"github.com/ChristianIvicevic/sorcery/internal/game/targeting"
)

// resolveTop resolves the top item of the stack. Targets are re-checked at
// resolution: an item whose targets are all illegal fizzles and does nothing.
func (gs *gameState) resolveTop() {
	item, err := gs.stack.Pop()
	if err != nil {
		return
	}

	if len(item.Targets) > 0 && gs.allTargetsIllegal(&item) {
		gs.fizzle(&item)
		return
	}

	if item.Resolve != nil {
		if err := item.Resolve(&item); err != nil {
			gs.logger.Error("resolution failed",
				zap.String("item", item.Description),
				zap.Error(err))
		}
		gs.bus.Publish(rules.NewEvent(rules.EventAbilityResolved, item.ID, item.SourceID, item.Controller))
		return
	}

	// A spell without an explicit resolver resolves from its card definition.
	gs.resolveSpell(&item)
}

func (gs *gameState) resolveSpell(item *rules.StackItem) {
	obj, ok := gs.store.Find(item.ObjectID)
	if !ok || obj.Zone != ZoneStack {
		gs.logger.Warn("spell left the stack before resolving",
			zap.String("object_id", item.ObjectID))
		return
	}
	def := obj.Def

	if def.IsPermanent() {
		perm, err := gs.store.Move(obj.ID, ZoneBattlefield)
		if err != nil {
			gs.logger.Error("permanent resolution failed", zap.Error(err))
			return
		}
		perm.ControllerID = item.Controller
		if perm.IsCreature() {
			perm.SummoningSick = true
		}
		// An aura enters attached to the first target that is still legal.
		if def.IsType("enchantment") && len(item.Targets) > 0 {
			for _, target := range item.Targets {
				if gs.targetStillLegal(target, item) {
					perm.AttachedTo = target
					break
				}
			}
		}
		gs.bus.Publish(rules.NewEvent(rules.EventSpellResolved, perm.ID, "", item.Controller))
		gs.publishEntersBattlefield(perm)
		return
	}

	// Instants and sorceries apply their effect graph, then go to the
	// graveyard as a new object.
	if err := gs.applyEffectGraph(def.Effects, *item); err != nil {
		gs.logger.Error("spell effects failed",
			zap.String("card", def.Name),
			zap.Error(err))
	}
	grave, err := gs.store.Move(obj.ID, ZoneGraveyard)
	if err != nil {
		gs.logger.Error("spell graveyard move failed", zap.Error(err))
		return
	}
	gs.bus.Publish(rules.NewEvent(rules.EventSpellResolved, grave.ID, "", item.Controller))
}

// fizzle removes an item whose targets all became illegal. A fizzled spell
// card goes to its owner's graveyard without applying any effect.
func (gs *gameState) fizzle(item *rules.StackItem) {
	gs.logger.Debug("stack item fizzled", zap.String("item", item.Description))
	if item.OnFizzle != nil {
		item.OnFizzle()
	}
	if item.ObjectID != "" {
		if obj, ok := gs.store.Find(item.ObjectID); ok && obj.Zone == ZoneStack {
			if _, err := gs.store.Move(obj.ID, ZoneGraveyard); err != nil {
				gs.logger.Error("fizzle graveyard move failed", zap.Error(err))
			}
		}
	}
	gs.bus.Publish(rules.NewEvent(rules.EventSpellFizzled, item.ID, item.SourceID, item.Controller))
}

func (gs *gameState) allTargetsIllegal(item *rules.StackItem) bool {
	for _, target := range item.Targets {
		if gs.targetStillLegal(target, item) {
			return false
		}
	}
	return true
}

// targetStillLegal re-checks one target at resolution time against the
// requirement it was chosen for: the object must still satisfy the
// requirement and must not have gained protection, hexproof or shroud
// against the source since it was chosen.
func (gs *gameState) targetStillLegal(targetID string, item *rules.StackItem) bool {
	source := targeting.Source{ID: item.SourceID, Controller: item.Controller}
	if src, ok := gs.store.Find(item.SourceID); ok && src.Def != nil {
		source.Colors = deriveColors(src.Def)
	}
	req := targeting.Requirement{Type: targeting.TargetTypeAny}
	for i, target := range item.Targets {
		if target == targetID && i < len(item.TargetReqs) {
			req = item.TargetReqs[i]
			break
		}
	}
	return gs.validator().ValidateTarget(targetID, req, source) == nil
}

// applyEffectGraph interprets an effect step list. Steps whose targets became
// illegal are skipped, as are steps depending on a skipped step; everything
// else applies.
func (gs *gameState) applyEffectGraph(steps []descriptor.EffectStep, item rules.StackItem) error {
	skipped := make([]bool, len(steps))
	for i, step := range steps {
		if dependencySkipped(step, skipped) {
			skipped[i] = true
			continue
		}
		subjects, ok := gs.resolveSubjects(step.Subject, &item)
		if !ok {
			skipped[i] = true
			continue
		}
		if err := gs.applyStep(step, subjects, &item); err != nil {
			if gameerr.IsFatal(err) {
				return err
			}
			gs.logger.Debug("effect step skipped",
				zap.String("op", step.Op),
				zap.Error(err))
			skipped[i] = true
		}
	}
	return nil
}

func dependencySkipped(step descriptor.EffectStep, skipped []bool) bool {
	for _, dep := range step.DependsOn {
		if dep >= 0 && dep < len(skipped) && skipped[dep] {
			return true
		}
	}
	return false
}

// resolveSubjects maps a step subject to concrete object or player IDs. A
// false return means the step has nothing legal to act on and is skipped.
func (gs *gameState) resolveSubjects(subject descriptor.Subject, item *rules.StackItem) ([]string, bool) {
	if idx := subject.TargetIndex(); idx >= 0 {
		if idx >= len(item.Targets) {
			return nil, false
		}
		target := item.Targets[idx]
		if !gs.targetStillLegal(target, item) {
			return nil, false
		}
		return []string{target}, true
	}
	switch subject {
	case "", "self":
		if item.SourceID == "" {
			return nil, false
		}
		return []string{item.SourceID}, true
	case "controller":
		return []string{item.Controller}, true
	case "opponent":
		opponents := gs.opponentsOf(item.Controller)
		if len(opponents) == 0 {
			return nil, false
		}
		return opponents[:1], true
	case "each_player":
		return append([]string(nil), gs.playerOrder...), true
	case "each_opponent":
		return gs.opponentsOf(item.Controller), true
	default:
		return nil, false
	}
}

func (gs *gameState) applyStep(step descriptor.EffectStep, subjects []string, item *rules.StackItem) error {
	amount := step.Amount
	if item.XValue > 0 && amount == 0 {
		amount = item.XValue
	}
	switch step.Op {
	case "deal_damage":
		for _, id := range subjects {
			gs.dealDamage(item.SourceID, id, amount, false)
		}
	case "move_zone":
		for _, id := range subjects {
			if err := gs.moveByEffect(id, ZoneName(step.Zone), item); err != nil {
				return err
			}
		}
	case "create_continuous_effect":
		for _, id := range subjects {
			gs.addContinuousEffect(step, id, item)
		}
	case "draw_cards":
		for _, id := range subjects {
			gs.drawCards(id, amount, item.SourceID)
		}
	case "gain_life":
		for _, id := range subjects {
			gs.adjustLife(id, amount, item.SourceID)
		}
	case "add_mana":
		for _, id := range subjects {
			if err := gs.addManaFromString(id, step.Mana, item.SourceID); err != nil {
				return err
			}
		}
	case "add_counters":
		for _, id := range subjects {
			obj, ok := gs.store.Find(id)
			if !ok || obj.Zone != ZoneBattlefield {
				continue
			}
			obj.Counters.Add(step.CounterName, amount)
			gs.bus.Publish(rules.NewEventWithAmount(rules.EventCounterAdded, obj.ID, item.SourceID, item.Controller, amount))
		}
	case "tap":
		for _, id := range subjects {
			gs.tapPermanent(id, item.Controller)
		}
	case "untap":
		for _, id := range subjects {
			gs.untapPermanent(id, item.Controller)
		}
	case "create_token":
		n := amount
		if n == 0 {
			n = 1
		}
		for _, id := range subjects {
			for i := 0; i < n; i++ {
				gs.createToken(id, step.Token)
			}
		}
	case "modify_characteristic":
		for _, id := range subjects {
			gs.addContinuousEffect(step, id, item)
		}
	case "attach":
		for _, id := range subjects {
			gs.attachSource(item.SourceID, id)
		}
	default:
		return gameerr.Invariant("unknown effect primitive %q", step.Op)
	}
	return nil
}

// dealDamage marks damage on a creature or reduces a player's life total,
// after replacement and prevention effects have had their say.
func (gs *gameState) dealDamage(sourceID, targetID string, amount int, combat bool) {
	if amount <= 0 {
		return
	}
	if p, ok := gs.players[targetID]; ok {
		event := rules.NewEventWithAmount(rules.EventDamagePlayer, targetID, sourceID, targetID, amount)
		event, happens := gs.replace.ReplaceEvent(event)
		if !happens || event.Amount <= 0 {
			return
		}
		p.Life -= event.Amount
		if gs.sourceHasAbility(sourceID, "lifelink") {
			if src, found := gs.store.Find(sourceID); found {
				gs.adjustLife(src.ControllerID, event.Amount, sourceID)
			}
		}
		gs.bus.Publish(rules.NewEventWithAmount(rules.EventDamagedPlayer, targetID, sourceID, targetID, event.Amount))
		return
	}

	obj, ok := gs.store.Find(targetID)
	if !ok || obj.Zone != ZoneBattlefield {
		return
	}
	event := rules.NewEventWithAmount(rules.EventDamagePermanent, targetID, sourceID, obj.ControllerID, amount)
	event, happens := gs.replace.ReplaceEvent(event)
	if !happens || event.Amount <= 0 {
		return
	}
	obj.Damage += event.Amount
	obj.DamageSources[sourceID] += event.Amount
	if gs.sourceHasAbility(sourceID, "deathtouch") {
		obj.DeathtouchDamage = true
	}
	if gs.sourceHasAbility(sourceID, "lifelink") {
		if src, found := gs.store.Find(sourceID); found {
			gs.adjustLife(src.ControllerID, event.Amount, sourceID)
		}
	}
	gs.bus.Publish(rules.NewEventWithAmount(rules.EventDamagedPermanent, targetID, sourceID, obj.ControllerID, event.Amount))
}

func (gs *gameState) sourceHasAbility(sourceID, ability string) bool {
	src, ok := gs.store.Find(sourceID)
	if !ok {
		return false
	}
	return gs.hasAbility(src, ability)
}

// adjustLife changes a player's life total, routing gains and losses through
// their respective replacement events.
func (gs *gameState) adjustLife(playerID string, delta int, sourceID string) {
	p, ok := gs.players[playerID]
	if !ok || delta == 0 {
		return
	}
	if delta > 0 {
		event := rules.NewEventWithAmount(rules.EventGainLife, playerID, sourceID, playerID, delta)
		event, happens := gs.replace.ReplaceEvent(event)
		if !happens || event.Amount <= 0 {
			return
		}
		p.Life += event.Amount
		gs.bus.Publish(rules.NewEventWithAmount(rules.EventGainedLife, playerID, sourceID, playerID, event.Amount))
		return
	}
	event := rules.NewEventWithAmount(rules.EventLoseLife, playerID, sourceID, playerID, -delta)
	event, happens := gs.replace.ReplaceEvent(event)
	if !happens || event.Amount <= 0 {
		return
	}
	p.Life -= event.Amount
	gs.bus.Publish(rules.NewEventWithAmount(rules.EventLostLife, playerID, sourceID, playerID, event.Amount))
}

// moveByEffect moves an object by a resolving effect, applying zone change
// replacements such as exile-instead-of-graveyard.
func (gs *gameState) moveByEffect(objectID string, to ZoneName, item *rules.StackItem) error {
	obj, ok := gs.store.Find(objectID)
	if !ok {
		return nil
	}
	event := rules.NewEvent(rules.EventZoneChange, objectID, item.SourceID, item.Controller)
	event.Metadata = map[string]string{
		"from_zone": string(obj.Zone),
		"to_zone":   string(to),
	}
	event, happens := gs.replace.ReplaceEvent(event)
	if !happens {
		return nil
	}
	if redirected := event.Metadata["to_zone"]; redirected != "" {
		to = ZoneName(redirected)
	}
	fromBattlefield := obj.Zone == ZoneBattlefield
	if fromBattlefield && to == ZoneGraveyard {
		gs.bus.Publish(rules.NewEvent(rules.EventPermanentDies, objectID, item.SourceID, item.Controller))
	}
	next, err := gs.store.Move(objectID, to)
	if err != nil {
		return err
	}
	if fromBattlefield {
		gs.permanentLeft(objectID)
	}
	if next != nil {
		changed := rules.NewEvent(rules.EventZoneChanged, next.ID, item.SourceID, item.Controller)
		changed.Metadata = event.Metadata
		gs.bus.Publish(changed)
		if to == ZoneBattlefield {
			gs.publishEntersBattlefield(next)
		}
	}
	return nil
}

// attachSource attaches the resolving ability's source to a permanent, as
// with an equip ability. The attachment is a non-owning link; the next
// state-based check clears attachments whose holder became illegal.
func (gs *gameState) attachSource(sourceID, targetID string) {
	src, ok := gs.store.Find(sourceID)
	if !ok || src.Zone != ZoneBattlefield {
		return
	}
	target, ok := gs.store.Find(targetID)
	if !ok || target.Zone != ZoneBattlefield {
		return
	}
	src.AttachedTo = targetID
	gs.bus.Publish(rules.NewEvent(rules.EventAttached, targetID, sourceID, src.ControllerID))
}

// permanentLeft tears down everything tied to a permanent's old identity:
// its triggers, its continuous effects and its replacement shields.
func (gs *gameState) permanentLeft(objectID string) {
	gs.triggers.UnregisterBySource(objectID)
	effects.CleanupSourceLeft(gs.layers, objectID)
	gs.replace.RemoveBySource(objectID)
	gs.bus.Publish(rules.NewEvent(rules.EventLeavesTheBattlefield, objectID, "", ""))
}

func (gs *gameState) addContinuousEffect(step descriptor.EffectStep, targetID string, item *rules.StackItem) {
	duration := effects.DurationEndOfTurn
	if step.Duration != "" {
		duration = effects.Duration(step.Duration)
	}
	filter := effects.FilterObject(targetID)
	if step.Ability != "" {
		gs.layers.AddEffect(effects.NewGrantAbilityEffect(item.SourceID, filter, strings.ToLower(step.Ability), duration))
	}
	if step.Power != 0 || step.Toughness != 0 {
		gs.layers.AddEffect(effects.NewBoostEffect(item.SourceID, filter, step.Power, step.Toughness, duration))
	}
}

func (gs *gameState) tapPermanent(objectID, byPlayer string) {
	obj, ok := gs.store.Find(objectID)
	if !ok || obj.Zone != ZoneBattlefield || obj.Tapped {
		return
	}
	event := rules.NewEvent(rules.EventTap, objectID, "", byPlayer)
	event, happens := gs.replace.ReplaceEvent(event)
	if !happens {
		return
	}
	obj.Tapped = true
	gs.bus.Publish(rules.NewEvent(rules.EventTapped, objectID, "", byPlayer))
}

func (gs *gameState) untapPermanent(objectID, byPlayer string) {
	obj, ok := gs.store.Find(objectID)
	if !ok || obj.Zone != ZoneBattlefield || !obj.Tapped {
		return
	}
	event := rules.NewEvent(rules.EventUntap, objectID, "", byPlayer)
	event, happens := gs.replace.ReplaceEvent(event)
	if !happens {
		return
	}
	obj.Tapped = false
	gs.bus.Publish(rules.NewEvent(rules.EventUntapped, objectID, "", byPlayer))
}

// createToken puts a fresh token onto the battlefield under the named
// player's control.
func (gs *gameState) createToken(controllerID string, spec *descriptor.TokenSpec) {
	if spec == nil {
		return
	}
	if _, ok := gs.players[controllerID]; !ok {
		// Token subjects must be players; a permanent subject means the
		// token goes to that permanent's controller.
		obj, found := gs.store.Find(controllerID)
		if !found {
			return
		}
		controllerID = obj.ControllerID
	}
	def := &descriptor.CardDefinition{
		Name:      spec.Name,
		Types:     spec.Types,
		Subtypes:  spec.Subtypes,
		Power:     spec.Power,
		Toughness: spec.Toughness,
		Keywords:  spec.Abilities,
	}
	if len(spec.Colors) > 0 {
		def.ColorIndicator = spec.Colors
	}
	token := gs.store.CreateToken(controllerID, def)
	if token.IsCreature() {
		token.SummoningSick = true
	}
	gs.bus.Publish(rules.NewEvent(rules.EventCreatedToken, token.ID, "", controllerID))
	gs.publishEntersBattlefield(token)
}
