package game

import (
	"sort"

	"go.uber.org/zap"

	"github.com/ChristianIvicevic/sorcery/internal/game/effects"
	"github.com/ChristianIvicevic/sorcery/internal/game/gameerr"
	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
)

// combatState tracks the declared attackers and blocks for the current
// combat. It exists from declare attackers until end of combat.
type combatState struct {
	// attackers maps attacker ID to the defending player.
	attackers map[string]string
	// blocks maps attacker ID to its blockers in damage assignment order.
	blocks map[string][]string
	// declaredOrder preserves attacker declaration order for deterministic
	// damage assignment.
	declaredOrder []string
}

func newCombatState() *combatState {
	return &combatState{
		attackers: make(map[string]string),
		blocks:    make(map[string][]string),
	}
}

// askAttackers asks the active player to declare attackers. With no legal
// attacker the combat damage steps are skipped outright.
func (gs *gameState) askAttackers(active string) {
	legal := gs.legalAttackers(active)
	if len(legal) == 0 {
		gs.skipRemainingCombat()
		return
	}

	gs.setPending(&DecisionRequest{
		PlayerID:  active,
		Kind:      DecisionDeclareAttackers,
		Attackers: legal,
		Prompt:    "declare attackers",
	}, func(d *Decision) error {
		return gs.declareAttackers(active, d.Attackers)
	})
}

func (gs *gameState) legalAttackers(active string) []string {
	var legal []string
	for _, obj := range gs.store.Battlefield() {
		if obj.ControllerID != active || obj.Tapped {
			continue
		}
		chars := gs.characteristicsOf(obj)
		if !chars.HasType("creature") || chars.HasAbility("defender") {
			continue
		}
		if obj.SummoningSick && !chars.HasAbility("haste") {
			continue
		}
		legal = append(legal, obj.ID)
	}
	sort.Strings(legal)
	return legal
}

func (gs *gameState) declareAttackers(active string, declared map[string]string) error {
	legal := make(map[string]bool)
	for _, id := range gs.legalAttackers(active) {
		legal[id] = true
	}
	for attackerID, defenderID := range declared {
		if !legal[attackerID] {
			return gameerr.IllegalAction("illegal_attacker", "%s cannot attack", attackerID)
		}
		defender, ok := gs.players[defenderID]
		if !ok || defender.Lost || defenderID == active {
			return gameerr.IllegalAction("illegal_defender", "%s cannot be attacked", defenderID)
		}
	}

	gs.clearPending()
	if len(declared) == 0 {
		gs.skipRemainingCombat()
		return nil
	}

	combat := newCombatState()
	for attackerID := range declared {
		combat.declaredOrder = append(combat.declaredOrder, attackerID)
	}
	sort.Strings(combat.declaredOrder)

	for _, attackerID := range combat.declaredOrder {
		defenderID := declared[attackerID]
		obj, _ := gs.store.Find(attackerID)
		combat.attackers[attackerID] = defenderID
		obj.Attacking = defenderID
		if !gs.characteristicsOf(obj).HasAbility("vigilance") {
			obj.Tapped = true
			gs.bus.Publish(rules.NewEvent(rules.EventTapped, obj.ID, "", active))
		}
		gs.record(active, "declare_attacker", map[string]string{
			"attacker": obj.Name,
			"defender": defenderID,
		})
		gs.bus.Publish(rules.NewEvent(rules.EventAttackerDeclared, attackerID, "", active))
	}
	gs.combat = combat
	gs.refreshFirstStrike()
	gs.grantPriority(active)
	return nil
}

// askBlockers asks the defending player to declare blocks. Without a combat
// in progress the step has nothing to do.
func (gs *gameState) askBlockers() {
	combat := gs.combat
	if combat == nil || len(combat.attackers) == 0 {
		return
	}
	defenderID := combat.attackers[combat.declaredOrder[0]]
	defender := gs.players[defenderID]
	if defender == nil || defender.Lost {
		return
	}

	legal := gs.legalBlocks(defenderID)
	if len(legal) == 0 {
		gs.finishBlocks()
		return
	}

	gs.setPending(&DecisionRequest{
		PlayerID: defenderID,
		Kind:     DecisionDeclareBlockers,
		Blockers: legal,
		Prompt:   "declare blockers",
	}, func(d *Decision) error {
		return gs.declareBlockers(defenderID, d.Blocks)
	})
}

// legalBlocks maps each attacker to the defender's creatures able to block
// it. Flying attackers can only be blocked by flying or reach.
func (gs *gameState) legalBlocks(defenderID string) map[string][]string {
	combat := gs.combat
	legal := make(map[string][]string)
	for _, attackerID := range combat.declaredOrder {
		if combat.attackers[attackerID] != defenderID {
			continue
		}
		attacker, ok := gs.store.Find(attackerID)
		if !ok {
			continue
		}
		attackerChars := gs.characteristicsOf(attacker)
		var blockers []string
		for _, obj := range gs.store.Battlefield() {
			if obj.ControllerID != defenderID || obj.Tapped {
				continue
			}
			chars := gs.characteristicsOf(obj)
			if !chars.HasType("creature") {
				continue
			}
			if attackerChars.HasAbility("flying") &&
				!chars.HasAbility("flying") && !chars.HasAbility("reach") {
				continue
			}
			if attackerChars.HasAbility("unblockable") {
				continue
			}
			blockers = append(blockers, obj.ID)
		}
		sort.Strings(blockers)
		if len(blockers) > 0 {
			legal[attackerID] = blockers
		}
	}
	return legal
}

func (gs *gameState) declareBlockers(defenderID string, blocks map[string]string) error {
	legal := gs.legalBlocks(defenderID)
	assigned := make(map[string][]string)
	for blockerID, attackerID := range blocks {
		found := false
		for _, candidate := range legal[attackerID] {
			if candidate == blockerID {
				found = true
				break
			}
		}
		if !found {
			return gameerr.IllegalAction("illegal_block", "%s cannot block %s", blockerID, attackerID)
		}
		assigned[attackerID] = append(assigned[attackerID], blockerID)
	}

	gs.clearPending()
	for attackerID, blockers := range assigned {
		sort.Strings(blockers)
		gs.combat.blocks[attackerID] = blockers
		attacker, _ := gs.store.Find(attackerID)
		attacker.BlockedBy = blockers
		for _, blockerID := range blockers {
			blocker, _ := gs.store.Find(blockerID)
			blocker.Blocking = append(blocker.Blocking, attackerID)
			gs.bus.Publish(rules.NewEvent(rules.EventBlockerDeclared, blockerID, attackerID, defenderID))
		}
		gs.bus.Publish(rules.NewEvent(rules.EventCreatureBlocked, attackerID, "", defenderID))
	}
	for _, attackerID := range gs.combat.declaredOrder {
		if len(gs.combat.blocks[attackerID]) == 0 {
			gs.bus.Publish(rules.NewEvent(rules.EventUnblockedAttacker, attackerID, "", gs.turns.ActivePlayer()))
		}
	}
	gs.finishBlocks()
	return nil
}

func (gs *gameState) finishBlocks() {
	gs.refreshFirstStrike()
	gs.grantPriority(gs.turns.ActivePlayer())
}

// refreshFirstStrike inserts or removes the first strike damage step based on
// the creatures currently in combat.
func (gs *gameState) refreshFirstStrike() {
	combat := gs.combat
	if combat == nil {
		gs.turns.SetHasFirstStrike(false)
		return
	}
	has := false
	check := func(id string) {
		obj, ok := gs.store.Find(id)
		if !ok {
			return
		}
		chars := gs.characteristicsOf(obj)
		if chars.HasAbility("first strike") || chars.HasAbility("double strike") {
			has = true
		}
	}
	for _, attackerID := range combat.declaredOrder {
		check(attackerID)
		for _, blockerID := range combat.blocks[attackerID] {
			check(blockerID)
		}
	}
	gs.turns.SetHasFirstStrike(has)
}

// dealCombatDamage deals one round of combat damage. The first strike round
// includes only first and double strikers; the normal round includes
// everyone else plus double strikers dealing damage again.
func (gs *gameState) dealCombatDamage(firstStrikeRound bool) {
	combat := gs.combat
	if combat == nil {
		return
	}

	dealsThisRound := func(chars *effects.Characteristics) bool {
		first := chars.HasAbility("first strike")
		double := chars.HasAbility("double strike")
		if firstStrikeRound {
			return first || double
		}
		return !first || double
	}

	for _, attackerID := range combat.declaredOrder {
		attacker, ok := gs.store.Find(attackerID)
		if !ok || attacker.Zone != ZoneBattlefield {
			continue
		}
		attackerChars := gs.characteristicsOf(attacker)
		blockers := gs.livingBlockers(combat.blocks[attackerID])

		if dealsThisRound(attackerChars) && attackerChars.Power > 0 {
			if len(blockers) == 0 {
				gs.dealDamage(attackerID, combat.attackers[attackerID], attackerChars.Power, true)
			} else {
				gs.assignAttackerDamage(attacker, attackerChars, blockers, combat.attackers[attackerID])
			}
		}

		for _, blockerID := range blockers {
			blocker, found := gs.store.Find(blockerID)
			if !found || blocker.Zone != ZoneBattlefield {
				continue
			}
			blockerChars := gs.characteristicsOf(blocker)
			if dealsThisRound(blockerChars) && blockerChars.Power > 0 {
				gs.dealDamage(blockerID, attackerID, blockerChars.Power, true)
			}
		}
	}
	gs.bus.Publish(rules.NewEvent(rules.EventCombatDamageDealt, "", "", gs.turns.ActivePlayer()))
}

func (gs *gameState) livingBlockers(blockers []string) []string {
	var alive []string
	for _, id := range blockers {
		if obj, ok := gs.store.Find(id); ok && obj.Zone == ZoneBattlefield {
			alive = append(alive, id)
		}
	}
	return alive
}

// assignAttackerDamage spreads a blocked attacker's power over its blockers
// in order, assigning lethal damage to each before moving on. Trample sends
// the excess through to the defending player.
func (gs *gameState) assignAttackerDamage(attacker *GameObject, chars *effects.Characteristics, blockers []string, defenderID string) {
	remaining := chars.Power
	deathtouch := chars.HasAbility("deathtouch")
	trample := chars.HasAbility("trample")

	for _, blockerID := range blockers {
		if remaining <= 0 {
			break
		}
		blocker, ok := gs.store.Find(blockerID)
		if !ok || blocker.Zone != ZoneBattlefield {
			continue
		}
		blockerChars := gs.characteristicsOf(blocker)
		lethal := blockerChars.Toughness - blocker.Damage
		if lethal < 1 || deathtouch {
			lethal = 1
		}
		assign := lethal
		if assign > remaining {
			assign = remaining
		}
		// Without trample the last blocker soaks up everything left.
		if !trample && blockerID == blockers[len(blockers)-1] {
			assign = remaining
		}
		gs.dealDamage(attacker.ID, blockerID, assign, true)
		remaining -= assign
	}
	if trample && remaining > 0 {
		gs.dealDamage(attacker.ID, defenderID, remaining, true)
	}
}

// clearCombat removes every creature from combat and expires effects that
// last until end of combat.
func (gs *gameState) clearCombat() {
	combat := gs.combat
	if combat != nil {
		for _, attackerID := range combat.declaredOrder {
			if obj, ok := gs.store.Find(attackerID); ok {
				obj.Attacking = ""
				obj.BlockedBy = nil
				gs.bus.Publish(rules.NewEvent(rules.EventRemovedFromCombat, attackerID, "", obj.ControllerID))
			}
			for _, blockerID := range combat.blocks[attackerID] {
				if obj, ok := gs.store.Find(blockerID); ok {
					obj.Blocking = nil
				}
			}
		}
	}
	gs.combat = nil
	removed := effects.CleanupEndOfCombat(gs.layers)
	if len(removed) > 0 {
		gs.logger.Debug("end of combat effects expired", zap.Int("count", len(removed)))
	}
	gs.replace.CleanupExpired(effects.DurationEndOfCombat)
}

// skipRemainingCombat passes over the rest of combat when no attackers were
// declared.
func (gs *gameState) skipRemainingCombat() {
	gs.combat = nil
	gs.turns.SkipStep(rules.StepDeclareBlockers)
	gs.turns.SkipStep(rules.StepFirstStrikeDamage)
	gs.turns.SkipStep(rules.StepCombatDamage)
	gs.turns.SkipStep(rules.StepEndCombat)
}
