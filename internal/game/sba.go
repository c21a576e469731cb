package game

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ChristianIvicevic/sorcery/internal/game/counters"
	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
)

const poisonThreshold = 10

// checkStateBasedActions performs one batch of state-based checks. All
// applicable actions are collected against the current state and then applied
// together; the caller re-runs until a batch applies nothing.
func (gs *gameState) checkStateBasedActions() bool {
	var actions []func()

	for _, id := range gs.playerOrder {
		p := gs.players[id]
		if p.Lost {
			continue
		}
		switch {
		case p.Life <= 0:
			player := p
			actions = append(actions, func() { gs.lose(player, "life total reached zero") })
		case p.AttemptedDrawFromEmpty:
			player := p
			actions = append(actions, func() { gs.lose(player, "drew from an empty library") })
		case p.Poison >= poisonThreshold:
			player := p
			actions = append(actions, func() { gs.lose(player, "poisoned") })
		}
	}

	for _, obj := range gs.store.Battlefield() {
		obj := obj
		chars := gs.characteristicsOf(obj)

		if chars.HasType("creature") {
			switch {
			case chars.Toughness <= 0:
				actions = append(actions, func() { gs.putInGraveyard(obj, false) })
			case obj.Damage >= chars.Toughness && chars.Toughness > 0,
				obj.DeathtouchDamage && obj.Damage > 0:
				if !chars.HasAbility("indestructible") {
					actions = append(actions, func() { gs.putInGraveyard(obj, true) })
				}
			}
		}

		// +1/+1 and -1/-1 counters cancel each other out.
		plus := obj.Counters.GetCount(counters.BoostCounterName(1, 1))
		minus := obj.Counters.GetCount(counters.BoostCounterName(-1, -1))
		if plus > 0 && minus > 0 {
			actions = append(actions, func() {
				removed := obj.Counters.Annihilate()
				gs.logger.Debug("counters annihilated",
					zap.String("object", obj.Name),
					zap.Int("removed", removed))
			})
		}

		// An attachment whose holder is gone, off the battlefield or of the
		// wrong kind goes to the graveyard.
		if obj.AttachedTo != "" && !gs.attachmentStillLegal(obj) {
			actions = append(actions, func() { gs.putInGraveyard(obj, false) })
		}

		// A planeswalker with no loyalty goes to the graveyard.
		if chars.HasType("planeswalker") && obj.Counters.GetCount(counters.Loyalty) == 0 {
			actions = append(actions, func() { gs.putInGraveyard(obj, false) })
		}
	}

	if len(actions) == 0 {
		return false
	}
	for _, apply := range actions {
		apply()
	}
	gs.bus.Publish(rules.NewEvent(rules.EventStateBasedActions, "", "", gs.turns.ActivePlayer()))
	return true
}

// attachmentStillLegal re-derives whether an attachment may stay on its
// holder. The holder must be on the battlefield, and when the attachment
// declares a target kind the holder must still be of that kind.
func (gs *gameState) attachmentStillLegal(obj *GameObject) bool {
	holder, ok := gs.store.Find(obj.AttachedTo)
	if !ok || holder.Zone != ZoneBattlefield {
		return false
	}
	if obj.Def == nil || len(obj.Def.Targets) == 0 {
		return true
	}
	kind := strings.ToLower(obj.Def.Targets[0].Kind)
	switch kind {
	case "", "any", "permanent":
		return true
	default:
		return gs.characteristicsOf(holder).HasType(kind)
	}
}

// putInGraveyard moves a permanent off the battlefield as a state-based
// action. Destruction is distinct from simply ceasing to exist so that dies
// triggers and destruction events both fire correctly.
func (gs *gameState) putInGraveyard(obj *GameObject, destroyed bool) {
	if obj.Zone != ZoneBattlefield {
		return
	}
	oldID := obj.ID
	controller := obj.ControllerID
	gs.bus.Publish(rules.NewEvent(rules.EventPermanentDies, oldID, "", controller))
	next, err := gs.store.Move(oldID, ZoneGraveyard)
	if err != nil {
		gs.logger.Error("graveyard move failed", zap.Error(err))
		return
	}
	gs.permanentLeft(oldID)
	if destroyed {
		targetID := oldID
		if next != nil {
			targetID = next.ID
		}
		gs.bus.Publish(rules.NewEvent(rules.EventDestroyedPermanent, targetID, "", controller))
	}
}
