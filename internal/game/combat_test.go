package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChristianIvicevic/sorcery/internal/game/descriptor"
	"github.com/ChristianIvicevic/sorcery/internal/game/rules"
)

func creatureDef(name string, power, toughness int, keywords ...string) *descriptor.CardDefinition {
	return &descriptor.CardDefinition{
		Name:      name,
		ManaCost:  "{1}{G}",
		Types:     []string{"Creature"},
		Power:     power,
		Toughness: toughness,
		Keywords:  keywords,
	}
}

// advanceToAttackers passes priority until the attack declaration of the
// current turn is pending.
func advanceToAttackers(t *testing.T, e *Engine, gameID string) *DecisionRequest {
	t.Helper()
	for i := 0; i < 100; i++ {
		req := mustPending(t, e, gameID)
		if req.Kind == DecisionDeclareAttackers {
			return req
		}
		pass(t, e, gameID)
	}
	t.Fatal("never reached declare attackers")
	return nil
}

func declareAttack(t *testing.T, e *Engine, gameID string, attackers map[string]string) {
	t.Helper()
	req := advanceToAttackers(t, e, gameID)
	_, err := e.SubmitDecision(gameID, &Decision{
		RequestID: req.ID,
		PlayerID:  req.PlayerID,
		Attackers: attackers,
	})
	require.NoError(t, err)
}

// passToBlockers moves from the attack declaration into the block declaration.
func passToBlockers(t *testing.T, e *Engine, gameID string) *DecisionRequest {
	t.Helper()
	for i := 0; i < 20; i++ {
		req := mustPending(t, e, gameID)
		if req.Kind == DecisionDeclareBlockers {
			return req
		}
		pass(t, e, gameID)
	}
	t.Fatal("never reached declare blockers")
	return nil
}

func declareBlock(t *testing.T, e *Engine, gameID string, blocks map[string]string) {
	t.Helper()
	req := passToBlockers(t, e, gameID)
	_, err := e.SubmitDecision(gameID, &Decision{
		RequestID: req.ID,
		PlayerID:  req.PlayerID,
		Blocks:    blocks,
	})
	require.NoError(t, err)
}

// passUntilStep passes priority until the turn reaches the given step.
func passUntilStep(t *testing.T, e *Engine, gameID string, gs *gameState, step rules.Step) {
	t.Helper()
	for i := 0; i < 40; i++ {
		if gs.turns.CurrentStep() == step {
			return
		}
		pass(t, e, gameID)
	}
	t.Fatalf("never reached %s", step)
}

func TestCombat_UnblockedAttackerDamagesPlayer(t *testing.T) {
	e, gs := newTestGame(t, "cmb1", deckOf("Forest", 20), deckOf("Forest", 20))
	bear := putPermanent(t, gs, bearsDef(), "alice", true)

	declareAttack(t, e, "cmb1", map[string]string{bear.ID: "bob"})
	assert.True(t, bear.Tapped, "attacking taps without vigilance")
	assert.Equal(t, "bob", bear.Attacking)

	passUntilStep(t, e, "cmb1", gs, rules.StepCombatDamage)
	assert.Equal(t, 18, gs.players["bob"].Life)
	assert.Equal(t, 20, gs.players["alice"].Life)
}

func TestCombat_BlockedAttackerTradesDamage(t *testing.T) {
	e, gs := newTestGame(t, "cmb2", deckOf("Forest", 20), deckOf("Forest", 20))
	bear := putPermanent(t, gs, bearsDef(), "alice", true)
	fox := putPermanent(t, gs, creatureDef("Sly Fox", 1, 1), "bob", true)

	declareAttack(t, e, "cmb2", map[string]string{bear.ID: "bob"})
	req := passToBlockers(t, e, "cmb2")
	require.Equal(t, "bob", req.PlayerID)
	require.Contains(t, req.Blockers[bear.ID], fox.ID)

	declareBlock(t, e, "cmb2", map[string]string{fox.ID: bear.ID})
	passUntilStep(t, e, "cmb2", gs, rules.StepCombatDamage)

	// The 1/1 dies to two damage; the bear survives with one marked.
	_, foxAlive := gs.store.Find(fox.ID)
	assert.False(t, foxAlive)
	require.Len(t, gs.store.Graveyard("bob"), 1)
	survivor, ok := gs.store.Find(bear.ID)
	require.True(t, ok)
	assert.Equal(t, 1, survivor.Damage)
	assert.Equal(t, 20, gs.players["bob"].Life, "a blocked attacker deals no player damage")
}

func TestCombat_TrampleCarriesOver(t *testing.T) {
	e, gs := newTestGame(t, "cmb3", deckOf("Forest", 20), deckOf("Forest", 20))
	wurm := putPermanent(t, gs, creatureDef("Thrashing Wurm", 4, 4, "trample"), "alice", true)
	fox := putPermanent(t, gs, creatureDef("Sly Fox", 1, 1), "bob", true)

	declareAttack(t, e, "cmb3", map[string]string{wurm.ID: "bob"})
	declareBlock(t, e, "cmb3", map[string]string{fox.ID: wurm.ID})
	passUntilStep(t, e, "cmb3", gs, rules.StepCombatDamage)

	// One lethal point to the blocker, the remaining three trample through.
	_, foxAlive := gs.store.Find(fox.ID)
	assert.False(t, foxAlive)
	assert.Equal(t, 17, gs.players["bob"].Life)
}

func TestCombat_DeathtouchMakesAnyDamageLethal(t *testing.T) {
	e, gs := newTestGame(t, "cmb4", deckOf("Forest", 20), deckOf("Forest", 20))
	asp := putPermanent(t, gs, creatureDef("Moss Asp", 1, 1, "deathtouch"), "alice", true)
	bear := putPermanent(t, gs, bearsDef(), "bob", true)

	declareAttack(t, e, "cmb4", map[string]string{asp.ID: "bob"})
	declareBlock(t, e, "cmb4", map[string]string{bear.ID: asp.ID})
	passUntilStep(t, e, "cmb4", gs, rules.StepCombatDamage)

	// One point of deathtouch damage kills the 2/2; the 1/1 dies to the
	// blocker's two damage in the same exchange.
	_, bearAlive := gs.store.Find(bear.ID)
	assert.False(t, bearAlive)
	_, aspAlive := gs.store.Find(asp.ID)
	assert.False(t, aspAlive)
	require.Len(t, gs.store.Graveyard("alice"), 1)
	require.Len(t, gs.store.Graveyard("bob"), 1)
}

func TestCombat_FirstStrikeKillsBeforeNormalDamage(t *testing.T) {
	e, gs := newTestGame(t, "cmb5", deckOf("Forest", 20), deckOf("Forest", 20))
	fencer := putPermanent(t, gs, creatureDef("Veteran Fencer", 2, 2, "first strike"), "alice", true)
	bear := putPermanent(t, gs, bearsDef(), "bob", true)

	declareAttack(t, e, "cmb5", map[string]string{fencer.ID: "bob"})
	declareBlock(t, e, "cmb5", map[string]string{bear.ID: fencer.ID})

	passUntilStep(t, e, "cmb5", gs, rules.StepFirstStrikeDamage)
	_, bearAlive := gs.store.Find(bear.ID)
	assert.False(t, bearAlive, "first strike damage resolved before the blocker struck back")

	passUntilStep(t, e, "cmb5", gs, rules.StepCombatDamage)
	survivor, ok := gs.store.Find(fencer.ID)
	require.True(t, ok)
	assert.Equal(t, 0, survivor.Damage)
	assert.Equal(t, 20, gs.players["bob"].Life, "the dead blocker still absorbed the attack")
}

func TestCombat_LifelinkGainsLife(t *testing.T) {
	e, gs := newTestGame(t, "cmb6", deckOf("Forest", 20), deckOf("Forest", 20))
	cleric := putPermanent(t, gs, creatureDef("Dawn Cleric", 2, 2, "lifelink"), "alice", true)

	declareAttack(t, e, "cmb6", map[string]string{cleric.ID: "bob"})
	passUntilStep(t, e, "cmb6", gs, rules.StepCombatDamage)

	assert.Equal(t, 18, gs.players["bob"].Life)
	assert.Equal(t, 22, gs.players["alice"].Life)
}

func TestCombat_VigilanceAttacksUntapped(t *testing.T) {
	e, gs := newTestGame(t, "cmb7", deckOf("Forest", 20), deckOf("Forest", 20))
	sentry := putPermanent(t, gs, creatureDef("Tower Sentry", 2, 3, "vigilance"), "alice", true)

	declareAttack(t, e, "cmb7", map[string]string{sentry.ID: "bob"})
	assert.False(t, sentry.Tapped)
}

func TestCombat_SummoningSicknessPreventsAttacking(t *testing.T) {
	e, gs := newTestGame(t, "cmb8", deckOf("Forest", 20), deckOf("Forest", 20))
	putPermanent(t, gs, bearsDef(), "alice", false)

	// With no legal attacker the combat steps are skipped without a
	// declaration decision.
	for i := 0; i < 40; i++ {
		req := mustPending(t, e, "cmb8")
		require.NotEqual(t, DecisionDeclareAttackers, req.Kind)
		if gs.turns.CurrentStep() == rules.StepMain2 {
			return
		}
		pass(t, e, "cmb8")
	}
	t.Fatal("never reached the second main phase")
}

func TestCombat_HasteAttacksImmediately(t *testing.T) {
	e, gs := newTestGame(t, "cmb9", deckOf("Forest", 20), deckOf("Forest", 20))
	raider := putPermanent(t, gs, creatureDef("Ridge Raider", 2, 1, "haste"), "alice", false)

	req := advanceToAttackers(t, e, "cmb9")
	assert.Contains(t, req.Attackers, raider.ID)
}

func TestCombat_FlyingBlockableOnlyByFlyingOrReach(t *testing.T) {
	e, gs := newTestGame(t, "cmb10", deckOf("Forest", 20), deckOf("Forest", 20))
	drake := putPermanent(t, gs, creatureDef("Mist Drake", 2, 2, "flying"), "alice", true)
	putPermanent(t, gs, creatureDef("Sly Fox", 1, 1), "bob", true)
	spider := putPermanent(t, gs, creatureDef("Canopy Spider", 1, 3, "reach"), "bob", true)

	declareAttack(t, e, "cmb10", map[string]string{drake.ID: "bob"})
	req := passToBlockers(t, e, "cmb10")
	require.Equal(t, []string{spider.ID}, req.Blockers[drake.ID])
}
