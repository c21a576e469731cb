package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func advanceThroughTurn(tm *TurnManager, next string) []Step {
	var steps []Step
	start := tm.TurnNumber()
	for tm.TurnNumber() == start {
		_, step := tm.AdvanceStep(next)
		if tm.TurnNumber() != start {
			steps = append(steps, step)
			break
		}
		steps = append(steps, step)
	}
	return steps
}

func TestTurnManager_BaseSequence(t *testing.T) {
	tm := NewTurnManager("alice")
	require.Equal(t, StepUntap, tm.CurrentStep())
	require.Equal(t, 1, tm.TurnNumber())

	want := []Step{
		StepUpkeep, StepDraw, StepMain1,
		StepBeginCombat, StepDeclareAttackers, StepDeclareBlockers,
		StepCombatDamage, StepEndCombat,
		StepMain2, StepEnd, StepCleanup,
	}
	for _, step := range want {
		_, got := tm.AdvanceStep("bob")
		assert.Equal(t, step, got)
	}

	// Cleanup rolls over into bob's untap.
	_, step := tm.AdvanceStep("bob")
	assert.Equal(t, StepUntap, step)
	assert.Equal(t, 2, tm.TurnNumber())
	assert.Equal(t, "bob", tm.ActivePlayer())
}

func TestTurnManager_FirstStrikeStepInsertion(t *testing.T) {
	tm := NewTurnManager("alice")
	for tm.CurrentStep() != StepDeclareBlockers {
		tm.AdvanceStep("bob")
	}
	tm.SetHasFirstStrike(true)

	_, step := tm.AdvanceStep("bob")
	assert.Equal(t, StepFirstStrikeDamage, step)
	_, step = tm.AdvanceStep("bob")
	assert.Equal(t, StepCombatDamage, step)

	// The inserted step does not persist into the next turn.
	for tm.TurnNumber() == 1 {
		tm.AdvanceStep("bob")
	}
	found := false
	for tm.TurnNumber() == 2 {
		_, step := tm.AdvanceStep("alice")
		if step == StepFirstStrikeDamage {
			found = true
		}
		if step == StepCleanup {
			break
		}
	}
	assert.False(t, found)
}

func TestTurnManager_SkipStep(t *testing.T) {
	tm := NewTurnManager("alice")
	tm.SkipStep(StepDraw)

	_, step := tm.AdvanceStep("bob")
	assert.Equal(t, StepUpkeep, step)
	_, step = tm.AdvanceStep("bob")
	assert.Equal(t, StepMain1, step, "draw step is skipped")

	// Skips expire with the turn.
	for tm.TurnNumber() == 1 {
		tm.AdvanceStep("bob")
	}
	steps := advanceThroughTurn(tm, "alice")
	assert.Contains(t, steps, StepDraw)
}

func TestTurnManager_SkipPhase(t *testing.T) {
	tm := NewTurnManager("alice")
	tm.SkipPhase(PhaseCombat)

	var seen []Step
	for tm.TurnNumber() == 1 {
		_, step := tm.AdvanceStep("bob")
		if tm.TurnNumber() != 1 {
			break
		}
		seen = append(seen, step)
	}
	assert.NotContains(t, seen, StepDeclareAttackers)
	assert.NotContains(t, seen, StepCombatDamage)
	assert.Contains(t, seen, StepMain2)
}

func TestTurnManager_ExtraTurnsLIFO(t *testing.T) {
	tm := NewTurnManager("alice")
	tm.AddExtraTurn("alice", "spell-1")
	tm.AddExtraTurn("bob", "spell-2")
	require.Equal(t, 2, tm.PendingExtraTurns())

	// The most recently created extra turn is taken first.
	for tm.TurnNumber() == 1 {
		tm.AdvanceStep("bob")
	}
	assert.Equal(t, "bob", tm.ActivePlayer())

	for tm.TurnNumber() == 2 {
		tm.AdvanceStep("bob")
	}
	assert.Equal(t, "alice", tm.ActivePlayer())
	assert.Equal(t, 0, tm.PendingExtraTurns())

	// Normal rotation resumes afterwards.
	for tm.TurnNumber() == 3 {
		tm.AdvanceStep("bob")
	}
	assert.Equal(t, "bob", tm.ActivePlayer())
}

func TestTurnManager_ExtraStep(t *testing.T) {
	tm := NewTurnManager("alice")
	tm.AdvanceStep("bob") // upkeep
	tm.AddExtraStep(PhaseBeginning, StepUpkeep)

	_, step := tm.AdvanceStep("bob")
	assert.Equal(t, StepUpkeep, step)
	assert.True(t, tm.InExtraStep())

	_, step = tm.AdvanceStep("bob")
	assert.Equal(t, StepDraw, step)
	assert.False(t, tm.InExtraStep())
}
