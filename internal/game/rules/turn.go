package rules

import (
	"fmt"
	"strings"
)

// Phase represents the broad phases of a turn.
type Phase int

const (
	PhaseBeginning Phase = iota
	PhasePrecombatMain
	PhaseCombat
	PhasePostcombatMain
	PhaseEnding
)

var phaseNames = map[Phase]string{
	PhaseBeginning:      "BEGINNING",
	PhasePrecombatMain:  "PRECOMBAT_MAIN",
	PhaseCombat:         "COMBAT",
	PhasePostcombatMain: "POSTCOMBAT_MAIN",
	PhaseEnding:         "ENDING",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// Step represents the individual steps that comprise a turn.
type Step int

const (
	StepUntap Step = iota
	StepUpkeep
	StepDraw
	StepMain1
	StepBeginCombat
	StepDeclareAttackers
	StepDeclareBlockers
	StepFirstStrikeDamage
	StepCombatDamage
	StepEndCombat
	StepMain2
	StepEnd
	StepCleanup
)

var stepNames = map[Step]string{
	StepUntap:             "UNTAP",
	StepUpkeep:            "UPKEEP",
	StepDraw:              "DRAW",
	StepMain1:             "MAIN1",
	StepBeginCombat:       "BEGIN_COMBAT",
	StepDeclareAttackers:  "DECLARE_ATTACKERS",
	StepDeclareBlockers:   "DECLARE_BLOCKERS",
	StepFirstStrikeDamage: "FIRST_STRIKE_DAMAGE",
	StepCombatDamage:      "COMBAT_DAMAGE",
	StepEndCombat:         "END_COMBAT",
	StepMain2:             "MAIN2",
	StepEnd:               "END",
	StepCleanup:           "CLEANUP",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STEP_%d", int(s))
}

// GrantsPriority reports whether players receive priority during this step.
// Untap and cleanup normally pass without priority.
func (s Step) GrantsPriority() bool {
	return s != StepUntap && s != StepCleanup
}

// IsMainPhase reports whether the step is a main phase step, where sorceries
// and permanents may be cast with an empty stack.
func (s Step) IsMainPhase() bool {
	return s == StepMain1 || s == StepMain2
}

type turnEntry struct {
	phase Phase
	step  Step
}

var baseTurnSequence = []turnEntry{
	{PhaseBeginning, StepUntap},
	{PhaseBeginning, StepUpkeep},
	{PhaseBeginning, StepDraw},
	{PhasePrecombatMain, StepMain1},
	{PhaseCombat, StepBeginCombat},
	{PhaseCombat, StepDeclareAttackers},
	{PhaseCombat, StepDeclareBlockers},
	{PhaseCombat, StepCombatDamage},
	{PhaseCombat, StepEndCombat},
	{PhasePostcombatMain, StepMain2},
	{PhaseEnding, StepEnd},
	{PhaseEnding, StepCleanup},
}

func buildTurnSequence(hasFirstStrike bool) []turnEntry {
	sequence := make([]turnEntry, len(baseTurnSequence))
	copy(sequence, baseTurnSequence)
	if !hasFirstStrike {
		return sequence
	}

	damageIdx := -1
	for i, entry := range sequence {
		if entry.step == StepCombatDamage {
			damageIdx = i
			break
		}
	}
	if damageIdx == -1 {
		return sequence
	}

	withFirstStrike := make([]turnEntry, len(sequence)+1)
	copy(withFirstStrike, sequence[:damageIdx])
	withFirstStrike[damageIdx] = turnEntry{PhaseCombat, StepFirstStrikeDamage}
	copy(withFirstStrike[damageIdx+1:], sequence[damageIdx:])
	return withFirstStrike
}

// pendingTurn is an extra turn waiting to be taken. Extra turns are taken in
// LIFO order: the most recently created extra turn happens first.
type pendingTurn struct {
	player   string
	sourceID string
}

// TurnManager tracks the active player and turn progression, including extra
// turns, extra steps and skipped phases created by effects.
type TurnManager struct {
	orderIndex     int
	turnNumber     int
	activePlayer   string
	sequence       []turnEntry
	hasFirstStrike bool

	extraTurns  []pendingTurn
	extraSteps  []turnEntry // taken before advancing the base sequence, FIFO
	skipPhases  map[Phase]bool
	skipSteps   map[Step]bool
	inExtraStep bool
}

// NewTurnManager creates a turn manager positioned at turn 1, untap step.
func NewTurnManager(activePlayer string) *TurnManager {
	return &TurnManager{
		orderIndex:   0,
		turnNumber:   1,
		activePlayer: strings.TrimSpace(activePlayer),
		sequence:     buildTurnSequence(false),
		skipPhases:   make(map[Phase]bool),
		skipSteps:    make(map[Step]bool),
	}
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	return tm.sequence[tm.orderIndex].phase
}

// CurrentStep returns the step currently in progress.
func (tm *TurnManager) CurrentStep() Step {
	return tm.sequence[tm.orderIndex].step
}

// TurnNumber returns the current turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// ActivePlayer returns the player whose turn it is.
func (tm *TurnManager) ActivePlayer() string {
	return tm.activePlayer
}

// AddExtraTurn queues an extra turn for the given player. Queued extra turns
// are taken before normal turn rotation, most recent first.
func (tm *TurnManager) AddExtraTurn(player, sourceID string) {
	tm.extraTurns = append(tm.extraTurns, pendingTurn{
		player:   strings.TrimSpace(player),
		sourceID: sourceID,
	})
}

// AddExtraStep queues an extra copy of the given step to occur after the
// current step ends.
func (tm *TurnManager) AddExtraStep(phase Phase, step Step) {
	tm.extraSteps = append(tm.extraSteps, turnEntry{phase, step})
}

// SkipPhase marks a phase to be skipped for the remainder of the current turn.
func (tm *TurnManager) SkipPhase(phase Phase) {
	tm.skipPhases[phase] = true
}

// SkipStep marks a step to be skipped for the remainder of the current turn.
func (tm *TurnManager) SkipStep(step Step) {
	tm.skipSteps[step] = true
}

// PendingExtraTurns returns how many extra turns are queued.
func (tm *TurnManager) PendingExtraTurns() int {
	return len(tm.extraTurns)
}

// InExtraStep reports whether the current step is an inserted extra step.
func (tm *TurnManager) InExtraStep() bool {
	return tm.inExtraStep
}

// AdvanceStep advances to the next step. Queued extra steps are taken first;
// skipped phases and steps are passed over. When the turn ends, any queued
// extra turn (most recent first) takes precedence over nextActivePlayer.
func (tm *TurnManager) AdvanceStep(nextActivePlayer string) (Phase, Step) {
	if len(tm.extraSteps) > 0 {
		entry := tm.extraSteps[0]
		tm.extraSteps = tm.extraSteps[1:]
		// Splice the extra step in directly after the current position.
		extended := make([]turnEntry, 0, len(tm.sequence)+1)
		extended = append(extended, tm.sequence[:tm.orderIndex+1]...)
		extended = append(extended, entry)
		extended = append(extended, tm.sequence[tm.orderIndex+1:]...)
		tm.sequence = extended
		tm.orderIndex++
		tm.inExtraStep = true
		return tm.CurrentPhase(), tm.CurrentStep()
	}
	tm.inExtraStep = false

	for {
		tm.orderIndex++
		if tm.orderIndex >= len(tm.sequence) {
			tm.beginNextTurn(nextActivePlayer)
		}
		entry := tm.sequence[tm.orderIndex]
		if tm.skipPhases[entry.phase] || tm.skipSteps[entry.step] {
			continue
		}
		return entry.phase, entry.step
	}
}

func (tm *TurnManager) beginNextTurn(nextActivePlayer string) {
	tm.orderIndex = 0
	tm.turnNumber++
	if n := len(tm.extraTurns); n > 0 {
		extra := tm.extraTurns[n-1]
		tm.extraTurns = tm.extraTurns[:n-1]
		tm.activePlayer = extra.player
	} else if next := strings.TrimSpace(nextActivePlayer); next != "" {
		tm.activePlayer = next
	}
	tm.sequence = buildTurnSequence(false)
	tm.hasFirstStrike = false
	tm.skipPhases = make(map[Phase]bool)
	tm.skipSteps = make(map[Step]bool)
}

// SetHasFirstStrike rebuilds the turn sequence to include or exclude the
// first strike combat damage step. Called when attackers or blockers with
// first strike or double strike are declared.
func (tm *TurnManager) SetHasFirstStrike(hasFirstStrike bool) {
	if tm.hasFirstStrike == hasFirstStrike {
		return
	}
	newSequence := buildTurnSequence(hasFirstStrike)
	if tm.hasFirstStrike && !hasFirstStrike && tm.orderIndex >= len(newSequence) {
		tm.orderIndex = len(newSequence) - 1
	}
	tm.sequence = newSequence
	tm.hasFirstStrike = hasFirstStrike
}
