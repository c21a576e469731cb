package rules

import (
	"fmt"
)

// PriorityTracker implements the priority pass loop. Players receive priority
// in turn order starting from the active player; when every player passes in
// succession without taking an action, the top of the stack resolves (or the
// step ends if the stack is empty).
type PriorityTracker struct {
	order      []string // seating order, fixed for the game
	holder     int      // index into order of the player with priority
	passStreak int      // consecutive passes since the last action
}

// NewPriorityTracker creates a tracker over the given seating order.
func NewPriorityTracker(order []string) (*PriorityTracker, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("priority tracker requires at least one player")
	}
	cpy := make([]string, len(order))
	copy(cpy, order)
	return &PriorityTracker{order: cpy}, nil
}

// Holder returns the player who currently has priority.
func (pt *PriorityTracker) Holder() string {
	return pt.order[pt.holder]
}

// Order returns the seating order.
func (pt *PriorityTracker) Order() []string {
	cpy := make([]string, len(pt.order))
	copy(cpy, pt.order)
	return cpy
}

// Grant gives priority to the named player and clears the pass streak.
// Called when a step begins or after a stack item resolves: priority goes to
// the active player.
func (pt *PriorityTracker) Grant(player string) error {
	idx := pt.indexOf(player)
	if idx < 0 {
		return fmt.Errorf("unknown player %q", player)
	}
	pt.holder = idx
	pt.passStreak = 0
	return nil
}

// ActionTaken records that the priority holder took an action instead of
// passing. The holder retains priority and the pass streak resets.
func (pt *PriorityTracker) ActionTaken() {
	pt.passStreak = 0
}

// Pass records a pass by the current holder and moves priority to the next
// player in turn order. It returns true when every player has now passed in
// succession, meaning the round of priority is complete.
func (pt *PriorityTracker) Pass() bool {
	pt.passStreak++
	if pt.passStreak >= len(pt.order) {
		return true
	}
	pt.holder = (pt.holder + 1) % len(pt.order)
	return false
}

// Remove drops a player from the seating order, for concession. If the
// removed player held priority it moves to the next remaining player.
func (pt *PriorityTracker) Remove(player string) {
	idx := pt.indexOf(player)
	if idx < 0 {
		return
	}
	pt.order = append(pt.order[:idx], pt.order[idx+1:]...)
	if len(pt.order) == 0 {
		pt.holder = 0
		return
	}
	if pt.holder >= len(pt.order) {
		pt.holder = 0
	} else if idx < pt.holder {
		pt.holder--
	}
	pt.passStreak = 0
}

// APNAPOrder returns the players in active-player, non-active-player order:
// the given player first, then the rest in seating order. Used to order
// simultaneous decisions such as trigger stacking.
func (pt *PriorityTracker) APNAPOrder(activePlayer string) []string {
	start := pt.indexOf(activePlayer)
	if start < 0 {
		start = 0
	}
	ordered := make([]string, 0, len(pt.order))
	for i := 0; i < len(pt.order); i++ {
		ordered = append(ordered, pt.order[(start+i)%len(pt.order)])
	}
	return ordered
}

// NextInOrder returns the player seated after the given player.
func (pt *PriorityTracker) NextInOrder(player string) string {
	idx := pt.indexOf(player)
	if idx < 0 || len(pt.order) == 0 {
		return ""
	}
	return pt.order[(idx+1)%len(pt.order)]
}

func (pt *PriorityTracker) indexOf(player string) int {
	for i, p := range pt.order {
		if p == player {
			return i
		}
	}
	return -1
}
