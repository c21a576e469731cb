// Package gameerr defines the error taxonomy shared by every engine
// subsystem. Player-facing errors are rejected synchronously with a reason
// code and never mutate game state; an invariant violation is fatal for the
// game instance it was detected in.
package gameerr

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalAction is returned when an attempted action is not legal in
	// the current state. The same player is re-prompted, nothing changes.
	ErrIllegalAction = errors.New("illegal action")

	// ErrInvalidTarget is returned when a declared target does not satisfy
	// its requirement. At resolution time an invalid target causes a partial
	// or total fizzle instead.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrInsufficientCost is returned when a cost cannot be paid in full.
	// Cost payment is all-or-nothing; the action is rolled back atomically.
	ErrInsufficientCost = errors.New("insufficient cost")

	// ErrRuleConflict is returned when two effects produce contradictory
	// instructions and the configured precedence table cannot order them.
	ErrRuleConflict = errors.New("rule conflict")

	// ErrInternalInvariant indicates an engine bug (e.g. an object found in
	// two zones). It aborts the game instance and is never recovered from.
	ErrInternalInvariant = errors.New("internal invariant violation")
)

// Rejection wraps one of the sentinel errors with a stable reason code and a
// human-readable detail so the hosting server can relay it to the client.
type Rejection struct {
	Err    error
	Code   string
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("%v (%s)", r.Err, r.Code)
	}
	return fmt.Sprintf("%v (%s): %s", r.Err, r.Code, r.Detail)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// IllegalAction builds a rejection for an action that is not legal right now.
func IllegalAction(code, format string, args ...any) error {
	return &Rejection{Err: ErrIllegalAction, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// InvalidTarget builds a rejection for a target failing its requirement at
// declaration time.
func InvalidTarget(code, format string, args ...any) error {
	return &Rejection{Err: ErrInvalidTarget, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// InsufficientCost builds a rejection for an unpayable cost component.
func InsufficientCost(code, format string, args ...any) error {
	return &Rejection{Err: ErrInsufficientCost, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// RuleConflict builds an error for contradictory effect instructions.
func RuleConflict(code, format string, args ...any) error {
	return &Rejection{Err: ErrRuleConflict, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Invariant builds the fatal invariant violation error.
func Invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternalInvariant, fmt.Sprintf(format, args...))
}

// IsFatal reports whether err must abort the game instance.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInternalInvariant)
}
