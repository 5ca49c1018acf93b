package schedule

import "errors"

// Sentinel errors returned by BuildDay. Callers match with errors.Is; the
// wrapped message names the offending input and constraint.
var (
	// ErrValidation indicates malformed input: non-positive durations,
	// an invalid time of day, or max breaks below one.
	ErrValidation = errors.New("invalid schedule input")

	// ErrOverlap indicates overlapping fixed events, which the scheduler
	// treats as a precondition violation rather than resolving.
	ErrOverlap = errors.New("fixed events overlap")

	// ErrCapacity indicates the requested work cannot fit the configured
	// workday. The scheduler never truncates or drops a task to make
	// things fit.
	ErrCapacity = errors.New("workday capacity exceeded")
)
