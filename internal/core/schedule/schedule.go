// Package schedule builds a single contiguous workday timeline from fixed
// calendar events and user-declared tasks, injecting short break slots so
// daily totals do not look machine-generated. It is pure: no I/O, no clock
// access, and randomness comes in through an explicit source.
package schedule

import (
	"time"

	"github.com/colonyops/tally/internal/core/timeutil"
)

// Kind classifies a slot in the produced timeline.
type Kind string

// Slot kinds.
const (
	KindMeeting Kind = "meeting"
	KindTask    Kind = "task"
	KindBreak   Kind = "break"
	KindFill    Kind = "fill"
)

// BreakLabel is the description used for injected break slots.
const BreakLabel = "Break"

// FillLabel is the fallback description for gap-fill slots with no
// preceding task to inherit from.
const FillLabel = "Untracked"

// breakTaskThreshold is the task count below which breaks are injected.
// Days with few declared tasks read as having more slack, so they get
// break entries; busy days do not.
const breakTaskThreshold = 3

// NeedsBreaks reports whether a day with the given task count will have
// break slots injected. Callers use it to keep room free for at least one
// break when sizing tasks.
func NeedsBreaks(taskCount int) bool {
	return taskCount < breakTaskThreshold
}

// FixedEvent is a calendar meeting already anchored in time. Events are
// read-only inputs and must not overlap each other.
type FixedEvent struct {
	Start time.Time
	End   time.Time
	Title string
}

// TaskEntry is a user-declared unit of work without a fixed time.
type TaskEntry struct {
	Description string
	Duration    time.Duration
	ProjectID   int64
	Billable    bool
}

// Slot is one unit of the final timeline.
type Slot struct {
	Start     time.Time
	End       time.Time
	Label     string
	Kind      Kind
	ProjectID int64
	Billable  bool
}

// Duration returns the slot's length.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Config holds the scheduling parameters for one day.
type Config struct {
	// Workday is the exact total duration the timeline must cover.
	Workday time.Duration
	// DayStart is the earliest clock time a slot may start. The window is
	// pulled earlier if a fixed event begins before it.
	DayStart timeutil.Clock
	// MaxBreaks bounds the number of injected break slots (>= 1).
	MaxBreaks int
	// BreakLen is the fixed duration of each injected break.
	BreakLen time.Duration
}

// Schedule is the result of building one day.
type Schedule struct {
	// Slots is ordered by start time, contiguous, and covers exactly
	// Config.Workday.
	Slots []Slot
	// BreakCount is the number of break slots injected, or 0 when the
	// break policy did not trigger. The caller persists non-zero values
	// as variation state for the next run.
	BreakCount int
}

// Start returns the beginning of the timeline.
func (s Schedule) Start() time.Time {
	if len(s.Slots) == 0 {
		return time.Time{}
	}
	return s.Slots[0].Start
}

// End returns the end of the timeline.
func (s Schedule) End() time.Time {
	if len(s.Slots) == 0 {
		return time.Time{}
	}
	return s.Slots[len(s.Slots)-1].End
}
