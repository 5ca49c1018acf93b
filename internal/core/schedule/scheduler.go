package schedule

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/colonyops/tally/internal/core/timeutil"
)

// span is a contiguous timeline region not occupied by a fixed event.
type span struct {
	start  time.Time
	length time.Duration
	free   time.Duration
	tasks  []TaskEntry
	breaks int
}

// BuildDay produces the ordered, gap-free timeline for one day.
//
// day anchors the date (its clock component is ignored); fixed events must
// be non-overlapping; tasks are placed in the order given and are never
// split across free spans. prevBreaks is the break count used on the last
// run that injected breaks, or 0 when there is no history. The returned
// Schedule covers exactly cfg.Workday with no gaps and no overlaps.
func BuildDay(day time.Time, fixed []FixedEvent, tasks []TaskEntry, prevBreaks int, cfg Config, rng *rand.Rand) (Schedule, error) {
	if err := validate(fixed, tasks, cfg); err != nil {
		return Schedule{}, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	sorted := slices.Clone(fixed)
	slices.SortFunc(sorted, func(a, b FixedEvent) int {
		return a.Start.Compare(b.Start)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].End.After(sorted[i].Start) {
			return Schedule{}, fmt.Errorf("%w: %q ends %s after %q starts",
				ErrOverlap, sorted[i-1].Title,
				sorted[i-1].End.Format("15:04"), sorted[i].Title)
		}
	}

	// Timeline window: pulled earlier if a fixed event precedes day start.
	begin := cfg.DayStart.On(day)
	if len(sorted) > 0 && sorted[0].Start.Before(begin) {
		begin = sorted[0].Start
	}
	end := begin.Add(cfg.Workday)

	if len(sorted) > 0 {
		if last := sorted[len(sorted)-1]; last.End.After(end) {
			return Schedule{}, fmt.Errorf("%w: event %q ends at %s, beyond the %s window",
				ErrCapacity, last.Title, last.End.Format("15:04"), timeutil.FmtDuration(cfg.Workday))
		}
	}

	spans := buildSpans(begin, end, sorted)

	var totalFree time.Duration
	for _, sp := range spans {
		totalFree += sp.free
	}
	var totalTasks time.Duration
	for _, t := range tasks {
		totalTasks += t.Duration
	}
	if totalTasks > totalFree {
		return Schedule{}, fmt.Errorf("%w: tasks total %s but only %s is free",
			ErrCapacity, timeutil.FmtDuration(totalTasks), timeutil.FmtDuration(totalFree))
	}

	if err := placeTasks(spans, tasks); err != nil {
		return Schedule{}, err
	}

	breakCount := 0
	if NeedsBreaks(len(tasks)) {
		capacity := 0
		for _, sp := range spans {
			capacity += int(sp.free / cfg.BreakLen)
		}
		if capacity < 1 {
			return Schedule{}, fmt.Errorf("%w: no room left for a %s break",
				ErrCapacity, timeutil.FmtDuration(cfg.BreakLen))
		}
		breakCount = chooseBreakCount(prevBreaks, cfg.MaxBreaks, capacity, rng)
		placeBreaks(spans, breakCount, cfg.BreakLen)
	}

	slots := layout(spans, sorted, cfg.BreakLen)
	return Schedule{Slots: slots, BreakCount: breakCount}, nil
}

func validate(fixed []FixedEvent, tasks []TaskEntry, cfg Config) error {
	if cfg.Workday <= 0 {
		return fmt.Errorf("%w: workday duration must be positive, got %s", ErrValidation, cfg.Workday)
	}
	if !cfg.DayStart.Valid() {
		return fmt.Errorf("%w: day start %s is not a valid time of day", ErrValidation, cfg.DayStart)
	}
	if cfg.MaxBreaks < 1 {
		return fmt.Errorf("%w: max breaks must be at least 1, got %d", ErrValidation, cfg.MaxBreaks)
	}
	if cfg.BreakLen <= 0 {
		return fmt.Errorf("%w: break length must be positive, got %s", ErrValidation, cfg.BreakLen)
	}
	for _, t := range tasks {
		if t.Duration <= 0 {
			return fmt.Errorf("%w: task %q has non-positive duration %s", ErrValidation, t.Description, t.Duration)
		}
	}
	for _, ev := range fixed {
		if !ev.Start.Before(ev.End) {
			return fmt.Errorf("%w: event %q has start at or after end", ErrValidation, ev.Title)
		}
	}
	return nil
}

// buildSpans returns the free regions of [begin, end) around the sorted
// fixed events.
func buildSpans(begin, end time.Time, sorted []FixedEvent) []*span {
	var spans []*span
	cursor := begin
	for _, ev := range sorted {
		if ev.Start.After(cursor) {
			length := ev.Start.Sub(cursor)
			spans = append(spans, &span{start: cursor, length: length, free: length})
		}
		cursor = ev.End
	}
	if end.After(cursor) {
		length := end.Sub(cursor)
		spans = append(spans, &span{start: cursor, length: length, free: length})
	}
	return spans
}

// placeTasks assigns tasks to spans first-fit in declared order. A task that
// does not fit the current span moves forward to the next one; it is never
// split, and later tasks never jump back to an earlier span.
func placeTasks(spans []*span, tasks []TaskEntry) error {
	si := 0
	for _, t := range tasks {
		placed := false
		for j := si; j < len(spans); j++ {
			if t.Duration <= spans[j].free {
				spans[j].tasks = append(spans[j].tasks, t)
				spans[j].free -= t.Duration
				si = j
				placed = true
				break
			}
		}
		if !placed {
			return fmt.Errorf("%w: task %q (%s) does not fit any remaining free span",
				ErrCapacity, t.Description, timeutil.FmtDuration(t.Duration))
		}
	}
	return nil
}

// chooseBreakCount picks the day's break count in [1, min(maxBreaks, cap)],
// avoiding prev when any alternative exists so consecutive days differ.
func chooseBreakCount(prev, maxBreaks, capacity int, rng *rand.Rand) int {
	hi := min(maxBreaks, capacity)
	candidates := make([]int, 0, hi)
	for b := 1; b <= hi; b++ {
		if b == prev && hi > 1 {
			continue
		}
		candidates = append(candidates, b)
	}
	if len(candidates) == 0 {
		return prev
	}
	return candidates[rng.Intn(len(candidates))]
}

// placeBreaks distributes count breaks across spans, preferring whichever
// span has the most free time left so breaks spread over the day.
func placeBreaks(spans []*span, count int, breakLen time.Duration) {
	for i := 0; i < count; i++ {
		best := -1
		for j, sp := range spans {
			if sp.free < breakLen {
				continue
			}
			if best == -1 || sp.free > spans[best].free {
				best = j
			}
		}
		if best == -1 {
			return
		}
		spans[best].breaks++
		spans[best].free -= breakLen
	}
}

// layout turns placed spans and fixed events into the final contiguous slot
// sequence. Per-span leftover becomes a fill slot inheriting the nearest
// preceding task so the day has zero unallocated gaps.
func layout(spans []*span, sorted []FixedEvent, breakLen time.Duration) []Slot {
	slots := make([]Slot, 0, len(sorted)+len(spans)*2)
	for _, ev := range sorted {
		slots = append(slots, Slot{
			Start: ev.Start,
			End:   ev.End,
			Label: ev.Title,
			Kind:  KindMeeting,
		})
	}

	var lastTask *TaskEntry
	for _, sp := range spans {
		cursor := sp.start

		// Insertion points for breaks: gap g sits before task g, with gap
		// len(tasks) after the last task. Breaks spread evenly over gaps.
		breaksAtGap := make(map[int]int, sp.breaks)
		for i := 1; i <= sp.breaks; i++ {
			g := i * (len(sp.tasks) + 1) / (sp.breaks + 1)
			breaksAtGap[g]++
		}

		emit := func(s Slot) {
			slots = append(slots, s)
			cursor = s.End
		}

		for g := 0; g <= len(sp.tasks); g++ {
			for i := 0; i < breaksAtGap[g]; i++ {
				emit(Slot{Start: cursor, End: cursor.Add(breakLen), Label: BreakLabel, Kind: KindBreak})
			}
			if g < len(sp.tasks) {
				t := sp.tasks[g]
				emit(Slot{
					Start:     cursor,
					End:       cursor.Add(t.Duration),
					Label:     t.Description,
					Kind:      KindTask,
					ProjectID: t.ProjectID,
					Billable:  t.Billable,
				})
				lastTask = &sp.tasks[g]
			}
		}

		// Trailing leftover becomes the span's gap-fill slot; the span end
		// is exact, so the cumulative day total lands on the workday length.
		if spanEnd := sp.start.Add(sp.length); cursor.Before(spanEnd) {
			fill := Slot{Start: cursor, End: spanEnd, Label: FillLabel, Kind: KindFill}
			if lastTask != nil {
				fill.Label = lastTask.Description
				fill.ProjectID = lastTask.ProjectID
				fill.Billable = lastTask.Billable
			}
			slots = append(slots, fill)
		}
	}

	slices.SortFunc(slots, func(a, b Slot) int {
		return a.Start.Compare(b.Start)
	})
	return slots
}
