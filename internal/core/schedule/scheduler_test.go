package schedule

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tally/internal/core/timeutil"
)

var testDay = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Workday:   8 * time.Hour,
		DayStart:  timeutil.Clock{Hour: 9, Minute: 15},
		MaxBreaks: 4,
		BreakLen:  15 * time.Minute,
	}
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func at(hour, minute int) time.Time {
	return time.Date(2026, time.March, 2, hour, minute, 0, 0, time.UTC)
}

// assertContiguous verifies the core invariant: slots tile [wantStart,
// wantEnd] with zero gaps and zero overlaps.
func assertContiguous(t *testing.T, sch Schedule, wantStart, wantEnd time.Time) {
	t.Helper()
	require.NotEmpty(t, sch.Slots)

	assert.True(t, sch.Start().Equal(wantStart), "first slot starts at %s, want %s", sch.Start(), wantStart)
	assert.True(t, sch.End().Equal(wantEnd), "last slot ends at %s, want %s", sch.End(), wantEnd)

	for i := 1; i < len(sch.Slots); i++ {
		prev, cur := sch.Slots[i-1], sch.Slots[i]
		assert.True(t, prev.End.Equal(cur.Start),
			"slot %d ends at %s but slot %d starts at %s", i-1, prev.End, i, cur.Start)
	}
}

func countKind(sch Schedule, kind Kind) int {
	n := 0
	for _, s := range sch.Slots {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

func TestBuildDay_SingleTaskWithBreaks(t *testing.T) {
	tasks := []TaskEntry{{Description: "Writing", Duration: 3 * time.Hour, Billable: true}}

	sch, err := BuildDay(testDay, nil, tasks, 2, testConfig(), testRNG())
	require.NoError(t, err)

	assertContiguous(t, sch, at(9, 15), at(17, 15))

	var taskSlots []Slot
	for _, s := range sch.Slots {
		if s.Kind == KindTask {
			taskSlots = append(taskSlots, s)
		}
	}
	require.Len(t, taskSlots, 1)
	assert.Equal(t, "Writing", taskSlots[0].Label)
	assert.Equal(t, 3*time.Hour, taskSlots[0].Duration())

	// Previous run used 2 breaks, so today must not.
	assert.Contains(t, []int{1, 3, 4}, sch.BreakCount)
	assert.Equal(t, sch.BreakCount, countKind(sch, KindBreak))
}

func TestBuildDay_FixedEventPlacement(t *testing.T) {
	fixed := []FixedEvent{{Start: at(11, 0), End: at(12, 0), Title: "Standup"}}
	tasks := []TaskEntry{
		{Description: "Review", Duration: 105 * time.Minute},
		{Description: "Coding", Duration: 2 * time.Hour},
		{Description: "Docs", Duration: 195 * time.Minute},
	}

	sch, err := BuildDay(testDay, fixed, tasks, 0, testConfig(), testRNG())
	require.NoError(t, err)

	assertContiguous(t, sch, at(9, 15), at(17, 15))

	// Three tasks suppress break injection entirely.
	assert.Zero(t, sch.BreakCount)
	assert.Zero(t, countKind(sch, KindBreak))

	require.Len(t, sch.Slots, 4)
	standup := sch.Slots[1]
	assert.Equal(t, KindMeeting, standup.Kind)
	assert.True(t, standup.Start.Equal(at(11, 0)))
	assert.True(t, standup.End.Equal(at(12, 0)))
}

func TestBuildDay_TaskExceedsWorkday(t *testing.T) {
	tasks := []TaskEntry{{Description: "Marathon", Duration: 9 * time.Hour}}

	sch, err := BuildDay(testDay, nil, tasks, 0, testConfig(), testRNG())
	require.ErrorIs(t, err, ErrCapacity)
	assert.Empty(t, sch.Slots)
}

func TestBuildDay_MaxBreaksOneRepeatsPrevious(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBreaks = 1

	sch, err := BuildDay(testDay, nil, nil, 1, cfg, testRNG())
	require.NoError(t, err)
	assert.Equal(t, 1, sch.BreakCount)
}

func TestBuildDay_BreakCountNeverRepeatsPrevious(t *testing.T) {
	tasks := []TaskEntry{{Description: "Writing", Duration: 3 * time.Hour}}

	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		sch, err := BuildDay(testDay, nil, tasks, 2, testConfig(), rng)
		require.NoError(t, err)
		assert.NotEqual(t, 2, sch.BreakCount, "seed %d repeated the previous break count", seed)
		assert.GreaterOrEqual(t, sch.BreakCount, 1)
		assert.LessOrEqual(t, sch.BreakCount, 4)
	}
}

func TestBuildDay_OverlappingEventsRejected(t *testing.T) {
	fixed := []FixedEvent{
		{Start: at(10, 0), End: at(11, 0), Title: "Planning"},
		{Start: at(10, 30), End: at(11, 30), Title: "1:1"},
	}

	_, err := BuildDay(testDay, fixed, nil, 0, testConfig(), testRNG())
	require.ErrorIs(t, err, ErrOverlap)
	assert.Contains(t, err.Error(), "Planning")
}

func TestBuildDay_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config, *[]FixedEvent, *[]TaskEntry)
	}{
		{
			name:   "zero workday",
			mutate: func(cfg *Config, _ *[]FixedEvent, _ *[]TaskEntry) { cfg.Workday = 0 },
		},
		{
			name:   "invalid day start",
			mutate: func(cfg *Config, _ *[]FixedEvent, _ *[]TaskEntry) { cfg.DayStart = timeutil.Clock{Hour: 25} },
		},
		{
			name:   "max breaks below one",
			mutate: func(cfg *Config, _ *[]FixedEvent, _ *[]TaskEntry) { cfg.MaxBreaks = 0 },
		},
		{
			name: "non-positive task duration",
			mutate: func(_ *Config, _ *[]FixedEvent, tasks *[]TaskEntry) {
				*tasks = append(*tasks, TaskEntry{Description: "Nothing", Duration: 0})
			},
		},
		{
			name: "event start after end",
			mutate: func(_ *Config, fixed *[]FixedEvent, _ *[]TaskEntry) {
				*fixed = append(*fixed, FixedEvent{Start: at(12, 0), End: at(11, 0), Title: "Backwards"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			var fixed []FixedEvent
			var tasks []TaskEntry
			tt.mutate(&cfg, &fixed, &tasks)

			_, err := BuildDay(testDay, fixed, tasks, 0, cfg, testRNG())
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestBuildDay_TaskMovesToNextSpan(t *testing.T) {
	fixed := []FixedEvent{{Start: at(10, 0), End: at(10, 30), Title: "Sync"}}
	tasks := []TaskEntry{
		{Description: "Refactor", Duration: time.Hour},     // 45m before Sync is too small
		{Description: "Email", Duration: 30 * time.Minute}, // would fit earlier, but order is preserved
		{Description: "Support", Duration: time.Hour},
	}

	sch, err := BuildDay(testDay, fixed, tasks, 0, testConfig(), testRNG())
	require.NoError(t, err)
	assertContiguous(t, sch, at(9, 15), at(17, 15))

	var order []string
	for _, s := range sch.Slots {
		if s.Kind == KindTask {
			order = append(order, s.Label)
			assert.True(t, s.Start.After(at(10, 29)), "task %q placed before the meeting", s.Label)
		}
	}
	assert.Equal(t, []string{"Refactor", "Email", "Support"}, order)

	// The 45m span before the meeting is pure gap-fill.
	first := sch.Slots[0]
	assert.Equal(t, KindFill, first.Kind)
	assert.Equal(t, 45*time.Minute, first.Duration())
}

func TestBuildDay_ExactFitLeavesNoFill(t *testing.T) {
	tasks := []TaskEntry{
		{Description: "Design", Duration: 3 * time.Hour},
		{Description: "Build", Duration: 3 * time.Hour},
		{Description: "Test", Duration: 2 * time.Hour},
	}

	sch, err := BuildDay(testDay, nil, tasks, 0, testConfig(), testRNG())
	require.NoError(t, err)
	assertContiguous(t, sch, at(9, 15), at(17, 15))

	assert.Zero(t, countKind(sch, KindFill))
	assert.Len(t, sch.Slots, 3)
}

func TestBuildDay_EmptyDayBecomesBreaksAndFill(t *testing.T) {
	sch, err := BuildDay(testDay, nil, nil, 0, testConfig(), testRNG())
	require.NoError(t, err)
	assertContiguous(t, sch, at(9, 15), at(17, 15))

	require.GreaterOrEqual(t, sch.BreakCount, 1)
	assert.Equal(t, sch.BreakCount, countKind(sch, KindBreak))
	for _, s := range sch.Slots {
		assert.Contains(t, []Kind{KindBreak, KindFill}, s.Kind)
	}
}

func TestBuildDay_EarlyEventPullsWindowForward(t *testing.T) {
	fixed := []FixedEvent{{Start: at(8, 0), End: at(9, 0), Title: "Incident call"}}

	sch, err := BuildDay(testDay, fixed, nil, 0, testConfig(), testRNG())
	require.NoError(t, err)

	// Window anchors to the earlier event: 08:00 + 8h.
	assertContiguous(t, sch, at(8, 0), at(16, 0))
	assert.Equal(t, KindMeeting, sch.Slots[0].Kind)
}

func TestBuildDay_FillInheritsPrecedingTask(t *testing.T) {
	tasks := []TaskEntry{{Description: "Writing", Duration: 3 * time.Hour, ProjectID: 7, Billable: true}}

	sch, err := BuildDay(testDay, nil, tasks, 0, testConfig(), testRNG())
	require.NoError(t, err)

	last := sch.Slots[len(sch.Slots)-1]
	require.Equal(t, KindFill, last.Kind)
	assert.Equal(t, "Writing", last.Label)
	assert.Equal(t, int64(7), last.ProjectID)
	assert.True(t, last.Billable)
}

func TestChooseBreakCount(t *testing.T) {
	tests := []struct {
		name      string
		prev      int
		maxBreaks int
		capacity  int
		want      []int
	}{
		{name: "no history", prev: 0, maxBreaks: 3, capacity: 10, want: []int{1, 2, 3}},
		{name: "avoids previous", prev: 2, maxBreaks: 3, capacity: 10, want: []int{1, 3}},
		{name: "capacity caps range", prev: 0, maxBreaks: 5, capacity: 2, want: []int{1, 2}},
		{name: "single legal value", prev: 1, maxBreaks: 1, capacity: 10, want: []int{1}},
		{name: "capacity forces repeat", prev: 1, maxBreaks: 4, capacity: 1, want: []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := int64(0); seed < 20; seed++ {
				got := chooseBreakCount(tt.prev, tt.maxBreaks, tt.capacity, rand.New(rand.NewSource(seed)))
				assert.Contains(t, tt.want, got)
			}
		})
	}
}
