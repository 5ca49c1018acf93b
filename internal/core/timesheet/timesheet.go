// Package timesheet analyzes logged Toggl entries: per-day totals, working
// days of a month, and recent activity suggestions. All functions are pure.
package timesheet

import (
	"slices"
	"strings"
	"time"

	"github.com/colonyops/tally/internal/toggl"
)

// breakDescription marks injected break entries. They count toward day
// coverage but are excluded from activity suggestions.
const breakDescription = "break"

// DayTotal aggregates one day's logged time.
type DayTotal struct {
	Total    time.Duration
	Billable time.Duration
}

// Day truncates t to midnight in loc, the key used for per-day grouping.
func Day(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// MonthRange returns the inclusive wall-clock bounds of a month in loc:
// first day 00:00:00 through last day 23:59:59.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

// Totals groups entries by day and sums logged durations. Running timers
// are excluded; break entries count, since they are part of the day's
// covered window.
func Totals(entries []toggl.TimeEntry, loc *time.Location) map[time.Time]DayTotal {
	totals := make(map[time.Time]DayTotal)
	for _, e := range entries {
		if e.Running() {
			continue
		}

		day := Day(e.Start, loc)
		dt := totals[day]
		dt.Total += e.Logged()
		if e.Billable {
			dt.Billable += e.Logged()
		}
		totals[day] = dt
	}
	return totals
}

// WorkingDays lists the Monday-to-Friday days of a month, in order.
func WorkingDays(year int, month time.Month, loc *time.Location) []time.Time {
	var days []time.Time
	for d := time.Date(year, month, 1, 0, 0, 0, 0, loc); d.Month() == month; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
	}
	return days
}

// RecentActivities returns unique task descriptions from entries, most
// recent first, skipping breaks and the recurring standup.
func RecentActivities(entries []toggl.TimeEntry) []string {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b toggl.TimeEntry) int {
		return b.Start.Compare(a.Start)
	})

	seen := make(map[string]bool)
	var activities []string
	for _, e := range sorted {
		desc := strings.TrimSpace(e.Description)
		if desc == "" || isBreak(desc) || strings.EqualFold(desc, "daily") {
			continue
		}
		if seen[strings.ToLower(desc)] {
			continue
		}
		seen[strings.ToLower(desc)] = true
		activities = append(activities, desc)
	}
	return activities
}

// EntriesOn filters entries to those starting on the given day.
func EntriesOn(entries []toggl.TimeEntry, day time.Time, loc *time.Location) []toggl.TimeEntry {
	key := Day(day, loc)
	var out []toggl.TimeEntry
	for _, e := range entries {
		if Day(e.Start, loc).Equal(key) {
			out = append(out, e)
		}
	}
	return out
}

// Logged sums the time already covered by entries, breaks included.
func Logged(entries []toggl.TimeEntry) time.Duration {
	var total time.Duration
	for _, e := range entries {
		total += e.Logged()
	}
	return total
}

// Cursor returns where new entries should begin: the end of the latest
// existing entry, or fallback when nothing is logged yet.
func Cursor(entries []toggl.TimeEntry, fallback time.Time) time.Time {
	cursor := fallback
	for _, e := range entries {
		if e.Running() {
			continue
		}
		if end := e.Start.Add(e.Logged()); end.After(cursor) {
			cursor = end
		}
	}
	return cursor
}

// HasDescription reports whether any entry matches desc, ignoring case.
func HasDescription(entries []toggl.TimeEntry, desc string) bool {
	for _, e := range entries {
		if strings.EqualFold(strings.TrimSpace(e.Description), desc) {
			return true
		}
	}
	return false
}

func isBreak(desc string) bool {
	return strings.EqualFold(strings.TrimSpace(desc), breakDescription)
}
