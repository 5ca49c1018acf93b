// Package timeutil provides clock-time and duration parsing shared by the
// scheduler and the CLI commands.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a time-of-day without a date, e.g. 09:15.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a "HH:MM" string into a Clock.
func ParseClock(s string) (Clock, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("invalid clock time %q: expected HH:MM", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}

	c := Clock{Hour: h, Minute: m}
	if !c.Valid() {
		return Clock{}, fmt.Errorf("invalid clock time %q: out of range", s)
	}
	return c, nil
}

// ClockOf extracts the time-of-day from a timestamp.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// Valid reports whether the clock is a real time of day.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

// On anchors the clock time to the date of day, preserving day's location.
func (c Clock) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// String returns the clock in HH:MM form.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseHours parses a user-entered amount of hours. Both "1:30" (H:MM) and
// "1.5" (decimal hours) forms are accepted.
func ParseHours(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if h, mm, ok := strings.Cut(s, ":"); ok {
		hours, err := strconv.Atoi(h)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		mins, err := strconv.Atoi(mm)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if hours < 0 || mins < 0 || mins > 59 {
			return 0, fmt.Errorf("invalid duration %q: out of range", s)
		}
		return time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute, nil
	}

	hours, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if hours < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative", s)
	}
	return time.Duration(hours * float64(time.Hour)).Round(time.Minute), nil
}

// FmtDuration renders a duration compactly, e.g. "7h 30m", "8h", "45m".
func FmtDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}
