// Package calendar provides fixed meeting events for a day from an ICS
// feed. All-day events and events the configured attendee declined are
// filtered out, so the scheduler only ever sees real time blocks.
package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog/log"
	"github.com/teambition/rrule-go"

	"github.com/colonyops/tally/internal/core/schedule"
)

// Source fetches and filters calendar events from a single ICS feed.
type Source struct {
	client   *http.Client
	feedURL  string
	attendee string
	loc      *time.Location
}

// NewSource creates a calendar source. An empty feedURL yields a source
// that returns no events, keeping calendar integration optional. attendee
// is the email whose declined invitations are dropped.
func NewSource(feedURL, attendee string, loc *time.Location) *Source {
	return &Source{
		client:   &http.Client{Timeout: 15 * time.Second},
		feedURL:  feedURL,
		attendee: strings.ToLower(strings.TrimSpace(attendee)),
		loc:      loc,
	}
}

// EventsOn returns the day's meetings as fixed events, sorted by start.
func (s *Source) EventsOn(ctx context.Context, day time.Time) ([]schedule.FixedEvent, error) {
	if s.feedURL == "" {
		return nil, nil
	}

	body, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	events, err := s.eventsFromICS(body, day)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("count", len(events)).Str("day", day.Format("2006-01-02")).Msg("calendar events loaded")
	return events, nil
}

func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build calendar request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch calendar feed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read calendar feed: %w", err)
	}
	return body, nil
}

// eventsFromICS parses the feed and expands events intersecting day.
func (s *Source) eventsFromICS(body []byte, day time.Time) ([]schedule.FixedEvent, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar feed: %w", err)
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var events []schedule.FixedEvent
	for _, ve := range cal.Events() {
		if isAllDay(ve) || s.declined(ve) {
			continue
		}

		start, err := ve.GetStartAt()
		if err != nil {
			continue
		}
		end, err := ve.GetEndAt()
		if err != nil || !start.Before(end) {
			continue
		}

		title := "Meeting"
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
			title = p.Value
		}

		for _, occ := range occurrences(ve, start, end, dayStart, dayEnd) {
			events = append(events, schedule.FixedEvent{
				Start: occ.In(s.loc),
				End:   occ.Add(end.Sub(start)).In(s.loc),
				Title: title,
			})
		}
	}

	slices.SortFunc(events, func(a, b schedule.FixedEvent) int {
		return a.Start.Compare(b.Start)
	})
	return events, nil
}

// occurrences returns the event start times falling inside [rangeStart,
// rangeEnd), expanding RRULE recurrences when present.
func occurrences(ve *ical.VEvent, start, end, rangeStart, rangeEnd time.Time) []time.Time {
	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	if rruleProp == nil || rruleProp.Value == "" {
		if start.Before(rangeEnd) && end.After(rangeStart) {
			return []time.Time{start}
		}
		return nil
	}

	r, err := rrule.StrToRRule(rruleProp.Value)
	if err != nil {
		log.Warn().Err(err).Str("rrule", rruleProp.Value).Msg("skipping event with unparseable RRULE")
		return nil
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates(ve, start.Location()) {
		set.ExDate(ex)
	}

	// Between works in the event's own location.
	return set.Between(rangeStart.In(start.Location()), rangeEnd.In(start.Location()), true)
}

// exDates collects EXDATE values, aligned to the event's location.
func exDates(ve *ical.VEvent, loc *time.Location) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, loc); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// isAllDay detects date-only DTSTART values (VALUE=DATE or no time part).
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// declined reports whether the configured attendee declined this event.
func (s *Source) declined(ve *ical.VEvent) bool {
	if s.attendee == "" {
		return false
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		email := strings.ToLower(strings.TrimPrefix(p.Value, "mailto:"))
		if email != s.attendee {
			continue
		}
		if ps, ok := p.ICalParameters["PARTSTAT"]; ok && len(ps) > 0 && strings.EqualFold(ps[0], "DECLINED") {
			return true
		}
	}
	return false
}

func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
