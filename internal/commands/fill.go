package commands

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/colonyops/tally/internal/core/schedule"
	"github.com/colonyops/tally/internal/core/timesheet"
	"github.com/colonyops/tally/internal/core/timeutil"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/toggl"
)

// standupDescription is the recurring standup entry auto-added to days
// that don't have one yet.
const standupDescription = "Daily"

// filler runs the interactive fill flow for one or more days: collect
// tasks, build the schedule, preview, and push.
type filler struct {
	flags      *Flags
	api        *toggl.Client
	projects   []toggl.Project
	activities []string
	rng        *rand.Rand
}

// newFiller fetches the projects and recent activity suggestions shared by
// every day being filled.
func newFiller(ctx context.Context, flags *Flags) (*filler, error) {
	api, err := flags.API()
	if err != nil {
		return nil, err
	}

	projects, err := api.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}

	now := time.Now().In(flags.Config.Location())
	recent, err := api.TimeEntries(ctx, now.AddDate(0, 0, -30), now)
	if err != nil {
		return nil, fmt.Errorf("fetch recent entries: %w", err)
	}

	return &filler{
		flags:      flags,
		api:        api,
		projects:   projects,
		activities: timesheet.RecentActivities(recent),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// fillDay fills the unlogged remainder of one day and pushes the result.
// Aborting a prompt propagates huh.ErrUserAborted so callers can stop a
// multi-day run.
func (f *filler) fillDay(ctx context.Context, day time.Time, existing []toggl.TimeEntry) error {
	p := printer.Ctx(ctx)
	cfg := f.flags.Config
	loc := cfg.Location()
	day = timesheet.Day(day, loc)

	logged := timesheet.Logged(existing)
	remaining := cfg.Workday() - logged
	if remaining <= 0 {
		p.Successf("%s is already complete (%s logged)", day.Format("Mon 02 Jan"), timeutil.FmtDuration(logged))
		return nil
	}

	cursor := ceilMinute(timesheet.Cursor(existing, cfg.DayStart().On(day)))

	p.Println()
	p.Titlef("%s · %s to fill", day.Format("Monday 02 Jan"), timeutil.FmtDuration(remaining))

	fixed, err := f.meetings(ctx, p, day, cursor, cursor.Add(remaining))
	if err != nil {
		p.Warnf("calendar feed unavailable: %v", err)
		fixed = nil
	}

	tasks, err := f.collectTasks(p, existing, fixed, remaining)
	if err != nil {
		return err
	}

	st, err := f.flags.State.Load()
	if err != nil {
		p.Warnf("break history unreadable, starting fresh: %v", err)
	}

	sch, err := schedule.BuildDay(day, fixed, tasks, st.LastBreakCount, schedule.Config{
		Workday:   remaining,
		DayStart:  timeutil.ClockOf(cursor),
		MaxBreaks: cfg.MaxBreaks,
		BreakLen:  cfg.BreakLen(),
	}, f.rng)
	if err != nil {
		return fmt.Errorf("build schedule: %w", err)
	}

	f.preview(p, sch)

	ok, err := confirm(fmt.Sprintf("Push %d entries to Toggl?", len(sch.Slots)))
	if err != nil {
		return err
	}
	if !ok {
		p.Mutedf("skipped")
		return nil
	}

	if err := f.push(ctx, sch); err != nil {
		return err
	}

	if sch.BreakCount > 0 {
		if err := f.flags.State.SetBreakCount(sch.BreakCount); err != nil {
			p.Warnf("persist break count: %v", err)
		}
	}

	p.Successf("pushed %d entries, %s covered", len(sch.Slots), timeutil.FmtDuration(remaining))
	return nil
}

// meetings returns the day's calendar events that fit the fill window.
// Events outside it (already covered by logged entries, or past the window
// end) are skipped with a warning.
func (f *filler) meetings(ctx context.Context, p *printer.Printer, day, from, to time.Time) ([]schedule.FixedEvent, error) {
	events, err := f.flags.Calendar.EventsOn(ctx, day)
	if err != nil {
		return nil, err
	}

	var out []schedule.FixedEvent
	for _, ev := range events {
		if ev.Start.Before(from) || ev.End.After(to) {
			p.Warnf("meeting %q (%s–%s) is outside the fill window, skipping",
				ev.Title, ev.Start.Format("15:04"), ev.End.Format("15:04"))
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// collectTasks prompts for the day's tasks: the recurring standup first,
// then recent activities, then free-form entries until the day is full or
// the user stops.
func (f *filler) collectTasks(p *printer.Printer, existing []toggl.TimeEntry, fixed []schedule.FixedEvent, remaining time.Duration) ([]schedule.TaskEntry, error) {
	cfg := f.flags.Config

	var fixedTotal time.Duration
	for _, ev := range fixed {
		fixedTotal += ev.End.Sub(ev.Start)
	}

	var tasks []schedule.TaskEntry
	var taskTotal time.Duration

	// free keeps one break slot in reserve while the day still qualifies
	// for break injection, so the scheduler is never left without room.
	free := func() time.Duration {
		d := remaining - fixedTotal - taskTotal
		if schedule.NeedsBreaks(len(tasks)) {
			d -= cfg.BreakLen()
		}
		return d
	}

	addTask := func(desc string, d time.Duration) error {
		proj, err := pickProject(fmt.Sprintf("Project for %q", desc), f.projects, cfg.DefaultProjects)
		if err != nil {
			return err
		}
		tasks = append(tasks, schedule.TaskEntry{
			Description: desc,
			Duration:    d,
			ProjectID:   proj.ID,
			Billable:    cfg.IsBillable(),
		})
		taskTotal += d
		return nil
	}

	if d := cfg.StandupDuration(); d > 0 && d <= free() && !timesheet.HasDescription(existing, standupDescription) {
		p.Mutedf("adding %s (%s)", standupDescription, timeutil.FmtDuration(d))
		if err := addTask(standupDescription, d); err != nil {
			return nil, err
		}
	}

	stop := false
	for _, act := range f.activities {
		if stop || free() < time.Minute {
			break
		}
		if timesheet.HasDescription(existing, act) {
			continue
		}

		d, ans, err := promptHours(act, free())
		if err != nil {
			return nil, err
		}
		switch ans {
		case hoursSkip:
			continue
		case hoursStop:
			stop = true
		default:
			if err := addTask(act, d); err != nil {
				return nil, err
			}
		}
	}

	for !stop && free() >= time.Minute {
		var desc string
		err := huh.NewInput().
			Title("Other task").
			Description("enter = none").
			Value(&desc).
			Run()
		if err != nil {
			return nil, err
		}
		desc = strings.TrimSpace(desc)
		if desc == "" {
			break
		}

		d, ans, err := promptHours(desc, free())
		if err != nil {
			return nil, err
		}
		if ans == hoursStop {
			break
		}
		if ans == hoursSkip {
			continue
		}
		if err := addTask(desc, d); err != nil {
			return nil, err
		}
	}

	return tasks, nil
}

func (f *filler) preview(p *printer.Printer, sch schedule.Schedule) {
	p.Println()
	for _, s := range sch.Slots {
		line := fmt.Sprintf("  %s–%s  %-7s  %s",
			s.Start.Format("15:04"), s.End.Format("15:04"), s.Kind, s.Label)
		switch s.Kind {
		case schedule.KindBreak, schedule.KindFill:
			p.Mutedf("%s", line)
		default:
			p.Println(line)
		}
	}
	p.Println()
}

func (f *filler) push(ctx context.Context, sch schedule.Schedule) error {
	cfg := f.flags.Config
	for _, s := range sch.Slots {
		billable := s.Billable
		if s.Kind == schedule.KindMeeting {
			billable = cfg.IsBillable()
		}

		req := toggl.CreateEntryRequest{
			Description: s.Label,
			Start:       s.Start,
			Duration:    int64(s.Duration() / time.Second),
			Billable:    billable,
			ProjectID:   s.ProjectID,
		}
		if _, err := f.api.CreateEntry(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// ceilMinute rounds t up to the next whole minute so new entries start on
// minute boundaries.
func ceilMinute(t time.Time) time.Time {
	trunc := t.Truncate(time.Minute)
	if trunc.Equal(t) {
		return t
	}
	return trunc.Add(time.Minute)
}
