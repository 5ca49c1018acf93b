package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/schedule"
	"github.com/colonyops/tally/internal/core/timesheet"
	"github.com/colonyops/tally/internal/core/timeutil"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/toggl"
)

type LogCmd struct {
	flags *Flags
}

// NewLogCmd creates a new log command
func NewLogCmd(flags *Flags) *LogCmd {
	return &LogCmd{flags: flags}
}

// Register adds the log command to the application
func (cmd *LogCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "log",
		Usage:     "Log entries back to back without scheduling",
		UsageText: "tally log [YYYY-MM-DD]",
		Description: `Prompts for tasks and appends them sequentially after the day's last
entry. No breaks or gap-fill are injected and the day is not padded to
the workday target; use 'tally fill' for that.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *LogCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	cfg := cmd.flags.Config
	loc := cfg.Location()

	day, err := argDate(c, loc)
	if err != nil {
		return err
	}

	api, err := cmd.flags.API()
	if err != nil {
		return err
	}

	entries, err := api.TimeEntries(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("fetch entries: %w", err)
	}
	existing := timesheet.EntriesOn(entries, day, loc)

	f, err := newFiller(ctx, cmd.flags)
	if err != nil {
		return err
	}

	cursor := ceilMinute(timesheet.Cursor(existing, cfg.DayStart().On(day)))
	p.Titlef("%s · logging from %s", day.Format("Monday 02 Jan"), cursor.Format("15:04"))

	tasks, err := cmd.collect(p, f, existing)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			p.Mutedf("aborted")
			return nil
		}
		return err
	}
	if len(tasks) == 0 {
		p.Mutedf("nothing to log")
		return nil
	}

	var total time.Duration
	p.Println()
	for _, t := range tasks {
		p.Printf("  %s–%s  %s\n",
			cursor.Add(total).Format("15:04"),
			cursor.Add(total+t.Duration).Format("15:04"), t.Description)
		total += t.Duration
	}
	p.Println()

	ok, err := confirm(fmt.Sprintf("Push %d entries to Toggl?", len(tasks)))
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}
	if !ok {
		p.Mutedf("skipped")
		return nil
	}

	for _, t := range tasks {
		req := toggl.CreateEntryRequest{
			Description: t.Description,
			Start:       cursor,
			Duration:    int64(t.Duration / time.Second),
			Billable:    t.Billable,
			ProjectID:   t.ProjectID,
		}
		if _, err := api.CreateEntry(ctx, req); err != nil {
			return err
		}
		cursor = cursor.Add(t.Duration)
	}

	p.Successf("logged %s across %d entries", timeutil.FmtDuration(total), len(tasks))
	return nil
}

// collect prompts for tasks with explicit durations. Unlike the fill flow
// there is no remaining-time budget, so empty input skips instead of
// filling.
func (cmd *LogCmd) collect(p *printer.Printer, f *filler, existing []toggl.TimeEntry) ([]schedule.TaskEntry, error) {
	cfg := cmd.flags.Config
	var tasks []schedule.TaskEntry

	add := func(desc string, d time.Duration) error {
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
		return nil
	}

	stop := false
	for _, act := range f.activities {
		if stop {
			break
		}
		if timesheet.HasDescription(existing, act) {
			continue
		}

		d, err := promptLogHours(act)
		if err != nil {
			return nil, err
		}
		if d < 0 {
			stop = true
			continue
		}
		if d == 0 {
			continue
		}
		if err := add(act, d); err != nil {
			return nil, err
		}
	}

	for !stop {
		var desc string
		err := huh.NewInput().
			Title("Other task").
			Description("enter = done").
			Value(&desc).
			Run()
		if err != nil {
			return nil, err
		}
		desc = strings.TrimSpace(desc)
		if desc == "" {
			break
		}

		d, err := promptLogHours(desc)
		if err != nil {
			return nil, err
		}
		if d <= 0 {
			continue
		}
		if err := add(desc, d); err != nil {
			return nil, err
		}
	}

	return tasks, nil
}

// promptLogHours asks for an explicit duration. Empty or "0" skips; "q"
// returns a negative duration to signal stop.
func promptLogHours(label string) (time.Duration, error) {
	var raw string
	err := huh.NewInput().
		Title(label).
		Description("hours as 1.5 or 1:30 · enter = skip · q = done").
		Validate(func(s string) error {
			s = strings.TrimSpace(s)
			switch s {
			case "", "0", "q", "Q":
				return nil
			}
			_, err := timeutil.ParseHours(s)
			return err
		}).
		Value(&raw).
		Run()
	if err != nil {
		return 0, err
	}

	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "0":
		return 0, nil
	case "q", "Q":
		return -1, nil
	}
	return timeutil.ParseHours(raw)
}
