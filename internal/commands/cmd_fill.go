package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/timesheet"
	"github.com/colonyops/tally/internal/core/timeutil"
	"github.com/colonyops/tally/internal/printer"
)

// todaySkipHour is the local hour before which today is left alone: the day
// isn't over, so it would be filled prematurely.
const todaySkipHour = 18

type FillCmd struct {
	flags *Flags
}

// NewFillCmd creates a new fill command
func NewFillCmd(flags *Flags) *FillCmd {
	return &FillCmd{flags: flags}
}

// Register adds the fill command to the application
func (cmd *FillCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "fill",
		Usage:     "Fill the short days of the current month",
		UsageText: "tally fill",
		Description: `Scans the current month's working days, shows which ones are short of
the target, and walks through filling each one: calendar meetings are
placed first, then your tasks, then breaks and gap-fill to land exactly
on the configured workday length.

Today is skipped before 6 PM so in-progress days are not filled early.`,
		Action: cmd.run,
	})

	return app
}

// Run executes the fill flow. Exposed so main can use fill as the default
// action when no subcommand is given.
func (cmd *FillCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *FillCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	cfg := cmd.flags.Config
	loc := cfg.Location()
	workday := cfg.Workday()

	api, err := cmd.flags.API()
	if err != nil {
		return err
	}

	now := time.Now().In(loc)
	start, end := timesheet.MonthRange(now.Year(), now.Month(), loc)
	entries, err := api.TimeEntries(ctx, start, end)
	if err != nil {
		return fmt.Errorf("fetch month entries: %w", err)
	}

	totals := timesheet.Totals(entries, loc)
	today := timesheet.Day(now, loc)

	p.Titlef("%s · target %s per day", now.Format("January 2006"), timeutil.FmtDuration(workday))

	var short []time.Time
	for _, day := range timesheet.WorkingDays(now.Year(), now.Month(), loc) {
		if day.After(today) {
			break
		}

		label := day.Format("Mon 02")
		total := totals[day].Total
		switch {
		case day.Equal(today) && now.Hour() < todaySkipHour:
			p.Mutedf("  %s  %s  today, skipped before %d:00", label, timeutil.FmtDuration(total), todaySkipHour)
		case total >= workday:
			p.Printf("  %s  %s\n", label, timeutil.FmtDuration(total))
		default:
			p.Warnf("  %s  %s  short by %s", label, timeutil.FmtDuration(total), timeutil.FmtDuration(workday-total))
			short = append(short, day)
		}
	}

	if len(short) == 0 {
		p.Successf("all days complete")
		return nil
	}

	f, err := newFiller(ctx, cmd.flags)
	if err != nil {
		return err
	}

	for _, day := range short {
		existing := timesheet.EntriesOn(entries, day, loc)
		if err := f.fillDay(ctx, day, existing); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				p.Mutedf("aborted")
				return nil
			}
			p.Errorf("%s: %v", day.Format("Mon 02"), err)
		}
	}

	return nil
}
