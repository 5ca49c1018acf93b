package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/timesheet"
	"github.com/colonyops/tally/internal/core/timeutil"
	"github.com/colonyops/tally/internal/printer"
)

type TodayCmd struct {
	flags *Flags
}

// NewTodayCmd creates a new today command
func NewTodayCmd(flags *Flags) *TodayCmd {
	return &TodayCmd{flags: flags}
}

// Register adds the today command to the application
func (cmd *TodayCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "today",
		Usage:     "Show today's entries and progress",
		UsageText: "tally today",
		Action:    cmd.run,
	})

	return app
}

func (cmd *TodayCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	cfg := cmd.flags.Config
	loc := cfg.Location()

	api, err := cmd.flags.API()
	if err != nil {
		return err
	}

	day := timesheet.Day(time.Now().In(loc), loc)
	entries, err := api.TimeEntries(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("fetch entries: %w", err)
	}
	entries = timesheet.EntriesOn(entries, day, loc)

	p.Titlef("%s", day.Format("Monday 02 January"))

	if len(entries) == 0 {
		p.Mutedf("nothing logged yet")
		return nil
	}

	for _, e := range entries {
		dur := timeutil.FmtDuration(e.Logged())
		if e.Running() {
			dur = "running"
		}
		p.Printf("  %s  %-8s %s\n", e.Start.In(loc).Format("15:04"), dur, e.Description)
	}

	logged := timesheet.Logged(entries)
	target := cfg.Workday()
	p.Println()
	if logged >= target {
		p.Successf("%s logged, target reached", timeutil.FmtDuration(logged))
	} else {
		p.Infof("%s of %s logged, %s to go",
			timeutil.FmtDuration(logged), timeutil.FmtDuration(target), timeutil.FmtDuration(target-logged))
	}
	return nil
}
