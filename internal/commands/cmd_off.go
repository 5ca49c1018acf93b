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
	"github.com/colonyops/tally/internal/toggl"
)

type OffCmd struct {
	flags *Flags

	// flags
	hours string
}

// NewOffCmd creates a new off command
func NewOffCmd(flags *Flags) *OffCmd {
	return &OffCmd{flags: flags}
}

// Register adds the off command to the application
func (cmd *OffCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "off",
		Usage:     "Log time off for a day",
		UsageText: "tally off [YYYY-MM-DD] [--hours 4]",
		Description: `Creates a single non-billable entry on the configured time-off project,
starting at the day start. Defaults to today and a full workday.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "hours",
				Usage:       "amount of time off as 1.5 or 1:30 (defaults to the full workday)",
				Destination: &cmd.hours,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *OffCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	cfg := cmd.flags.Config
	loc := cfg.Location()

	day, err := argDate(c, loc)
	if err != nil {
		return err
	}

	dur := cfg.Workday()
	if cmd.hours != "" {
		dur, err = timeutil.ParseHours(cmd.hours)
		if err != nil {
			return fmt.Errorf("parse --hours: %w", err)
		}
	}

	api, err := cmd.flags.API()
	if err != nil {
		return err
	}

	// Resolve the time-off project before asking anything.
	if _, err := api.Projects(ctx); err != nil {
		return fmt.Errorf("fetch projects: %w", err)
	}
	proj, ok := api.ProjectByName(cfg.TimeOffProject)
	if !ok {
		return fmt.Errorf("time-off project %q not found in workspace", cfg.TimeOffProject)
	}

	start := cfg.DayStart().On(timesheet.Day(day, loc))

	ok, err = confirm(fmt.Sprintf("Log %s off on %s (%s)?",
		timeutil.FmtDuration(dur), day.Format("Mon 02 Jan"), proj.Name))
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

	_, err = api.CreateEntry(ctx, toggl.CreateEntryRequest{
		Description: "Time off",
		Start:       start,
		Duration:    int64(dur / time.Second),
		Billable:    false,
		ProjectID:   proj.ID,
	})
	if err != nil {
		return err
	}

	p.Successf("logged %s off on %s", timeutil.FmtDuration(dur), day.Format("Mon 02 Jan"))
	return nil
}
