package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/timesheet"
	"github.com/colonyops/tally/internal/printer"
)

type DayCmd struct {
	flags *Flags
}

// NewDayCmd creates a new day command
func NewDayCmd(flags *Flags) *DayCmd {
	return &DayCmd{flags: flags}
}

// Register adds the day command to the application
func (cmd *DayCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "day",
		Usage:     "Fill a single day",
		UsageText: "tally day [YYYY-MM-DD]",
		Description: `Fills one day regardless of the rest of the month. Defaults to today
when no date is given.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *DayCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	loc := cmd.flags.Config.Location()

	day, err := argDate(c, loc)
	if err != nil {
		return err
	}

	api, err := cmd.flags.API()
	if err != nil {
		return err
	}

	existing, err := api.TimeEntries(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("fetch entries: %w", err)
	}

	f, err := newFiller(ctx, cmd.flags)
	if err != nil {
		return err
	}

	if err := f.fillDay(ctx, day, timesheet.EntriesOn(existing, day, loc)); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			p.Mutedf("aborted")
			return nil
		}
		return err
	}
	return nil
}

// argDate parses an optional YYYY-MM-DD positional argument, defaulting to
// today in loc.
func argDate(c *cli.Command, loc *time.Location) (time.Time, error) {
	raw := c.Args().First()
	if raw == "" {
		return timesheet.Day(time.Now().In(loc), loc), nil
	}

	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return day, nil
}
