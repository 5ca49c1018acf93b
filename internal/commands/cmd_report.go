package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/timesheet"
	"github.com/colonyops/tally/internal/core/timeutil"
	"github.com/colonyops/tally/internal/printer"
)

type ReportCmd struct {
	flags *Flags
}

// NewReportCmd creates a new report command
func NewReportCmd(flags *Flags) *ReportCmd {
	return &ReportCmd{flags: flags}
}

// Register adds the report command to the application
func (cmd *ReportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "report",
		Usage:     "Show a per-day month report",
		UsageText: "tally report [YYYY-MM]",
		Description: `Prints total and billable time per working day of a month, with a
status column against the workday target. Defaults to the current
month.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ReportCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	cfg := cmd.flags.Config
	loc := cfg.Location()
	workday := cfg.Workday()

	year, month, err := argMonth(c, loc)
	if err != nil {
		return err
	}

	api, err := cmd.flags.API()
	if err != nil {
		return err
	}

	start, end := timesheet.MonthRange(year, month, loc)
	entries, err := api.TimeEntries(ctx, start, end)
	if err != nil {
		return fmt.Errorf("fetch entries: %w", err)
	}

	totals := timesheet.Totals(entries, loc)
	today := timesheet.Day(time.Now().In(loc), loc)

	p.Titlef("%s %d · target %s per day", month, year, timeutil.FmtDuration(workday))

	out := c.Root().Writer
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DAY\tTOTAL\tBILLABLE\tSTATUS")

	var sumTotal, sumBillable time.Duration
	for _, day := range timesheet.WorkingDays(year, month, loc) {
		dt := totals[day]
		sumTotal += dt.Total
		sumBillable += dt.Billable

		status := ""
		switch {
		case day.After(today):
			status = "-"
		case dt.Total >= workday:
			status = "ok"
		default:
			status = "short " + timeutil.FmtDuration(workday-dt.Total)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			day.Format("Mon 02"),
			timeutil.FmtDuration(dt.Total),
			timeutil.FmtDuration(dt.Billable),
			status)
	}
	_ = w.Flush()

	p.Println()
	p.Infof("month total %s, billable %s", timeutil.FmtDuration(sumTotal), timeutil.FmtDuration(sumBillable))
	return nil
}

// argMonth parses an optional YYYY-MM positional argument, defaulting to
// the current month in loc.
func argMonth(c *cli.Command, loc *time.Location) (int, time.Month, error) {
	raw := c.Args().First()
	if raw == "" {
		now := time.Now().In(loc)
		return now.Year(), now.Month(), nil
	}

	t, err := time.ParseInLocation("2006-01", raw, loc)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", raw)
	}
	return t.Year(), t.Month(), nil
}
