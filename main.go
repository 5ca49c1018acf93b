package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/calendar"
	"github.com/colonyops/tally/internal/commands"
	"github.com/colonyops/tally/internal/core/config"
	"github.com/colonyops/tally/internal/printer"
	"github.com/colonyops/tally/internal/store/jsonfile"
	"github.com/colonyops/tally/internal/toggl"
	"github.com/colonyops/tally/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "tally",
		Usage:     "Keep your Toggl timesheet full without living in it",
		UsageText: "tally [global options] command [command options]",
		Description: `Tally builds plausible workday timelines from your calendar and a short
list of tasks, then pushes them to Toggl Track: meetings land where they
are, tasks fill the gaps, and breaks are injected so days don't all look
identical.

Run 'tally' with no arguments to review and fill the current month.
Run 'tally auth' first to store your API token.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TALLY_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/tally.log)",
				Sources:     cli.EnvVars("TALLY_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TALLY_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TALLY_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/tally.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "tally.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			token, err := commands.ResolveToken()
			if err != nil {
				// A broken keyring shouldn't block commands that never
				// touch the API.
				log.Warn().Err(err).Msg("failed to resolve API token")
			}
			flags.Token = token
			flags.Toggl = toggl.NewClient(toggl.ClientConfig{
				Token:       token,
				WorkspaceID: cfg.WorkspaceID,
			})

			flags.State = jsonfile.NewStateStore(cfg.StateFile())
			flags.Calendar = calendar.NewSource(cfg.Calendar.FeedURL, cfg.Calendar.Attendee, cfg.Location())

			return printer.WithCtx(ctx, printer.New(os.Stdout)), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	fillCmd := commands.NewFillCmd(flags)

	app = fillCmd.Register(app)
	app = commands.NewDayCmd(flags).Register(app)
	app = commands.NewLogCmd(flags).Register(app)
	app = commands.NewTodayCmd(flags).Register(app)
	app = commands.NewReportCmd(flags).Register(app)
	app = commands.NewProjectsCmd(flags).Register(app)
	app = commands.NewOffCmd(flags).Register(app)
	app = commands.NewAuthCmd(flags).Register(app)

	// Filling the month is the default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'tally --help' for usage", c.Args().First())
		}
		return fillCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
