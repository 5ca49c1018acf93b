package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/core/styles"
	"github.com/colonyops/tally/internal/printer"
)

type ProjectsCmd struct {
	flags *Flags
}

// NewProjectsCmd creates a new projects command
func NewProjectsCmd(flags *Flags) *ProjectsCmd {
	return &ProjectsCmd{flags: flags}
}

// Register adds the projects command to the application
func (cmd *ProjectsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "projects",
		Usage:     "List workspace projects",
		UsageText: "tally projects",
		Description: `Lists the projects of the active workspace. Projects matching the
configured default_projects globs are marked; those are the ones offered
first in pickers.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ProjectsCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	api, err := cmd.flags.API()
	if err != nil {
		return err
	}

	projects, err := api.Projects(ctx)
	if err != nil {
		return fmt.Errorf("fetch projects: %w", err)
	}
	if len(projects) == 0 {
		p.Mutedf("no projects in workspace")
		return nil
	}

	preferred := make(map[int64]bool)
	for _, pr := range filterProjects(projects, cmd.flags.Config.DefaultProjects) {
		preferred[pr.ID] = true
	}

	for _, pr := range projects {
		mark := " "
		if preferred[pr.ID] {
			mark = styles.IconDot
		}
		p.Printf("  %s %s\n", mark, pr.Name)
	}
	return nil
}
