package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/huh"

	"github.com/colonyops/tally/internal/core/timeutil"
	"github.com/colonyops/tally/internal/toggl"
)

// hoursAnswer classifies the user's response to an hours prompt.
type hoursAnswer int

const (
	hoursGiven hoursAnswer = iota
	hoursFill              // take all remaining time
	hoursSkip
	hoursStop // done entering tasks
)

// promptHours asks how long to log for label. Empty input fills the
// remaining time, "0" skips the task, and "q" stops collection. A value
// larger than remaining is clamped.
func promptHours(label string, remaining time.Duration) (time.Duration, hoursAnswer, error) {
	var raw string
	err := huh.NewInput().
		Title(label).
		Description(fmt.Sprintf("hours as 1.5 or 1:30 · enter = fill remaining %s · 0 = skip · q = done",
			timeutil.FmtDuration(remaining))).
		Validate(validateHours).
		Value(&raw).
		Run()
	if err != nil {
		return 0, 0, err
	}

	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return remaining, hoursFill, nil
	case "0":
		return 0, hoursSkip, nil
	case "q", "Q":
		return 0, hoursStop, nil
	}

	d, err := timeutil.ParseHours(raw)
	if err != nil {
		return 0, 0, err
	}
	if d > remaining {
		d = remaining
	}
	return d, hoursGiven, nil
}

func validateHours(s string) error {
	s = strings.TrimSpace(s)
	switch s {
	case "", "0", "q", "Q":
		return nil
	}
	_, err := timeutil.ParseHours(s)
	return err
}

// pickProject selects a project for a task. The choices are narrowed by the
// configured default_projects globs; a single match is taken without asking,
// and an empty selection is allowed so tasks can go without a project.
func pickProject(title string, projects []toggl.Project, globs []string) (toggl.Project, error) {
	choices := filterProjects(projects, globs)
	if len(choices) == 0 {
		choices = projects
	}
	if len(choices) == 1 {
		return choices[0], nil
	}
	if len(choices) == 0 {
		return toggl.Project{}, nil
	}

	opts := make([]huh.Option[toggl.Project], 0, len(choices)+1)
	for _, pr := range choices {
		opts = append(opts, huh.NewOption(pr.Name, pr))
	}
	opts = append(opts, huh.NewOption("(no project)", toggl.Project{}))

	var sel toggl.Project
	err := huh.NewSelect[toggl.Project]().
		Title(title).
		Options(opts...).
		Value(&sel).
		Run()
	if err != nil {
		return toggl.Project{}, err
	}
	return sel, nil
}

// filterProjects keeps projects whose name matches any of the glob
// patterns, case-insensitively. Empty patterns match nothing.
func filterProjects(projects []toggl.Project, globs []string) []toggl.Project {
	if len(globs) == 0 {
		return nil
	}

	var out []toggl.Project
	for _, pr := range projects {
		name := strings.ToLower(pr.Name)
		for _, g := range globs {
			if ok, err := doublestar.Match(strings.ToLower(g), name); err == nil && ok {
				out = append(out, pr)
				break
			}
		}
	}
	return out
}

// confirm asks a yes/no question, defaulting to yes.
func confirm(title string) (bool, error) {
	ok := true
	err := huh.NewConfirm().
		Title(title).
		Value(&ok).
		Run()
	return ok, err
}
