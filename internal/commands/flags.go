package commands

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/colonyops/tally/internal/calendar"
	"github.com/colonyops/tally/internal/core/config"
	"github.com/colonyops/tally/internal/store/jsonfile"
	"github.com/colonyops/tally/internal/toggl"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Token is the resolved Toggl API token; empty when none is configured
	Token string

	// Toggl is the API client, built in the Before hook
	Toggl *toggl.Client

	// State persists the break-count variation record between runs
	State *jsonfile.StateStore

	// Calendar is the ICS meeting source; it yields no events when no feed
	// is configured
	Calendar *calendar.Source
}

// API returns the Toggl client, or an error when no token is configured.
func (f *Flags) API() (*toggl.Client, error) {
	if f.Token == "" {
		return nil, errors.New("no Toggl API token configured: run 'tally auth' or set TOGGL_API_TOKEN")
	}
	return f.Toggl, nil
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "tally", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "tally")
}
