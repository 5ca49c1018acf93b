// Package config handles configuration loading and validation for tally.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/tally/internal/core/timeutil"
)

// Config holds the application configuration.
type Config struct {
	// WorkdayHours is the target total hours logged per day.
	WorkdayHours float64 `yaml:"workday_hours"`
	// DayStartTime is the earliest clock time an entry may start, "HH:MM".
	DayStartTime string `yaml:"day_start_time"`
	// MaxBreaks caps the number of break entries injected per day.
	MaxBreaks int `yaml:"max_breaks"`
	// BreakMinutes is the fixed length of each injected break.
	BreakMinutes int `yaml:"break_minutes"`
	// Timezone is the reference zone for all time-of-day comparisons.
	Timezone string `yaml:"timezone"`
	// Billable marks created work entries billable. nil defaults to true.
	Billable *bool `yaml:"billable"`
	// DefaultProjects narrows project pickers to matching names. Glob
	// patterns are supported; empty means all projects.
	DefaultProjects []string `yaml:"default_projects"`
	// TimeOffProject is the project used by `tally off`.
	TimeOffProject string `yaml:"time_off_project"`
	// DailyStandupMins auto-adds a standup task of this length when the
	// day has none. nil defaults to 15; 0 disables.
	DailyStandupMins *int `yaml:"daily_standup_mins"`
	// WorkspaceID pins the Toggl workspace; 0 auto-detects.
	WorkspaceID int64 `yaml:"workspace_id"`

	Calendar CalendarConfig `yaml:"calendar"`

	DataDir string `yaml:"-"` // set by caller, not from config file

	// Derived values cached by Validate.
	dayStart timeutil.Clock
	location *time.Location
}

// CalendarConfig points at an ICS feed used as the meeting source.
type CalendarConfig struct {
	// FeedURL is the ICS subscription URL. Empty disables the calendar.
	FeedURL string `yaml:"feed_url"`
	// Attendee is the email whose declined invitations are skipped.
	Attendee string `yaml:"attendee"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		WorkdayHours:   8,
		DayStartTime:   "09:15",
		MaxBreaks:      4,
		BreakMinutes:   15,
		Timezone:       "Local",
		TimeOffProject: "Time Off - (UNPAID)",
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns validated defaults.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.WorkdayHours == 0 {
		c.WorkdayHours = defaults.WorkdayHours
	}
	if c.DayStartTime == "" {
		c.DayStartTime = defaults.DayStartTime
	}
	if c.MaxBreaks == 0 {
		c.MaxBreaks = defaults.MaxBreaks
	}
	if c.BreakMinutes == 0 {
		c.BreakMinutes = defaults.BreakMinutes
	}
	if c.Timezone == "" {
		c.Timezone = defaults.Timezone
	}
	if c.TimeOffProject == "" {
		c.TimeOffProject = defaults.TimeOffProject
	}
}

// Validate checks the configuration and caches derived values.
func (c *Config) Validate() error {
	if c.WorkdayHours <= 0 || c.WorkdayHours > 24 {
		return fmt.Errorf("workday_hours must be in (0, 24], got %v", c.WorkdayHours)
	}

	dayStart, err := timeutil.ParseClock(c.DayStartTime)
	if err != nil {
		return fmt.Errorf("day_start_time: %w", err)
	}
	c.dayStart = dayStart

	if c.MaxBreaks < 1 {
		return fmt.Errorf("max_breaks must be at least 1, got %d", c.MaxBreaks)
	}
	if c.BreakMinutes < 1 {
		return fmt.Errorf("break_minutes must be at least 1, got %d", c.BreakMinutes)
	}
	if c.DailyStandupMins != nil && *c.DailyStandupMins < 0 {
		return fmt.Errorf("daily_standup_mins cannot be negative, got %d", *c.DailyStandupMins)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	c.location = loc

	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	return nil
}

// Workday returns the target workday length.
func (c *Config) Workday() time.Duration {
	return time.Duration(c.WorkdayHours * float64(time.Hour))
}

// DayStart returns the parsed day start clock time.
func (c *Config) DayStart() timeutil.Clock {
	return c.dayStart
}

// BreakLen returns the fixed break slot length.
func (c *Config) BreakLen() time.Duration {
	return time.Duration(c.BreakMinutes) * time.Minute
}

// Location returns the configured reference timezone.
func (c *Config) Location() *time.Location {
	return c.location
}

// IsBillable reports whether created work entries are billable.
func (c *Config) IsBillable() bool {
	return c.Billable == nil || *c.Billable
}

// StandupDuration returns the auto-added standup length; zero disables it.
func (c *Config) StandupDuration() time.Duration {
	if c.DailyStandupMins == nil {
		return 15 * time.Minute
	}
	return time.Duration(*c.DailyStandupMins) * time.Minute
}

// StateFile returns the path to the persisted variation state.
func (c *Config) StateFile() string {
	return filepath.Join(c.DataDir, "state.json")
}
