package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tally/internal/core/timeutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8*time.Hour, cfg.Workday())
	assert.Equal(t, timeutil.Clock{Hour: 9, Minute: 15}, cfg.DayStart())
	assert.Equal(t, 4, cfg.MaxBreaks)
	assert.Equal(t, 15*time.Minute, cfg.BreakLen())
	assert.True(t, cfg.IsBillable())
	assert.Equal(t, 15*time.Minute, cfg.StandupDuration())
	assert.Equal(t, "Time Off - (UNPAID)", cfg.TimeOffProject)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
workday_hours: 7.5
day_start_time: "08:30"
max_breaks: 2
break_minutes: 10
timezone: Europe/Madrid
billable: false
daily_standup_mins: 0
default_projects:
  - "Client *"
calendar:
  feed_url: https://example.com/feed.ics
  attendee: dev@example.com
`)

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 7*time.Hour+30*time.Minute, cfg.Workday())
	assert.Equal(t, timeutil.Clock{Hour: 8, Minute: 30}, cfg.DayStart())
	assert.Equal(t, 2, cfg.MaxBreaks)
	assert.Equal(t, 10*time.Minute, cfg.BreakLen())
	assert.False(t, cfg.IsBillable())
	assert.Zero(t, cfg.StandupDuration())
	assert.Equal(t, "Europe/Madrid", cfg.Location().String())
	assert.Equal(t, []string{"Client *"}, cfg.DefaultProjects)
	assert.Equal(t, "https://example.com/feed.ics", cfg.Calendar.FeedURL)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, cfg.Workday())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "workday_hours: [not a number")
	_, err := Load(path, t.TempDir())
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative workday",
			mutate:  func(c *Config) { c.WorkdayHours = -1 },
			wantErr: "workday_hours",
		},
		{
			name:    "oversized workday",
			mutate:  func(c *Config) { c.WorkdayHours = 25 },
			wantErr: "workday_hours",
		},
		{
			name:    "bad day start",
			mutate:  func(c *Config) { c.DayStartTime = "25:00" },
			wantErr: "day_start_time",
		},
		{
			name:    "zero max breaks",
			mutate:  func(c *Config) { c.MaxBreaks = -1 },
			wantErr: "max_breaks",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus" },
			wantErr: "timezone",
		},
		{
			name: "negative standup",
			mutate: func(c *Config) {
				mins := -5
				c.DailyStandupMins = &mins
			},
			wantErr: "daily_standup_mins",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStateFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data/tally"
	assert.Equal(t, filepath.Join("/data/tally", "state.json"), cfg.StateFile())
}
