// Package toggl is a minimal client for the Toggl Track API v9, covering
// the calls tally needs: identity, projects, reading time entries, and
// creating them.
package toggl

import (
	"errors"
	"time"
)

// DefaultBaseURL is the Toggl Track API v9 endpoint.
const DefaultBaseURL = "https://api.track.toggl.com/api/v9"

// createdWith tags entries created by tally in the Toggl UI.
const createdWith = "tally"

// ErrUnauthorized indicates the API rejected the token. Commands use it to
// point the user at `tally auth`.
var ErrUnauthorized = errors.New("toggl: unauthorized")

// Me is the authenticated user as returned by /me.
type Me struct {
	ID                 int64  `json:"id"`
	Fullname           string `json:"fullname"`
	DefaultWorkspaceID int64  `json:"default_workspace_id"`
}

// Project is a Toggl project within a workspace.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TimeEntry is a logged time entry. A negative Duration means the timer is
// still running.
type TimeEntry struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	Duration    int64     `json:"duration"` // seconds
	Billable    bool      `json:"billable"`
	ProjectID   int64     `json:"project_id"`
}

// Running reports whether the entry is an active timer.
func (e TimeEntry) Running() bool {
	return e.Duration < 0
}

// Logged returns the entry's duration, or zero for running timers.
func (e TimeEntry) Logged() time.Duration {
	if e.Duration < 0 {
		return 0
	}
	return time.Duration(e.Duration) * time.Second
}

// CreateEntryRequest is the payload for creating a time entry.
type CreateEntryRequest struct {
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	Duration    int64     `json:"duration"` // seconds
	WorkspaceID int64     `json:"workspace_id"`
	Billable    bool      `json:"billable"`
	ProjectID   int64     `json:"project_id,omitempty"`
	CreatedWith string    `json:"created_with"`
}
