package toggl

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/tally/pkg/kv"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// Token is the Toggl API token.
	Token string
	// WorkspaceID pins the workspace. Zero means auto-detect from /me.
	WorkspaceID int64
	// BaseURL overrides the API endpoint (tests). Empty means DefaultBaseURL.
	BaseURL string
	// HTTPClient overrides the underlying client. Nil gets a 15s-timeout default.
	HTTPClient *http.Client
}

// Client talks to the Toggl Track API. It memoizes the workspace id and
// caches projects for the lifetime of the process.
type Client struct {
	baseURL string
	token   string
	http    *http.Client

	mu          sync.Mutex
	workspaceID int64

	projects     *kv.Store[string, Project]
	projectsOnce sync.Once
	projectsErr  error
}

// NewClient creates a Toggl client from cfg.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       cfg.Token,
		http:        httpClient,
		workspaceID: cfg.WorkspaceID,
		projects:    kv.New[string, Project](),
	}
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (Me, error) {
	var me Me
	if err := c.get(ctx, "/me", nil, &me); err != nil {
		return Me{}, fmt.Errorf("fetch user: %w", err)
	}
	return me, nil
}

// WorkspaceID returns the configured workspace id, detecting it from /me on
// first use when unset.
func (c *Client) WorkspaceID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.workspaceID != 0 {
		return c.workspaceID, nil
	}

	me, err := c.Me(ctx)
	if err != nil {
		return 0, err
	}
	if me.DefaultWorkspaceID == 0 {
		return 0, fmt.Errorf("toggl: user has no default workspace")
	}

	c.workspaceID = me.DefaultWorkspaceID
	log.Debug().Int64("workspace_id", c.workspaceID).Msg("detected default workspace")
	return c.workspaceID, nil
}

// Projects lists the workspace's projects, sorted by name. Results are
// cached after the first call.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	c.projectsOnce.Do(func() {
		wid, err := c.WorkspaceID(ctx)
		if err != nil {
			c.projectsErr = err
			return
		}

		var projects []Project
		if err := c.get(ctx, fmt.Sprintf("/workspaces/%d/projects", wid), nil, &projects); err != nil {
			c.projectsErr = fmt.Errorf("fetch projects: %w", err)
			return
		}

		for _, p := range projects {
			c.projects.Set(p.Name, p)
		}
	})
	if c.projectsErr != nil {
		return nil, c.projectsErr
	}

	projects := c.projects.Values()
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// ProjectByName looks up a cached project by exact name. Projects must have
// been listed first.
func (c *Client) ProjectByName(name string) (Project, bool) {
	return c.projects.Get(name)
}

// TimeEntries returns the user's entries whose start falls in [start, end].
func (c *Client) TimeEntries(ctx context.Context, start, end time.Time) ([]TimeEntry, error) {
	query := url.Values{
		"start_date": []string{start.Format(time.RFC3339)},
		"end_date":   []string{end.Format(time.RFC3339)},
	}

	var entries []TimeEntry
	if err := c.get(ctx, "/me/time_entries", query, &entries); err != nil {
		return nil, fmt.Errorf("fetch time entries: %w", err)
	}
	return entries, nil
}

// CreateEntry creates a time entry in the client's workspace. The request's
// WorkspaceID and CreatedWith are filled in.
func (c *Client) CreateEntry(ctx context.Context, req CreateEntryRequest) (TimeEntry, error) {
	wid, err := c.WorkspaceID(ctx)
	if err != nil {
		return TimeEntry{}, err
	}
	req.WorkspaceID = wid
	req.CreatedWith = createdWith

	var entry TimeEntry
	if err := c.post(ctx, fmt.Sprintf("/workspaces/%d/time_entries", wid), req, &entry); err != nil {
		return TimeEntry{}, fmt.Errorf("create entry %q: %w", req.Description, err)
	}

	log.Debug().
		Str("description", entry.Description).
		Time("start", entry.Start).
		Int64("duration_secs", entry.Duration).
		Msg("created time entry")
	return entry, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+basicToken(c.token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// basicToken builds the Toggl basic-auth credential: token:api_token.
func basicToken(token string) string {
	return base64.StdEncoding.EncodeToString([]byte(token + ":api_token"))
}
