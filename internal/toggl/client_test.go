package toggl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		Token:   "secret",
		BaseURL: srv.URL,
	})
}

func TestClient_AuthHeader(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(Me{ID: 1, DefaultWorkspaceID: 99})
	}))

	_, err := client.Me(context.Background())
	require.NoError(t, err)

	// base64("secret:api_token")
	assert.Equal(t, "Basic c2VjcmV0OmFwaV90b2tlbg==", gotAuth)
}

func TestClient_WorkspaceIDAutoDetect(t *testing.T) {
	hits := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me", r.URL.Path)
		hits++
		_ = json.NewEncoder(w).Encode(Me{ID: 1, DefaultWorkspaceID: 42})
	}))

	ctx := context.Background()

	wid, err := client.WorkspaceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), wid)

	// Second call is memoized.
	wid, err = client.WorkspaceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), wid)
	assert.Equal(t, 1, hits)
}

func TestClient_ProjectsCached(t *testing.T) {
	projectHits := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			_ = json.NewEncoder(w).Encode(Me{ID: 1, DefaultWorkspaceID: 7})
		case "/workspaces/7/projects":
			projectHits++
			_ = json.NewEncoder(w).Encode([]Project{
				{ID: 2, Name: "Internal"},
				{ID: 1, Name: "Client Work"},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	ctx := context.Background()

	projects, err := client.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Client Work", projects[0].Name)

	_, err = client.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, projectHits)

	p, ok := client.ProjectByName("Internal")
	assert.True(t, ok)
	assert.Equal(t, int64(2), p.ID)
}

func TestClient_TimeEntriesQuery(t *testing.T) {
	loc := time.UTC
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, loc)
	end := time.Date(2026, time.March, 31, 23, 59, 59, 0, loc)

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/time_entries", r.URL.Path)
		assert.Equal(t, start.Format(time.RFC3339), r.URL.Query().Get("start_date"))
		assert.Equal(t, end.Format(time.RFC3339), r.URL.Query().Get("end_date"))
		_ = json.NewEncoder(w).Encode([]TimeEntry{
			{ID: 1, Description: "Writing", Duration: 3600},
		})
	}))

	entries, err := client.TimeEntries(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, time.Hour, entries[0].Logged())
}

func TestClient_CreateEntryFillsWorkspace(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			_ = json.NewEncoder(w).Encode(Me{ID: 1, DefaultWorkspaceID: 7})
		case "/workspaces/7/time_entries":
			var req CreateEntryRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(7), req.WorkspaceID)
			assert.Equal(t, "tally", req.CreatedWith)
			assert.Equal(t, "Writing", req.Description)
			_ = json.NewEncoder(w).Encode(TimeEntry{ID: 10, Description: req.Description, Duration: req.Duration})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	entry, err := client.CreateEntry(context.Background(), CreateEntryRequest{
		Description: "Writing",
		Start:       time.Now(),
		Duration:    3600,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), entry.ID)
}

func TestClient_Unauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.Me(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTimeEntry_Running(t *testing.T) {
	assert.True(t, TimeEntry{Duration: -1}.Running())
	assert.False(t, TimeEntry{Duration: 60}.Running())
	assert.Zero(t, TimeEntry{Duration: -1}.Logged())
}
