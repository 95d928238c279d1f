package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/kbindex/internal/config"
	"github.com/dgallion1/kbindex/internal/indexer"
)

func newTestServer(t *testing.T, apiKey string) *Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.md"), []byte(`# Functions

Function basics.

## Async

An async function definition.
`), 0o644))

	cfg := config.Default()
	cfg.Directories.Include = []string{dir}
	cfg.Server.APIKey = apiKey

	ix, err := indexer.New(cfg, nil)
	require.NoError(t, err)
	files, err := ix.Discover()
	require.NoError(t, err)
	require.Len(t, files, 1)

	return NewServer(ix, files, testLogger(), cfg)
}

func get(t *testing.T, s *Server, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s, "/api/search?q=function:async:definition", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Query   string `json:"query"`
		Files   int    `json:"files"`
		Matches []struct {
			File       string   `json:"file"`
			NodeText   string   `json:"node_text"`
			SearchPath []string `json:"search_path"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "function:async:definition", resp.Query)
	assert.Equal(t, 1, resp.Files)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "Async", resp.Matches[0].NodeText)
	assert.Equal(t, []string{"function", "async", "definition"}, resp.Matches[0].SearchPath)
}

func TestSearchEndpoint_MissingQuery(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s, "/api/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint_BadPattern(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s, "/api/search?q="+`%28`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint_NoMatches(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s, "/api/search?q=zzz_no_such_token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Files   int   `json:"files"`
		Matches []any `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Files)
	assert.Empty(t, resp.Matches)
}

func TestFilesEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s, "/api/files", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
		Files []struct {
			Name string `json:"name"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "guide.md", resp.Files[0].Name)
}

func TestAuthRequiredWhenKeyConfigured(t *testing.T) {
	s := newTestServer(t, "sekrit")

	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/api/files", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/api/files", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/api/files", "sekrit").Code)
	// Health stays public.
	assert.Equal(t, http.StatusOK, get(t, s, "/health", "").Code)
}
