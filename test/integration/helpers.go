//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/fairshare/internal/config"
	"github.com/stwalsh4118/fairshare/internal/db"
	"github.com/stwalsh4118/fairshare/internal/server"
)

// testStack is a running server backed by a fresh database
type testStack struct {
	server *server.Server
	http   *httptest.Server
	repos  *db.Repositories
}

// setupTestStack starts the full HTTP stack on a real clock with a short
// tick interval so playback advances quickly
func setupTestStack(t *testing.T) *testStack {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")
	cfg.Studio.TickInterval = 50 * time.Millisecond

	database, err := db.New(filepath.Join(t.TempDir(), "integration.db"))
	require.NoError(t, err, "Failed to create database")

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err, "Failed to get SQL DB")

	// Resolve migrations relative to this file so tests work from any directory
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")
	moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	err = db.RunMigrations(sqlDB, "file://"+filepath.Join(moduleRoot, "migrations"))
	require.NoError(t, err, "Failed to run migrations")

	srv, err := server.New(cfg, database)
	require.NoError(t, err, "Failed to create server")
	require.NoError(t, srv.Manager().Start())

	stack := &testStack{
		server: srv,
		http:   httptest.NewServer(srv.Router()),
		repos:  db.NewRepositories(database),
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		stack.http.Close()
		_ = database.Close()
	})
	return stack
}

// do sends a JSON request and decodes a JSON response into out when non-nil
func (s *testStack) do(t *testing.T, method, path, body string, out interface{}) int {
	t.Helper()

	req, err := http.NewRequest(method, s.http.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
