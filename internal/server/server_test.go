package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/fairshare/internal/api"
	"github.com/stwalsh4118/fairshare/internal/config"
	"github.com/stwalsh4118/fairshare/internal/db"
	"github.com/stwalsh4118/fairshare/internal/studio"
)

func setupTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *db.DB) {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Logging.Level = "info"
	if mutate != nil {
		mutate(cfg)
	}

	database, err := db.New(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok)
	moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	require.NoError(t, db.RunMigrations(sqlDB, "file://"+filepath.Join(moduleRoot, "migrations")))

	srv, err := New(cfg, database)
	require.NoError(t, err)
	return srv, database
}

func TestServer_HealthReportsDatabase(t *testing.T) {
	srv, _ := setupTestServer(t, nil)
	defer func() { _ = srv.Shutdown(context.Background()) }()

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Database)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_ShutdownDrainsNotices(t *testing.T) {
	srv, database := setupTestServer(t, nil)

	session, err := srv.Manager().Create(studio.CreateParams{})
	require.NoError(t, err)
	_, err = session.PlayToggle()
	require.NoError(t, err)
	_, err = session.Export()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	count, err := db.NewRepositories(database).Notices.CountBySession(context.Background(), session.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 0, srv.Manager().Count())
}

func TestServer_LoadsCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`total_duration: 120
clips:
  - id: a
    name: Opening
    kind: original
    start_time: 0
    duration: 120
`), 0o600))

	srv, _ := setupTestServer(t, func(cfg *config.Config) {
		cfg.Catalog.Path = path
	})
	defer func() { _ = srv.Shutdown(context.Background()) }()

	session, err := srv.Manager().Create(studio.CreateParams{})
	require.NoError(t, err)

	info := session.Info()
	assert.Equal(t, 1, info.ClipCount)
	assert.Equal(t, int64(120), info.TotalDuration)
}

func TestServer_RejectsBadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"clips": [{"id": "a"}]}`), 0o600))

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Catalog.Path = path

	_, err = New(cfg, nil)
	assert.Error(t, err)
}

func TestServer_WithoutDatabase(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	srv, err := New(cfg, nil)
	require.NoError(t, err)
	defer func() { _ = srv.Shutdown(context.Background()) }()

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "disabled", resp.Database)
}
