package db

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/fairshare/internal/models"
)

// setupTestDB opens a fresh database file with migrations applied
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)

	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok)
	moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	require.NoError(t, RunMigrations(sqlDB, "file://"+filepath.Join(moduleRoot, "migrations")))

	return database
}

func TestRunMigrations_Idempotent(t *testing.T) {
	database := setupTestDB(t)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)

	_, filename, _, _ := runtime.Caller(0)
	moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	assert.NoError(t, RunMigrations(sqlDB, "file://"+filepath.Join(moduleRoot, "migrations")))
	assert.NoError(t, database.Health(context.Background()))
}

func TestNoticeRepository_CreateAndList(t *testing.T) {
	repo := NewRepositories(setupTestDB(t)).Notices
	ctx := context.Background()
	session := uuid.New()
	other := uuid.New()

	first := models.NewNotice(session, models.NoticeKindStatus, "Playback paused")
	first.CreatedAt = time.Now().UTC().Add(-time.Minute)
	second := models.NewNotice(session, models.NoticeKindAttribution, "Shape of You by Ed Sheeran").WithClip("2")

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, models.NewNotice(other, models.NoticeKindStatus, "elsewhere")))

	notices, err := repo.ListBySession(ctx, session, 0)
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, second.ID, notices[0].ID, "newest first")
	require.NotNil(t, notices[0].ClipID)
	assert.Equal(t, "2", *notices[0].ClipID)
	assert.Equal(t, models.NoticeKindAttribution, notices[0].Kind)
	assert.Nil(t, notices[1].ClipID)

	limited, err := repo.ListBySession(ctx, session, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	count, err := repo.CountBySession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNoticeRepository_CreateDuplicate(t *testing.T) {
	repo := NewNoticeRepository(setupTestDB(t))
	ctx := context.Background()

	notice := models.NewNotice(uuid.New(), models.NoticeKindStatus, "once")
	require.NoError(t, repo.Create(ctx, notice))

	err := repo.Create(ctx, notice)
	assert.True(t, IsDuplicate(err))
}

func TestNoticeRepository_CreateBatch(t *testing.T) {
	repo := NewNoticeRepository(setupTestDB(t))
	ctx := context.Background()
	session := uuid.New()

	require.NoError(t, repo.CreateBatch(ctx, nil))

	batch := []*models.Notice{
		models.NewNotice(session, models.NoticeKindStatus, "one"),
		models.NewNotice(session, models.NoticeKindWarning, "two").WithClip("9"),
		models.NewNotice(session, models.NoticeKindStatus, "three"),
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))

	count, err := repo.CountBySession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestNoticeRepository_CreateBatchIsAtomic(t *testing.T) {
	repo := NewNoticeRepository(setupTestDB(t))
	ctx := context.Background()
	session := uuid.New()

	existing := models.NewNotice(session, models.NoticeKindStatus, "existing")
	require.NoError(t, repo.Create(ctx, existing))

	batch := []*models.Notice{
		models.NewNotice(session, models.NoticeKindStatus, "fresh"),
		existing,
	}
	err := repo.CreateBatch(ctx, batch)
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))

	count, err := repo.CountBySession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "failed batch leaves nothing behind")
}

func TestNoticeRepository_RejectsUnknownKind(t *testing.T) {
	repo := NewNoticeRepository(setupTestDB(t))

	err := repo.Create(context.Background(), models.NewNotice(uuid.New(), models.NoticeKind("gossip"), "x"))

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNoticeRepository_DeleteBySession(t *testing.T) {
	repo := NewNoticeRepository(setupTestDB(t))
	ctx := context.Background()
	session := uuid.New()
	other := uuid.New()

	require.NoError(t, repo.CreateBatch(ctx, []*models.Notice{
		models.NewNotice(session, models.NoticeKindStatus, "a"),
		models.NewNotice(session, models.NoticeKindStatus, "b"),
		models.NewNotice(other, models.NoticeKindStatus, "c"),
	}))

	deleted, err := repo.DeleteBySession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := repo.CountBySession(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMapGormError(t *testing.T) {
	assert.Nil(t, MapGormError(nil))
	assert.True(t, IsNotFound(MapGormError(ErrNotFound)))
}

func TestOpen(t *testing.T) {
	t.Run("Empty path is rejected", func(t *testing.T) {
		_, err := Open("", DefaultOptions())
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Rollback journal without WAL", func(t *testing.T) {
		database, err := Open(filepath.Join(t.TempDir(), "plain.db"), Options{})
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		var mode string
		require.NoError(t, database.Raw("PRAGMA journal_mode").Scan(&mode).Error)
		assert.NotEqual(t, "wal", mode)
	})

	t.Run("WAL when enabled", func(t *testing.T) {
		database, err := Open(filepath.Join(t.TempDir(), "wal.db"), DefaultOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		var mode string
		require.NoError(t, database.Raw("PRAGMA journal_mode").Scan(&mode).Error)
		assert.Equal(t, "wal", mode)
	})
}
