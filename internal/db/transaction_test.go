package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/fairshare/internal/models"
	"gorm.io/gorm"
)

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	database := setupTestDB(t)
	repo := NewNoticeRepository(database)
	ctx := context.Background()
	session := uuid.New()
	errStop := errors.New("stop")

	err := database.WithTransaction(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(models.NewNotice(session, models.NoticeKindStatus, "pending")).Error)
		return errStop
	})
	assert.ErrorIs(t, err, errStop)

	count, err := repo.CountBySession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestWithTransaction_RetriesWhileBusy(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	attempts := 0
	err := database.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = database.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempts++
		return errors.New("database is locked")
	})
	assert.True(t, IsBusy(err))
	assert.Equal(t, busyRetries+1, attempts)
}

func TestWithTransaction_DoesNotRetryOtherErrors(t *testing.T) {
	database := setupTestDB(t)

	attempts := 0
	err := database.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		attempts++
		return ErrInvalidInput
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 1, attempts)
}

func TestWithTransaction_StopsRetryingOnCancel(t *testing.T) {
	database := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := database.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempts++
		cancel()
		return errors.New("database is locked")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestIsBusy(t *testing.T) {
	assert.False(t, IsBusy(nil))
	assert.True(t, IsBusy(errors.New("database is locked")))
	assert.True(t, IsBusy(errors.New("SQLITE_BUSY: Database is busy")))
	assert.False(t, IsBusy(ErrDuplicate))
}
