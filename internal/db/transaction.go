package db

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/fairshare/internal/logger"
	"gorm.io/gorm"
)

const (
	busyRetries = 3
	busyBackoff = 50 * time.Millisecond
)

// WithTransaction runs fn inside a transaction. The transaction commits when
// fn returns nil and rolls back on an error or panic. A transaction that fails
// because sqlite is locked by another writer is retried with a growing backoff.
func (db *DB) WithTransaction(ctx context.Context, fn func(*gorm.DB) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = db.DB.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}
		if !IsBusy(err) || attempt == busyRetries {
			break
		}

		logger.Log.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Msg("Database busy, retrying transaction")

		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction abandoned: %w", ctx.Err())
		case <-time.After(busyBackoff * time.Duration(attempt+1)):
		}
	}
	return fmt.Errorf("transaction rolled back: %w", err)
}
