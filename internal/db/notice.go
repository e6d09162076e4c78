package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/fairshare/internal/models"
	"gorm.io/gorm"
)

// NoticeRepository handles database operations for session notices
type NoticeRepository struct {
	db *DB
}

// NewNoticeRepository creates a new notice repository
func NewNoticeRepository(db *DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// Create inserts a single notice
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	result := r.db.WithContext(ctx).Create(notice)
	if result.Error != nil {
		return fmt.Errorf("failed to create notice: %w", MapGormError(result.Error))
	}
	return nil
}

// CreateBatch inserts notices in one transaction. Either all of them are
// stored or none are.
func (r *NoticeRepository) CreateBatch(ctx context.Context, notices []*models.Notice) error {
	if len(notices) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&notices).Error; err != nil {
			return fmt.Errorf("failed to create notices: %w", MapGormError(err))
		}
		return nil
	})
}

// ListBySession returns a session's notices, newest first. A limit of zero
// or less returns all of them.
func (r *NoticeRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.Notice, error) {
	var notices []*models.Notice
	query := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID.String()).
		Order("created_at DESC, rowid DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&notices).Error; err != nil {
		return nil, fmt.Errorf("failed to list notices: %w", MapGormError(err))
	}
	return notices, nil
}

// CountBySession returns the number of notices stored for a session
func (r *NoticeRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.Notice{}).
		Where("session_id = ?", sessionID.String()).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count notices: %w", MapGormError(result.Error))
	}
	return count, nil
}

// DeleteBySession removes every notice for a session and returns how many were deleted
func (r *NoticeRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID.String()).
		Delete(&models.Notice{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete notices: %w", MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}
