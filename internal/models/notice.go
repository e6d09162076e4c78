package models

import (
	"time"

	"github.com/google/uuid"
)

// NoticeKind categorises an entry in a session's activity log
type NoticeKind string

const (
	// NoticeKindStatus is a human-readable status line (play, pause, import, export)
	NoticeKindStatus NoticeKind = "status"

	// NoticeKindAttribution records an attribution overlay being shown
	NoticeKindAttribution NoticeKind = "attribution"

	// NoticeKindWarning records a catalog data-quality problem
	NoticeKindWarning NoticeKind = "warning"
)

// Notice is an opaque, human-readable message emitted by a studio session
type Notice struct {
	ID        uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	SessionID uuid.UUID  `json:"session_id" gorm:"type:text;not null;index;column:session_id"`
	Kind      NoticeKind `json:"kind" gorm:"type:text;not null;column:kind"`
	Message   string     `json:"message" gorm:"type:text;not null;column:message"`
	ClipID    *string    `json:"clip_id,omitempty" gorm:"type:text;column:clip_id"`
	CreatedAt time.Time  `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewNotice creates a new Notice with generated UUID and timestamp
func NewNotice(sessionID uuid.UUID, kind NoticeKind, message string) *Notice {
	return &Notice{
		ID:        uuid.New(),
		SessionID: sessionID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// WithClip attaches the clip the notice refers to
func (n *Notice) WithClip(clipID string) *Notice {
	n.ClipID = &clipID
	return n
}
