// Package notify delivers session notices to their sinks: the structured log,
// the notice store, and live subscribers.
package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stwalsh4118/fairshare/internal/logger"
	"github.com/stwalsh4118/fairshare/internal/models"
)

// Notifier receives notices. Notify must not block the caller for long; it is
// called while a studio session holds its lock.
type Notifier interface {
	Notify(notice *models.Notice)
}

// Func adapts a plain function to Notifier
type Func func(notice *models.Notice)

// Notify calls f
func (f Func) Notify(notice *models.Notice) {
	f(notice)
}

// Discard drops every notice
var Discard Notifier = Func(func(*models.Notice) {})

// Fanout delivers each notice to every notifier in order
type Fanout []Notifier

// Notify forwards the notice to each notifier
func (f Fanout) Notify(notice *models.Notice) {
	for _, n := range f {
		if n != nil {
			n.Notify(notice)
		}
	}
}

// LogNotifier writes notices to the global logger
type LogNotifier struct{}

// Notify logs the notice at a level that matches its kind
func (LogNotifier) Notify(notice *models.Notice) {
	var event *zerolog.Event
	if notice.Kind == models.NoticeKindWarning {
		event = logger.Log.Warn()
	} else {
		event = logger.Log.Info()
	}

	event = event.
		Str("session_id", notice.SessionID.String()).
		Str("kind", string(notice.Kind))
	if notice.ClipID != nil {
		event = event.Str("clip_id", *notice.ClipID)
	}
	event.Msg(notice.Message)
}

// Store is where StoreNotifier writes notices
type Store interface {
	CreateBatch(ctx context.Context, notices []*models.Notice) error
}
