package main

import (
	"sync"

	"github.com/stwalsh4118/fairshare/internal/models"
)

const noticeHistory = 50

// noticeLog keeps the most recent notices for the shell. Notify runs under
// the session lock, so it only appends.
type noticeLog struct {
	mu      sync.Mutex
	notices []*models.Notice
	unread  int
}

func (l *noticeLog) Notify(notice *models.Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.notices = append(l.notices, notice)
	if len(l.notices) > noticeHistory {
		l.notices = l.notices[len(l.notices)-noticeHistory:]
	}
	if l.unread < noticeHistory {
		l.unread++
	}
}

// Unread returns notices added since the last call, oldest first
func (l *noticeLog) Unread() []*models.Notice {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.unread
	if n > len(l.notices) {
		n = len(l.notices)
	}
	l.unread = 0
	out := make([]*models.Notice, n)
	copy(out, l.notices[len(l.notices)-n:])
	return out
}

// Recent returns up to limit notices, newest first
func (l *noticeLog) Recent(limit int) []*models.Notice {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > len(l.notices) {
		limit = len(l.notices)
	}
	out := make([]*models.Notice, 0, limit)
	for i := len(l.notices) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.notices[i])
	}
	return out
}
