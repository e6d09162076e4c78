package studio

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/fairshare/internal/catalog"
	"github.com/stwalsh4118/fairshare/internal/clock"
	"github.com/stwalsh4118/fairshare/internal/logger"
	"github.com/stwalsh4118/fairshare/internal/models"
	"github.com/stwalsh4118/fairshare/internal/notify"
)

// CreateParams describes a new session
type CreateParams struct {
	// Clips seeds the session; nil uses the manager's default catalog
	Clips []models.Clip

	// TotalDuration overrides the timeline scale when positive
	TotalDuration int64
}

// Manager keeps the set of live sessions, hands new sessions the default
// catalog, and removes paused sessions that have been idle too long
type Manager struct {
	scheduler clock.Scheduler
	opts      Options
	notifier  notify.Notifier
	now       func() time.Time

	mu             sync.RWMutex
	sessions       map[uuid.UUID]*Session
	defaultCatalog *catalog.Catalog
	defaultTotal   int64
	cleanup        clock.Timer
	started        bool
	stopped        bool
}

// NewManager creates a manager whose sessions start from defaultCatalog
// (the demo catalog when nil)
func NewManager(scheduler clock.Scheduler, opts Options, notifier notify.Notifier, defaultCatalog *catalog.Catalog) *Manager {
	if defaultCatalog == nil {
		defaultCatalog = catalog.Demo()
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Manager{
		scheduler:      scheduler,
		opts:           opts,
		notifier:       notifier,
		now:            func() time.Time { return time.Now().UTC() },
		sessions:       make(map[uuid.UUID]*Session),
		defaultCatalog: defaultCatalog,
		defaultTotal:   opts.TotalDuration,
	}
}

// Start begins the idle-session cleanup cycle. An IdleTimeout of zero
// leaves sessions alive until deleted.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrManagerStopped
	}
	if m.started {
		return nil
	}
	m.started = true

	if m.opts.IdleTimeout > 0 && m.opts.CleanupInterval > 0 {
		m.cleanup = m.scheduler.Every(m.opts.CleanupInterval, m.performCleanup)
	}

	logger.Log.Info().
		Dur("idle_timeout", m.opts.IdleTimeout).
		Dur("cleanup_interval", m.opts.CleanupInterval).
		Msg("Session manager started")
	return nil
}

// Stop cancels cleanup and closes every session
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	if m.cleanup != nil {
		m.cleanup.Stop()
		m.cleanup = nil
	}
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}

	logger.Log.Info().
		Int("closed_sessions", len(sessions)).
		Msg("Session manager stopped")
}

// Create starts a new paused session
func (m *Manager) Create(params CreateParams) (*Session, error) {
	if params.TotalDuration < 0 {
		return nil, ErrInvalidTotalDuration
	}

	var custom *catalog.Catalog
	if params.Clips != nil {
		cat, err := catalog.New(params.Clips)
		if err != nil {
			return nil, err
		}
		custom = cat
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil, ErrManagerStopped
	}

	opts := m.opts
	cat := custom
	if cat == nil {
		cat = m.defaultCatalog
		opts.TotalDuration = m.defaultTotal
	}
	if params.TotalDuration > 0 {
		opts.TotalDuration = params.TotalDuration
	}

	s := NewSession(uuid.New(), m.scheduler, cat, opts, m.notifier)
	s.usesDefault = custom == nil
	s.ownScale = params.TotalDuration > 0
	m.sessions[s.id] = s

	logger.Log.Info().
		Str("session_id", s.id.String()).
		Int("clips", cat.Len()).
		Int64("total_duration", opts.TotalDuration).
		Bool("default_catalog", s.usesDefault).
		Msg("Session created")

	return s, nil
}

// Get returns the session with the given id
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and removes a session
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// List returns every session ordered by creation time
func (m *Manager) List() []*Session {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].createdAt.Equal(sessions[j].createdAt) {
			return sessions[i].id.String() < sessions[j].id.String()
		}
		return sessions[i].createdAt.Before(sessions[j].createdAt)
	})
	return sessions
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SetDefaultCatalog replaces the default catalog. Sessions that still use
// the default switch to the new one; sessions with their own clips keep them.
// A non-positive totalDuration keeps the current default scale, and sessions
// created with their own total duration keep theirs.
func (m *Manager) SetDefaultCatalog(cat *catalog.Catalog, totalDuration int64) {
	if cat == nil {
		return
	}

	m.mu.Lock()
	m.defaultCatalog = cat
	if totalDuration > 0 {
		m.defaultTotal = totalDuration
	}
	total := m.defaultTotal
	followers := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.followsDefault() {
			followers = append(followers, s)
		}
	}
	m.mu.Unlock()

	updated := 0
	for _, s := range followers {
		if s.useDefaultCatalog(cat, total) {
			updated++
		}
	}

	logger.Log.Info().
		Int("clips", cat.Len()).
		Int64("total_duration", total).
		Int("sessions_updated", updated).
		Msg("Default catalog replaced")
}

// ApplyDocument validates a decoded catalog file and makes it the default.
// It is the callback a catalog.Watcher drives.
func (m *Manager) ApplyDocument(doc *catalog.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", catalog.ErrInvalidClip)
	}
	if doc.TotalDuration < 0 {
		return ErrInvalidTotalDuration
	}
	cat, err := catalog.New(doc.Clips)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Msg("Rejected reloaded catalog, keeping the previous default")
		return err
	}
	m.SetDefaultCatalog(cat, doc.TotalDuration)
	return nil
}

// performCleanup removes paused sessions idle longer than the idle timeout
func (m *Manager) performCleanup() {
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		idle, ok := s.idleFor(now)
		if ok && idle > m.opts.IdleTimeout {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		logger.Log.Info().
			Str("session_id", s.id.String()).
			Msg("Cleaning up idle session")
		s.Close()
	}

	if len(expired) > 0 {
		logger.Log.Info().
			Int("removed_count", len(expired)).
			Int("active_count", remaining).
			Msg("Cleanup cycle completed")
	}
}
