// Package studio composes the clip catalog, playback clock, attribution
// trigger and timeline layout into editing sessions.
package studio

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/fairshare/internal/attribution"
	"github.com/stwalsh4118/fairshare/internal/catalog"
	"github.com/stwalsh4118/fairshare/internal/clock"
	"github.com/stwalsh4118/fairshare/internal/logger"
	"github.com/stwalsh4118/fairshare/internal/models"
	"github.com/stwalsh4118/fairshare/internal/notify"
	"github.com/stwalsh4118/fairshare/internal/playback"
	"github.com/stwalsh4118/fairshare/internal/timeline"
)

// Status messages emitted as notices
const (
	MessagePlaying   = "Playing with FairShare revenue distribution"
	MessagePaused    = "Playback paused"
	MessageImported  = "Imported %d clips with automatic revenue sharing detection"
	MessageExporting = "Exporting with embedded FairShare revenue tracking"
)

const subscriberBuffer = 16

// Frame is everything a renderer needs for one moment of a session
type Frame struct {
	Sequence uint64              `json:"sequence"`
	Playback playback.State      `json:"playback"`
	Timeline *timeline.Snapshot  `json:"timeline"`
	Overlay  attribution.Overlay `json:"overlay"`
}

// ExportSheet is the attribution credit sheet produced by Export
type ExportSheet struct {
	SessionID     uuid.UUID        `json:"session_id"`
	TotalDuration int64            `json:"total_duration"`
	Credits       []catalog.Credit `json:"credits"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// Info summarises a session for listings
type Info struct {
	ID                 uuid.UUID `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	LastActivity       time.Time `json:"last_activity"`
	IsPlaying          bool      `json:"is_playing"`
	CurrentTime        int64     `json:"current_time"`
	TotalDuration      int64     `json:"total_duration"`
	ClipCount          int       `json:"clip_count"`
	UsesDefaultCatalog bool      `json:"uses_default_catalog"`
}

// Session is one editing session. All of its components share the session
// mutex: inbound calls take it directly and timer callbacks take it through
// clock.Serialized, so the clock, trigger and catalog never race.
type Session struct {
	id        uuid.UUID
	createdAt time.Time
	opts      Options
	notifier  notify.Notifier
	now       func() time.Time

	mu           sync.Mutex
	catalog      *catalog.Catalog
	clips        []models.Clip
	usesDefault  bool
	ownScale     bool
	clock        *playback.Clock
	trigger      *attribution.Trigger
	lastActivity time.Time
	lastOverlay  attribution.State
	sequence     uint64
	subscribers  map[uint64]chan Frame
	nextSubID    uint64
	closed       bool
}

// NewSession creates a paused session at time zero. A nil catalog starts
// the session empty; a nil notifier discards notices.
func NewSession(id uuid.UUID, scheduler clock.Scheduler, cat *catalog.Catalog, opts Options, notifier notify.Notifier) *Session {
	if cat == nil {
		cat = catalog.Empty()
	}
	if notifier == nil {
		notifier = notify.Discard
	}

	now := time.Now().UTC()
	s := &Session{
		id:           id,
		createdAt:    now,
		opts:         opts,
		notifier:     notifier,
		now:          func() time.Time { return time.Now().UTC() },
		catalog:      cat,
		clips:        cat.Clips(),
		lastActivity: now,
		lastOverlay:  attribution.StateIdle,
		subscribers:  make(map[uint64]chan Frame),
	}

	serialized := clock.Serialized(scheduler, &s.mu)
	s.clock = playback.NewClock(serialized, opts.TotalDuration, opts.TickInterval)
	s.trigger = attribution.NewTrigger(serialized, opts.Attribution)
	s.clock.OnTick(s.onTick)
	s.trigger.OnChange(s.onOverlayChange)

	s.warnLocked(cat.Warnings())
	return s
}

// ID returns the session id
func (s *Session) ID() uuid.UUID {
	return s.id
}

// PlayToggle starts or pauses playback and returns the new playback state.
// Starting inside a licensed span shows its attribution again.
func (s *Session) PlayToggle() (playback.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return playback.State{}, ErrSessionClosed
	}
	s.touchLocked()

	state := s.clock.Toggle()
	if state.IsPlaying {
		s.statusLocked(MessagePlaying)
		s.trigger.Rearm()
		s.trigger.Observe(s.clips, state.CurrentTime, true)
	} else {
		s.statusLocked(MessagePaused)
	}

	logger.Log.Info().
		Str("session_id", s.id.String()).
		Bool("is_playing", state.IsPlaying).
		Int64("current_time", state.CurrentTime).
		Msg("Playback toggled")

	s.publishLocked()
	return state, nil
}

// SeekToStart moves the playhead to zero without changing play state
func (s *Session) SeekToStart() (playback.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return playback.State{}, ErrSessionClosed
	}
	s.touchLocked()

	s.clock.ResetToStart()
	s.observeLocked()
	s.publishLocked()
	return s.clock.State(), nil
}

// Seek moves the playhead to t without changing play state
func (s *Session) Seek(t int64) (playback.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return playback.State{}, ErrSessionClosed
	}
	s.touchLocked()

	if err := s.clock.Seek(t); err != nil {
		return s.clock.State(), err
	}
	s.observeLocked()
	s.publishLocked()
	return s.clock.State(), nil
}

// SetClipCatalog replaces the session's clips. An invalid sequence is
// rejected and the current catalog stays in place.
func (s *Session) SetClipCatalog(clips []models.Clip) error {
	cat, err := catalog.New(clips)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.touchLocked()
	s.replaceCatalogLocked(cat, 0, false)
	return nil
}

// Import replaces the session's clips with a decoded catalog document.
// A positive total duration in the document rescales the timeline.
func (s *Session) Import(doc *catalog.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", catalog.ErrInvalidClip)
	}
	if doc.TotalDuration < 0 {
		return ErrInvalidTotalDuration
	}
	cat, err := catalog.New(doc.Clips)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.touchLocked()
	s.replaceCatalogLocked(cat, doc.TotalDuration, false)
	s.statusLocked(fmt.Sprintf(MessageImported, cat.Len()))
	return nil
}

// CloseOverlay hides the attribution overlay. It reports false when there
// was nothing to close.
func (s *Session) CloseOverlay() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSessionClosed
	}
	s.touchLocked()
	return s.trigger.Close(), nil
}

// Export returns the attribution credit sheet for the current catalog
func (s *Session) Export() (*ExportSheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	s.touchLocked()
	s.statusLocked(MessageExporting)

	return &ExportSheet{
		SessionID:     s.id,
		TotalDuration: s.clock.State().TotalDuration,
		Credits:       s.catalog.Credits(),
		GeneratedAt:   s.now(),
	}, nil
}

// TimelineSnapshot lays out the current catalog and playhead
func (s *Session) TimelineSnapshot() *timeline.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layoutLocked()
}

// OverlaySnapshot returns the attribution overlay state
func (s *Session) OverlaySnapshot() attribution.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trigger.Snapshot()
}

// PlaybackSnapshot returns the playback clock state
func (s *Session) PlaybackSnapshot() playback.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.State()
}

// Frame returns playback, timeline and overlay taken together
func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

// Ruler returns the labelled marks for the current timeline scale
func (s *Session) Ruler() []timeline.RulerMark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return timeline.Ruler(s.clock.State().TotalDuration, s.opts.RulerMarks)
}

// Clips returns a copy of the current catalog's clips
func (s *Session) Clips() []models.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Clips()
}

// Warnings returns the data-quality problems in the current catalog
func (s *Session) Warnings() []catalog.Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Warnings()
}

// Info summarises the session
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.clock.State()
	return Info{
		ID:                 s.id,
		CreatedAt:          s.createdAt,
		LastActivity:       s.lastActivity,
		IsPlaying:          state.IsPlaying,
		CurrentTime:        state.CurrentTime,
		TotalDuration:      state.TotalDuration,
		ClipCount:          s.catalog.Len(),
		UsesDefaultCatalog: s.usesDefault,
	}
}

// Subscribe returns a channel receiving a frame after every change and a
// function that ends the subscription. Slow subscribers miss frames rather
// than block playback. The channel is closed when the session closes.
func (s *Session) Subscribe() (<-chan Frame, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Frame, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close stops playback, cancels every timer and ends all subscriptions.
// Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.clock.Close()
	s.trigger.Stop()

	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}

	logger.Log.Info().
		Str("session_id", s.id.String()).
		Msg("Session closed")
}

// useDefaultCatalog swaps in the manager's default catalog. It reports false
// when the session no longer follows the default.
func (s *Session) useDefaultCatalog(cat *catalog.Catalog, totalDuration int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The session may have taken its own clips since the manager picked it
	if s.closed || !s.usesDefault {
		return false
	}
	if s.ownScale {
		totalDuration = 0
	}
	s.replaceCatalogLocked(cat, totalDuration, true)
	return true
}

// followsDefault reports whether the session still uses the default catalog
func (s *Session) followsDefault() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usesDefault && !s.closed
}

// idleFor reports how long a paused session has gone untouched; playing
// sessions are never idle
func (s *Session) idleFor(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clock.State().IsPlaying {
		return 0, false
	}
	return now.Sub(s.lastActivity), true
}

func (s *Session) replaceCatalogLocked(cat *catalog.Catalog, totalDuration int64, usesDefault bool) {
	s.catalog = cat
	s.clips = cat.Clips()
	s.usesDefault = usesDefault
	if totalDuration > 0 {
		s.clock.SetTotalDuration(totalDuration)
	}
	s.trigger.ResetHistory()
	s.warnLocked(cat.Warnings())

	logger.Log.Info().
		Str("session_id", s.id.String()).
		Int("clips", cat.Len()).
		Int("licensed", len(cat.Licensed())).
		Int64("total_duration", s.clock.State().TotalDuration).
		Bool("default_catalog", usesDefault).
		Msg("Clip catalog replaced")

	s.observeLocked()
	s.publishLocked()
}

// observeLocked lets the trigger react to the current position, dismissing
// an overlay whose clip no longer covers the playhead
func (s *Session) observeLocked() {
	state := s.clock.State()
	s.trigger.Observe(s.clips, state.CurrentTime, state.IsPlaying)
}

func (s *Session) onTick(state playback.State) {
	s.trigger.Observe(s.clips, state.CurrentTime, state.IsPlaying)
	s.publishLocked()
}

func (s *Session) onOverlayChange(overlay attribution.Overlay) {
	previous := s.lastOverlay
	s.lastOverlay = overlay.State

	if overlay.State == attribution.StateShowing && previous != attribution.StateShowing && overlay.Payload != nil {
		p := overlay.Payload
		msg := fmt.Sprintf("%s by %s: %s receives %.0f%% of revenue", p.Title, p.Artist, p.RightsOwner, p.RevenueSharePercent)
		s.notifier.Notify(models.NewNotice(s.id, models.NoticeKindAttribution, msg).WithClip(overlay.ClipID))

		logger.Log.Info().
			Str("session_id", s.id.String()).
			Str("clip_id", overlay.ClipID).
			Int64("current_time", s.clock.State().CurrentTime).
			Msg("Attribution overlay shown")
	}

	s.publishLocked()
}

func (s *Session) statusLocked(msg string) {
	s.notifier.Notify(models.NewNotice(s.id, models.NoticeKindStatus, msg))
}

func (s *Session) warnLocked(warnings []catalog.Warning) {
	for _, w := range warnings {
		logger.Log.Warn().
			Str("session_id", s.id.String()).
			Str("clip_id", w.ClipID).
			Msg(w.Message)
		s.notifier.Notify(models.NewNotice(s.id, models.NoticeKindWarning, w.Message).WithClip(w.ClipID))
	}
}

func (s *Session) touchLocked() {
	s.lastActivity = s.now()
}

func (s *Session) layoutLocked() *timeline.Snapshot {
	state := s.clock.State()
	return timeline.Layout(s.clips, state.CurrentTime, state.TotalDuration, s.opts.MinVisibleWidth)
}

func (s *Session) frameLocked() Frame {
	return Frame{
		Sequence: s.sequence,
		Playback: s.clock.State(),
		Timeline: s.layoutLocked(),
		Overlay:  s.trigger.Snapshot(),
	}
}

func (s *Session) publishLocked() {
	s.sequence++
	if len(s.subscribers) == 0 {
		return
	}

	frame := s.frameLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- frame:
		default:
		}
	}
}
