// Package attribution shows a timed attribution overlay when playback
// enters a licensed clip's span.
package attribution

import (
	"fmt"

	"github.com/stwalsh4118/fairshare/internal/clock"
	"github.com/stwalsh4118/fairshare/internal/logger"
	"github.com/stwalsh4118/fairshare/internal/models"
)

// FindLicensed returns the first licensed clip, in catalog order, whose span
// contains t. Clips without attribution never match.
func FindLicensed(clips []models.Clip, t int64) (*models.Clip, bool) {
	for i := range clips {
		if clips[i].IsLicensed() && clips[i].Contains(t) {
			return &clips[i], true
		}
	}
	return nil, false
}

// Trigger is the Idle/Armed/Showing state machine behind the attribution
// overlay. It is not safe for concurrent use; callers serialize access.
type Trigger struct {
	scheduler clock.Scheduler
	opts      Options

	state   State
	visible bool
	clipID  string
	payload *models.Attribution
	armed   models.Attribution

	// inside is the licensed clip containing the last observed time, used
	// to fire on entry rather than on every observation
	inside string
	shown  map[string]bool

	pending    clock.Timer // show delay while Armed, dismiss while Showing
	pendingGen uint64
	fade       clock.Timer
	fadeGen    uint64

	onChange func(Overlay)
}

// NewTrigger creates an idle trigger
func NewTrigger(scheduler clock.Scheduler, opts Options) *Trigger {
	if opts.Policy == "" {
		opts.Policy = RetriggerAlways
	}
	return &Trigger{
		scheduler: scheduler,
		opts:      opts,
		state:     StateIdle,
		shown:     make(map[string]bool),
	}
}

// OnChange registers a callback invoked after every overlay change
func (t *Trigger) OnChange(fn func(Overlay)) {
	t.onChange = fn
}

// State returns the current trigger state
func (t *Trigger) State() State {
	return t.state
}

// Snapshot returns the overlay as it should be rendered
func (t *Trigger) Snapshot() Overlay {
	overlay := Overlay{
		State:   t.state,
		Visible: t.visible,
		ClipID:  t.clipID,
	}
	if t.payload != nil {
		payload := *t.payload
		overlay.Payload = &payload
	}
	return overlay
}

// Observe feeds the trigger the current catalog and playhead. It arms when
// playback enters a licensed span and dismisses an overlay whose clip no
// longer covers the playhead.
func (t *Trigger) Observe(clips []models.Clip, currentTime int64, playing bool) {
	match, ok := FindLicensed(clips, currentTime)
	matchID := ""
	if ok {
		matchID = match.ID
	}

	if t.state != StateIdle && matchID != t.clipID {
		t.dismiss()
	}

	entered := ok && matchID != t.inside
	t.inside = matchID

	if !entered || !playing || t.state != StateIdle {
		return
	}
	if t.opts.Policy == RetriggerOnce && t.shown[matchID] {
		return
	}
	t.arm(match)
}

// Close hides the overlay on request. It is a no-op returning false when
// the trigger is already idle.
func (t *Trigger) Close() bool {
	if t.state == StateIdle {
		return false
	}
	t.dismiss()
	return true
}

// Rearm forgets the last entry edge so the next observation inside a
// licensed span counts as entering it. Called when playback starts.
func (t *Trigger) Rearm() {
	t.inside = ""
}

// ResetHistory forgets which clips have been shown under RetriggerOnce
func (t *Trigger) ResetHistory() {
	t.shown = make(map[string]bool)
}

// Stop cancels every pending timer and clears the overlay immediately
func (t *Trigger) Stop() {
	t.cancelPending()
	t.cancelFade()
	changed := t.state != StateIdle || t.payload != nil
	t.state = StateIdle
	t.visible = false
	t.payload = nil
	t.clipID = ""
	t.inside = ""
	if changed {
		t.notify()
	}
}

func (t *Trigger) arm(clip *models.Clip) {
	if !t.transition(StateArmed) {
		return
	}
	t.clipID = clip.ID
	t.armed = *clip.Attribution

	if t.opts.ShowDelay <= 0 {
		t.show()
		return
	}

	t.pendingGen++
	gen := t.pendingGen
	t.pending = t.scheduler.After(t.opts.ShowDelay, func() {
		if gen != t.pendingGen || t.state != StateArmed {
			return
		}
		t.show()
	})
	t.notify()
}

func (t *Trigger) show() {
	// A fade from the previous overlay must not clear this payload
	t.cancelFade()
	if !t.transition(StateShowing) {
		return
	}

	payload := t.armed
	t.payload = &payload
	t.visible = true
	t.shown[t.clipID] = true

	t.pendingGen++
	gen := t.pendingGen
	t.pending = t.scheduler.After(t.opts.DismissAfter, func() {
		if gen != t.pendingGen || t.state != StateShowing {
			return
		}
		t.dismiss()
	})
	t.notify()
}

func (t *Trigger) dismiss() {
	t.cancelPending()
	wasShowing := t.state == StateShowing
	if !t.transition(StateIdle) {
		return
	}
	t.visible = false

	if !wasShowing {
		t.clipID = ""
		t.notify()
		return
	}

	if t.opts.FadeOut <= 0 {
		t.clearPayload()
		return
	}

	t.fadeGen++
	gen := t.fadeGen
	t.fade = t.scheduler.After(t.opts.FadeOut, func() {
		if gen != t.fadeGen {
			return
		}
		t.fade = nil
		t.clearPayload()
	})
	t.notify()
}

func (t *Trigger) clearPayload() {
	t.payload = nil
	t.clipID = ""
	t.notify()
}

// transition moves the state machine, refusing moves CanTransitionTo rejects
func (t *Trigger) transition(next State) bool {
	if !t.state.CanTransitionTo(next) {
		logger.Log.Error().
			Err(fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, t.state, next)).
			Str("clip_id", t.clipID).
			Msg("Attribution trigger rejected transition")
		return false
	}
	t.state = next
	return true
}

func (t *Trigger) cancelPending() {
	t.pendingGen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

func (t *Trigger) cancelFade() {
	t.fadeGen++
	if t.fade != nil {
		t.fade.Stop()
		t.fade = nil
	}
}

func (t *Trigger) notify() {
	if t.onChange != nil {
		t.onChange(t.Snapshot())
	}
}
