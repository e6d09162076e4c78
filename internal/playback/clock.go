// Package playback provides the playback clock that advances a session's
// current time while playing and loops at the end of the timeline.
package playback

import (
	"fmt"
	"time"

	"github.com/stwalsh4118/fairshare/internal/clock"
)

const (
	// DefaultTickInterval is the wall time between one-second advances
	DefaultTickInterval = time.Second

	stepSeconds = 1
)

// State is a snapshot of the playback clock
type State struct {
	IsPlaying     bool  `json:"is_playing"`
	CurrentTime   int64 `json:"current_time"`
	TotalDuration int64 `json:"total_duration"`
}

// Advance returns the time after one tick. The clock loops: reaching
// totalDuration wraps to zero. A non-positive total keeps time at zero.
func Advance(current, totalDuration int64) int64 {
	if totalDuration <= 0 {
		return 0
	}
	return (current + stepSeconds) % totalDuration
}

// Clock advances the current time on a fixed cadence while playing.
// It is not safe for concurrent use; callers serialize access (see
// clock.Serialized).
type Clock struct {
	scheduler clock.Scheduler
	interval  time.Duration
	state     State
	ticker    clock.Timer

	// generation invalidates tick callbacks scheduled before the last pause
	generation uint64
	observers  []func(State)
}

// NewClock creates a paused clock at time zero
func NewClock(scheduler clock.Scheduler, totalDuration int64, interval time.Duration) *Clock {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Clock{
		scheduler: scheduler,
		interval:  interval,
		state: State{
			TotalDuration: totalDuration,
		},
	}
}

// OnTick registers an observer called after every tick with the new state
func (c *Clock) OnTick(fn func(State)) {
	c.observers = append(c.observers, fn)
}

// State returns the current playback state
func (c *Clock) State() State {
	return c.state
}

// Start begins advancing time. It returns false if already playing.
func (c *Clock) Start() bool {
	if c.state.IsPlaying {
		return false
	}
	c.state.IsPlaying = true
	c.generation++
	gen := c.generation
	c.ticker = c.scheduler.Every(c.interval, func() {
		c.tick(gen)
	})
	return true
}

// Pause stops advancing time and keeps the current position.
// It returns false if already paused.
func (c *Clock) Pause() bool {
	if !c.state.IsPlaying {
		return false
	}
	c.state.IsPlaying = false
	c.cancelTicker()
	return true
}

// Toggle starts a paused clock or pauses a playing one
func (c *Clock) Toggle() State {
	if c.state.IsPlaying {
		c.Pause()
	} else {
		c.Start()
	}
	return c.state
}

// ResetToStart moves the playhead to zero without changing IsPlaying
func (c *Clock) ResetToStart() {
	c.state.CurrentTime = 0
}

// Seek moves the playhead to t without changing IsPlaying
func (c *Clock) Seek(t int64) error {
	if t < 0 || (c.state.TotalDuration > 0 && t >= c.state.TotalDuration) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrSeekOutOfRange, t, c.state.TotalDuration)
	}
	if c.state.TotalDuration <= 0 {
		t = 0
	}
	c.state.CurrentTime = t
	return nil
}

// SetTotalDuration rescales the loop length. A playhead beyond the new end
// returns to zero.
func (c *Clock) SetTotalDuration(totalDuration int64) {
	c.state.TotalDuration = totalDuration
	if totalDuration <= 0 || c.state.CurrentTime >= totalDuration {
		c.state.CurrentTime = 0
	}
}

// Close pauses the clock and releases its timer
func (c *Clock) Close() {
	c.state.IsPlaying = false
	c.cancelTicker()
}

func (c *Clock) cancelTicker() {
	c.generation++
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

func (c *Clock) tick(gen uint64) {
	if gen != c.generation || !c.state.IsPlaying {
		return
	}
	c.state.CurrentTime = Advance(c.state.CurrentTime, c.state.TotalDuration)
	for _, fn := range c.observers {
		fn(c.state)
	}
}
