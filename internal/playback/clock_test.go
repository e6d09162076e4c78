package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/fairshare/internal/clock"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		total    int64
		expected int64
	}{
		{"Mid timeline", 10, 90, 11},
		{"Wraps at end", 89, 90, 0},
		{"Zero total", 5, 0, 0},
		{"Negative total", 5, -10, 0},
		{"Single second loop", 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Advance(tt.current, tt.total))
		})
	}
}

func TestClock_StartTicksOncePerInterval(t *testing.T) {
	fake := clock.NewFake()
	c := NewClock(fake, 240, time.Second)

	assert.True(t, c.Start())
	assert.False(t, c.Start(), "already playing")

	fake.Advance(3 * time.Second)
	state := c.State()
	assert.True(t, state.IsPlaying)
	assert.Equal(t, int64(3), state.CurrentTime)
	assert.Equal(t, 1, fake.Pending())
}

func TestClock_WrapsAtTotalDuration(t *testing.T) {
	fake := clock.NewFake()
	c := NewClock(fake, 90, time.Second)
	require.NoError(t, c.Seek(89))

	c.Start()
	fake.Advance(time.Second)

	assert.Equal(t, int64(0), c.State().CurrentTime, "89 + 1 wraps to 0, never 90")
}

func TestClock_PlayheadMonotonicWithOneWrapPerLoop(t *testing.T) {
	fake := clock.NewFake()
	const total = 30
	c := NewClock(fake, total, time.Second)

	wraps := 0
	last := c.State().CurrentTime
	c.OnTick(func(s State) {
		if s.CurrentTime < last {
			wraps++
			assert.Equal(t, int64(0), s.CurrentTime)
		}
		last = s.CurrentTime
	})

	c.Start()
	fake.Advance(3 * total * time.Second)

	assert.Equal(t, 3, wraps)
}

func TestClock_PauseCancelsTimer(t *testing.T) {
	fake := clock.NewFake()
	c := NewClock(fake, 240, time.Second)

	c.Start()
	fake.Advance(2 * time.Second)
	assert.True(t, c.Pause())
	assert.False(t, c.Pause(), "already paused")
	assert.Equal(t, 0, fake.Pending(), "no leaked tick timer")

	fake.Advance(10 * time.Second)
	assert.Equal(t, int64(2), c.State().CurrentTime, "time retained while paused")
	assert.False(t, c.State().IsPlaying)
}

func TestClock_Toggle(t *testing.T) {
	fake := clock.NewFake()
	c := NewClock(fake, 240, time.Second)

	assert.True(t, c.Toggle().IsPlaying)
	assert.False(t, c.Toggle().IsPlaying)
	assert.True(t, c.Toggle().IsPlaying)
	assert.Equal(t, 1, fake.Pending())
}

func TestClock_ResetToStartKeepsPlaying(t *testing.T) {
	fake := clock.NewFake()
	c := NewClock(fake, 240, time.Second)
	c.Start()
	fake.Advance(5 * time.Second)

	c.ResetToStart()
	assert.Equal(t, int64(0), c.State().CurrentTime)
	assert.True(t, c.State().IsPlaying)

	fake.Advance(time.Second)
	assert.Equal(t, int64(1), c.State().CurrentTime)
}

func TestClock_Seek(t *testing.T) {
	c := NewClock(clock.NewFake(), 90, time.Second)

	require.NoError(t, c.Seek(75))
	assert.Equal(t, int64(75), c.State().CurrentTime)

	assert.ErrorIs(t, c.Seek(90), ErrSeekOutOfRange)
	assert.ErrorIs(t, c.Seek(-1), ErrSeekOutOfRange)
	assert.Equal(t, int64(75), c.State().CurrentTime)
}

func TestClock_ZeroTotalStaysNeutral(t *testing.T) {
	fake := clock.NewFake()
	c := NewClock(fake, 0, time.Second)

	c.Start()
	fake.Advance(5 * time.Second)

	assert.Equal(t, int64(0), c.State().CurrentTime)
	require.NoError(t, c.Seek(42))
	assert.Equal(t, int64(0), c.State().CurrentTime)
}

func TestClock_SetTotalDuration(t *testing.T) {
	c := NewClock(clock.NewFake(), 240, time.Second)
	require.NoError(t, c.Seek(200))

	c.SetTotalDuration(300)
	assert.Equal(t, int64(200), c.State().CurrentTime)

	c.SetTotalDuration(90)
	assert.Equal(t, int64(0), c.State().CurrentTime)
	assert.Equal(t, int64(90), c.State().TotalDuration)
}

func TestClock_StaleTickIgnored(t *testing.T) {
	fake := clock.NewFake()
	c := NewClock(fake, 240, time.Second)
	c.Start()
	gen := c.generation

	c.Pause()
	c.Start()
	c.tick(gen)

	assert.Equal(t, int64(0), c.State().CurrentTime, "tick from a cancelled generation is dropped")
}

func TestClock_CloseReleasesTimer(t *testing.T) {
	fake := clock.NewFake()
	c := NewClock(fake, 240, time.Second)
	c.Start()

	c.Close()
	assert.False(t, c.State().IsPlaying)
	assert.Equal(t, 0, fake.Pending())
}
