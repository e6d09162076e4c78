// Package clock provides the timer abstraction used by studio sessions.
// Production code runs on wall-clock timers; tests drive a Fake.
package clock

import (
	"sync"
	"time"
)

// Timer is a handle to a scheduled callback
type Timer interface {
	// Stop cancels the timer. It returns false if the timer had already
	// fired (one-shot) or been stopped.
	Stop() bool
}

// Scheduler schedules repeating and one-shot callbacks
type Scheduler interface {
	Every(interval time.Duration, fn func()) Timer
	After(delay time.Duration, fn func()) Timer
}

// RealScheduler schedules callbacks on wall-clock time
type RealScheduler struct{}

// NewRealScheduler creates a scheduler backed by the time package
func NewRealScheduler() *RealScheduler {
	return &RealScheduler{}
}

// Every runs fn on its own goroutine once per interval until stopped
func (s *RealScheduler) Every(interval time.Duration, fn func()) Timer {
	t := &tickerTimer{
		ticker:   time.NewTicker(interval),
		stopChan: make(chan struct{}),
	}
	go t.run(fn)
	return t
}

// After runs fn once after delay
func (s *RealScheduler) After(delay time.Duration, fn func()) Timer {
	return time.AfterFunc(delay, fn)
}

type tickerTimer struct {
	ticker   *time.Ticker
	stopChan chan struct{}
	once     sync.Once
}

func (t *tickerTimer) run(fn func()) {
	for {
		select {
		case <-t.stopChan:
			return
		case <-t.ticker.C:
			// A tick that raced with Stop must not run
			select {
			case <-t.stopChan:
				return
			default:
			}
			fn()
		}
	}
}

// Stop halts the ticker. It does not wait for an in-flight callback.
func (t *tickerTimer) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.stopChan)
		stopped = true
	})
	return stopped
}

// Serialized wraps a scheduler so every callback runs while holding locker.
// Sessions use it to keep timer callbacks and API calls mutually exclusive.
func Serialized(inner Scheduler, locker sync.Locker) Scheduler {
	return &serialized{inner: inner, locker: locker}
}

type serialized struct {
	inner  Scheduler
	locker sync.Locker
}

func (s *serialized) Every(interval time.Duration, fn func()) Timer {
	return s.inner.Every(interval, s.wrap(fn))
}

func (s *serialized) After(delay time.Duration, fn func()) Timer {
	return s.inner.After(delay, s.wrap(fn))
}

func (s *serialized) wrap(fn func()) func() {
	return func() {
		s.locker.Lock()
		defer s.locker.Unlock()
		fn()
	}
}
