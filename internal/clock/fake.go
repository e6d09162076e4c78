package clock

import (
	"sync"
	"time"
)

// Fake is a deterministic Scheduler for tests. Time only moves when Advance
// is called, and due callbacks run synchronously on the caller's goroutine.
type Fake struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	fake     *Fake
	seq      uint64
	due      time.Duration
	interval time.Duration // zero for one-shot timers
	fn       func()
	stopped  bool
}

// NewFake creates a fake scheduler at virtual time zero
func NewFake() *Fake {
	return &Fake{}
}

// Every schedules fn to run every interval of virtual time
func (f *Fake) Every(interval time.Duration, fn func()) Timer {
	if interval <= 0 {
		interval = time.Nanosecond
	}
	return f.add(interval, interval, fn)
}

// After schedules fn to run once after delay of virtual time
func (f *Fake) After(delay time.Duration, fn func()) Timer {
	if delay < 0 {
		delay = 0
	}
	return f.add(delay, 0, fn)
}

func (f *Fake) add(delay, interval time.Duration, fn func()) *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{
		fake:     f,
		seq:      f.seq,
		due:      f.now + delay,
		interval: interval,
		fn:       fn,
	}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves virtual time forward by d, firing every timer that comes due
// in due order. Timers with equal due times fire in scheduling order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now + d
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextDueLocked(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = next.due
		if next.interval > 0 {
			next.due += next.interval
		} else {
			next.stopped = true
			f.removeLocked(next)
		}
		fn := next.fn
		f.mu.Unlock()

		// Callbacks may schedule or stop timers, so run them unlocked
		fn()
	}
}

// Now returns the virtual time elapsed since the fake was created
func (f *Fake) Now() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Pending returns the number of live timers
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *Fake) nextDueLocked(target time.Duration) *fakeTimer {
	var next *fakeTimer
	for _, t := range f.timers {
		if t.due > target {
			continue
		}
		if next == nil || t.due < next.due || (t.due == next.due && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (f *Fake) removeLocked(target *fakeTimer) {
	for i, t := range f.timers {
		if t == target {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}

// Stop cancels the timer
func (t *fakeTimer) Stop() bool {
	t.fake.mu.Lock()
	defer t.fake.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	t.fake.removeLocked(t)
	return true
}
