package notify

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the state of a Breaker
type BreakerState int

const (
	// BreakerClosed lets writes through
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects writes until the reset timeout passes
	BreakerOpen
	// BreakerHalfOpen lets one probe write through
	BreakerHalfOpen
)

// String returns the string representation of BreakerState
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen indicates the store is being skipped after repeated failures
var ErrBreakerOpen = errors.New("notice store circuit breaker is open")

// Breaker stops hammering a failing notice store. After threshold
// consecutive failures it opens; once resetTimeout has passed it lets a
// single probe through and closes again if that succeeds.
type Breaker struct {
	threshold    int
	resetTimeout time.Duration
	now          func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
}

// NewBreaker creates a closed breaker
func NewBreaker(threshold int, resetTimeout time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
		state:        BreakerClosed,
	}
}

// Call runs fn unless the breaker is open
func (b *Breaker) Call(fn func() error) error {
	if !b.allow() {
		return ErrBreakerOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.lastFailure = b.now()
		if b.state == BreakerHalfOpen || b.failures >= b.threshold {
			b.state = BreakerOpen
		}
		return err
	}

	b.failures = 0
	b.state = BreakerClosed
	return nil
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refreshLocked()
	return b.state != BreakerOpen
}

// refreshLocked moves an expired open breaker to half-open (must hold lock)
func (b *Breaker) refreshLocked() {
	if b.state == BreakerOpen && b.now().Sub(b.lastFailure) >= b.resetTimeout {
		b.state = BreakerHalfOpen
		b.failures = 0
	}
}

// State returns the current breaker state
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refreshLocked()
	return b.state
}

// Failures returns the consecutive failure count
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
