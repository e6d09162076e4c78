package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stwalsh4118/fairshare/internal/logger"
	"github.com/stwalsh4118/fairshare/internal/models"
)

// Store notifier defaults
const (
	DefaultQueueSize     = 256
	DefaultBatchSize     = 32
	DefaultFlushInterval = 500 * time.Millisecond
	DefaultWriteTimeout  = 5 * time.Second
	DefaultBreakerFails  = 3
	DefaultBreakerReset  = 30 * time.Second
)

// StoreOptions tunes a StoreNotifier. Zero fields take the defaults.
type StoreOptions struct {
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	WriteTimeout  time.Duration
	Breaker       *Breaker
}

func (o StoreOptions) withDefaults() StoreOptions {
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = DefaultFlushInterval
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.Breaker == nil {
		o.Breaker = NewBreaker(DefaultBreakerFails, DefaultBreakerReset)
	}
	return o
}

// StoreNotifier persists notices in the background. Notify never blocks:
// when the queue is full, or the store keeps failing, notices are dropped
// and counted rather than stalling playback.
type StoreNotifier struct {
	store Store
	opts  StoreOptions

	mu     sync.RWMutex
	closed bool
	queue  chan *models.Notice
	done   chan struct{}

	written atomic.Int64
	dropped atomic.Int64
}

// NewStoreNotifier starts the background writer
func NewStoreNotifier(store Store, opts StoreOptions) *StoreNotifier {
	opts = opts.withDefaults()
	n := &StoreNotifier{
		store: store,
		opts:  opts,
		queue: make(chan *models.Notice, opts.QueueSize),
		done:  make(chan struct{}),
	}
	go n.run()
	return n
}

// Notify queues a notice for writing
func (n *StoreNotifier) Notify(notice *models.Notice) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.dropped.Add(1)
		return
	}

	select {
	case n.queue <- notice:
	default:
		n.dropped.Add(1)
		logger.Log.Warn().
			Str("session_id", notice.SessionID.String()).
			Msg("Notice queue full, dropping notice")
	}
}

// Close stops accepting notices, writes whatever is queued, and waits for
// the writer to finish or ctx to expire
func (n *StoreNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Written returns how many notices reached the store
func (n *StoreNotifier) Written() int64 {
	return n.written.Load()
}

// Dropped returns how many notices were discarded
func (n *StoreNotifier) Dropped() int64 {
	return n.dropped.Load()
}

// BreakerState reports whether the store is currently being skipped
func (n *StoreNotifier) BreakerState() BreakerState {
	return n.opts.Breaker.State()
}

func (n *StoreNotifier) run() {
	defer close(n.done)

	ticker := time.NewTicker(n.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]*models.Notice, 0, n.opts.BatchSize)
	for {
		select {
		case notice, ok := <-n.queue:
			if !ok {
				n.flush(batch)
				return
			}
			batch = append(batch, notice)
			if len(batch) >= n.opts.BatchSize {
				n.flush(batch)
				batch = make([]*models.Notice, 0, n.opts.BatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				n.flush(batch)
				batch = make([]*models.Notice, 0, n.opts.BatchSize)
			}
		}
	}
}

func (n *StoreNotifier) flush(batch []*models.Notice) {
	if len(batch) == 0 {
		return
	}

	err := n.opts.Breaker.Call(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), n.opts.WriteTimeout)
		defer cancel()
		return n.store.CreateBatch(ctx, batch)
	})
	if err != nil {
		n.dropped.Add(int64(len(batch)))
		logger.Log.Warn().
			Err(err).
			Int("count", len(batch)).
			Str("breaker", n.opts.Breaker.State().String()).
			Msg("Failed to persist notices")
		return
	}

	n.written.Add(int64(len(batch)))
}
