package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/fairshare/internal/models"
)

type memoryStore struct {
	mu      sync.Mutex
	batches [][]*models.Notice
	err     error
}

func (s *memoryStore) CreateBatch(_ context.Context, notices []*models.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, append([]*models.Notice(nil), notices...))
	return nil
}

func (s *memoryStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func TestFanout(t *testing.T) {
	var got []string
	record := func(prefix string) Notifier {
		return Func(func(n *models.Notice) { got = append(got, prefix+n.Message) })
	}

	f := Fanout{record("a:"), nil, record("b:"), LogNotifier{}, Discard}
	f.Notify(models.NewNotice(uuid.New(), models.NoticeKindStatus, "hi"))

	assert.Equal(t, []string{"a:hi", "b:hi"}, got)
}

func TestStoreNotifier_FlushesOnClose(t *testing.T) {
	store := &memoryStore{}
	n := NewStoreNotifier(store, StoreOptions{BatchSize: 100, FlushInterval: time.Hour})
	session := uuid.New()

	for i := 0; i < 5; i++ {
		n.Notify(models.NewNotice(session, models.NoticeKindStatus, "tick"))
	}

	require.NoError(t, n.Close(context.Background()))
	assert.Equal(t, 5, store.total())
	assert.Equal(t, int64(5), n.Written())
	assert.Equal(t, int64(0), n.Dropped())

	// Notices after close are counted, not written
	n.Notify(models.NewNotice(session, models.NoticeKindStatus, "late"))
	assert.Equal(t, int64(1), n.Dropped())
	require.NoError(t, n.Close(context.Background()))
}

func TestStoreNotifier_FlushesFullBatches(t *testing.T) {
	store := &memoryStore{}
	n := NewStoreNotifier(store, StoreOptions{BatchSize: 2, FlushInterval: time.Hour})
	defer func() { _ = n.Close(context.Background()) }()

	session := uuid.New()
	for i := 0; i < 4; i++ {
		n.Notify(models.NewNotice(session, models.NoticeKindStatus, "x"))
	}

	require.Eventually(t, func() bool { return store.total() == 4 }, 2*time.Second, 5*time.Millisecond)
}

func TestStoreNotifier_FlushesOnInterval(t *testing.T) {
	store := &memoryStore{}
	n := NewStoreNotifier(store, StoreOptions{BatchSize: 100, FlushInterval: 10 * time.Millisecond})
	defer func() { _ = n.Close(context.Background()) }()

	n.Notify(models.NewNotice(uuid.New(), models.NoticeKindAttribution, "credit"))

	require.Eventually(t, func() bool { return store.total() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestStoreNotifier_FailingStoreDropsAndOpensBreaker(t *testing.T) {
	store := &memoryStore{err: errors.New("database is locked")}
	n := NewStoreNotifier(store, StoreOptions{
		BatchSize:     1,
		FlushInterval: time.Hour,
		Breaker:       NewBreaker(2, time.Hour),
	})

	session := uuid.New()
	for i := 0; i < 3; i++ {
		n.Notify(models.NewNotice(session, models.NoticeKindStatus, "x"))
	}
	require.NoError(t, n.Close(context.Background()))

	assert.Equal(t, int64(3), n.Dropped())
	assert.Equal(t, int64(0), n.Written())
	assert.Equal(t, BreakerOpen, n.BreakerState())
}
