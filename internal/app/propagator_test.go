package app

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmevinLS/bigdata-reservation/internal/domain"
)

func TestPropagationQueue_AppliesJobs(t *testing.T) {
	t.Parallel()

	store := newFlakyStore(0)
	q := NewPropagationQueue(store, discardLogger())
	q.Start()

	res := domain.Reservation{ID: newReservationID(), BookID: 7, CustomerID: 3, Date: 1000}
	q.Enqueue(PropagationJob{Kind: JobClaim, Reservation: res})
	q.Enqueue(PropagationJob{Kind: JobDateChange, Reservation: res})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx))
	require.NoError(t, q.Close(ctx))

	assert.Equal(t, 1, store.claims())
	assert.Equal(t, 1, store.dateChanges())
}

func TestPropagationQueue_RetriesUntilAcknowledged(t *testing.T) {
	t.Parallel()

	// The first two attempts fail; the tuple is idempotent so the retry
	// simply replays it.
	store := newFlakyStore(2)
	q := NewPropagationQueue(store, discardLogger(),
		WithPropagationWorkers(1),
		WithRetryInterval(time.Millisecond),
	)
	q.Start()

	q.Enqueue(PropagationJob{Kind: JobClaim, Reservation: domain.Reservation{ID: newReservationID(), BookID: 7}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx))

	assert.Equal(t, 1, store.claims(), "exactly one acknowledged apply")
	assert.Equal(t, 3, store.attempts(), "two failures plus the success")
}

func TestPropagationQueue_DropsAfterRetryBudget(t *testing.T) {
	t.Parallel()

	store := newFlakyStore(-1) // never succeeds
	q := NewPropagationQueue(store, discardLogger(),
		WithPropagationWorkers(1),
		WithRetryInterval(time.Millisecond),
		WithRetryBudget(20*time.Millisecond),
	)
	q.Start()

	q.Enqueue(PropagationJob{Kind: JobClaim, Reservation: domain.Reservation{ID: newReservationID(), BookID: 7}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx), "a dropped job must not wedge the queue")

	assert.Zero(t, store.claims())
	assert.Greater(t, store.attempts(), 1, "job was retried before being dropped")
}

func TestPropagationQueue_InlineWhenFull(t *testing.T) {
	t.Parallel()

	store := newFlakyStore(0)
	// Workers never started: the channel fills and Enqueue falls back to
	// applying inline so no tuple is lost.
	q := NewPropagationQueue(store, discardLogger())
	for i := 0; i < defaultPropagationBuffer+8; i++ {
		q.Enqueue(PropagationJob{Kind: JobClaim, Reservation: domain.Reservation{ID: newReservationID(), BookID: i}})
	}

	assert.Eventually(t, func() bool {
		return store.claims() >= 8
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPropagationQueue_EnqueueAfterCloseAppliesInline(t *testing.T) {
	t.Parallel()

	store := newFlakyStore(0)
	q := NewPropagationQueue(store, discardLogger())
	q.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))

	// A straggler racing shutdown must neither panic nor lose its tuple.
	q.Enqueue(PropagationJob{Kind: JobClaim, Reservation: domain.Reservation{ID: newReservationID(), BookID: 7}})
	require.NoError(t, q.Flush(ctx))

	assert.Equal(t, 1, store.claims())
}

func TestPropagationQueue_InvalidIDIsNotRetried(t *testing.T) {
	t.Parallel()

	store := newFlakyStore(-1)
	store.failErr = domain.ErrInvalidID
	q := NewPropagationQueue(store, discardLogger(),
		WithPropagationWorkers(1),
		WithRetryInterval(time.Millisecond),
	)
	q.Start()

	q.Enqueue(PropagationJob{Kind: JobClaim, Reservation: domain.Reservation{ID: "not-a-uuid", BookID: 7}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx))

	assert.Equal(t, 1, store.attempts(), "a malformed id can never heal")
	assert.Zero(t, store.claims())
}

type flakyStore struct {
	mu          sync.Mutex
	failures    int   // remaining failures; negative means fail forever
	failErr     error // error returned while failing
	tries       int
	claimCount  int
	changeCount int
}

func newFlakyStore(failures int) *flakyStore {
	return &flakyStore{failures: failures, failErr: errors.New("secondary write failed")}
}

func (s *flakyStore) PropagateClaim(_ context.Context, _ domain.Reservation) error {
	if err := s.attempt(); err != nil {
		return err
	}
	s.mu.Lock()
	s.claimCount++
	s.mu.Unlock()
	return nil
}

func (s *flakyStore) PropagateDateChange(_ context.Context, _ domain.Reservation) error {
	if err := s.attempt(); err != nil {
		return err
	}
	s.mu.Lock()
	s.changeCount++
	s.mu.Unlock()
	return nil
}

func (s *flakyStore) attempt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tries++
	if s.failures < 0 {
		return s.failErr
	}
	if s.failures > 0 {
		s.failures--
		return s.failErr
	}
	return nil
}

func (s *flakyStore) attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tries
}

func (s *flakyStore) claims() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimCount
}

func (s *flakyStore) dateChanges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeCount
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
