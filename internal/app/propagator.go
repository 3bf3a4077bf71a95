package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/AmevinLS/bigdata-reservation/internal/domain"
)

type JobKind int

const (
	// JobClaim copies a freshly claimed reservation into the by-id and
	// by-customer views and sets the book's reservation pointer.
	JobClaim JobKind = iota
	// JobDateChange pushes an advanced reservation date to the by-book and
	// by-id views after the by-customer view accepted it.
	JobDateChange
)

// PropagationJob carries the full idempotent tuple, so applying it twice
// is harmless and retries are always safe.
type PropagationJob struct {
	Kind        JobKind
	Reservation domain.Reservation
}

// PropagationStore applies secondary writes. Implementations must be
// idempotent per reservation id.
type PropagationStore interface {
	PropagateClaim(ctx context.Context, res domain.Reservation) error
	PropagateDateChange(ctx context.Context, res domain.Reservation) error
}

// PropagationQueue lands secondary-view writes in the background. A failed
// write is retried with exponential backoff until acknowledged or until the
// per-job retry budget runs out; dropping a job leaves the by-customer and
// by-id views lagging, which the read path tolerates because the by-book
// view stays authoritative.
type PropagationQueue struct {
	store  PropagationStore
	logger *log.Logger

	jobs    chan PropagationJob
	pending sync.WaitGroup

	mu     sync.Mutex
	closed bool

	workers    int
	jobTimeout time.Duration
	maxElapsed time.Duration
	interval   time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

const (
	defaultPropagationWorkers    = 4
	defaultPropagationBuffer     = 256
	defaultPropagationJobTimeout = 5 * time.Second
	defaultPropagationBudget     = 30 * time.Second
	defaultPropagationInterval   = 50 * time.Millisecond
)

func NewPropagationQueue(store PropagationStore, logger *log.Logger, opts ...PropagationQueueOption) *PropagationQueue {
	if logger == nil {
		logger = log.Default()
	}
	q := &PropagationQueue{
		store:      store,
		logger:     logger,
		jobs:       make(chan PropagationJob, defaultPropagationBuffer),
		workers:    defaultPropagationWorkers,
		jobTimeout: defaultPropagationJobTimeout,
		maxElapsed: defaultPropagationBudget,
		interval:   defaultPropagationInterval,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

type PropagationQueueOption func(*PropagationQueue)

func WithPropagationWorkers(n int) PropagationQueueOption {
	return func(q *PropagationQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithRetryBudget bounds how long a single job keeps retrying.
func WithRetryBudget(d time.Duration) PropagationQueueOption {
	return func(q *PropagationQueue) {
		if d > 0 {
			q.maxElapsed = d
		}
	}
}

// WithRetryInterval sets the initial backoff interval (tests shrink it).
func WithRetryInterval(d time.Duration) PropagationQueueOption {
	return func(q *PropagationQueue) {
		if d > 0 {
			q.interval = d
		}
	}
}

// Start launches the worker pool. Safe to call once; Enqueue before Start
// only buffers.
func (q *PropagationQueue) Start() {
	q.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		q.cancel = cancel

		var wg sync.WaitGroup
		for i := 0; i < q.workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q.run(ctx)
			}()
		}
		go func() {
			wg.Wait()
			close(q.done)
		}()
	})
}

// Enqueue hands a job to the queue without blocking the caller beyond
// channel capacity. The request that produced the job has already
// committed its primary write, so a job arriving when the queue is full
// or already closed is applied inline rather than lost.
func (q *PropagationQueue) Enqueue(job PropagationJob) {
	q.pending.Add(1)

	q.mu.Lock()
	if !q.closed {
		select {
		case q.jobs <- job:
			q.mu.Unlock()
			return
		default:
		}
	}
	q.mu.Unlock()

	go func() {
		defer q.pending.Done()
		q.process(context.Background(), job)
	}()
}

// Flush blocks until every enqueued job has been applied or dropped.
// Intended for tests and shutdown.
func (q *PropagationQueue) Flush(ctx context.Context) error {
	waited := make(chan struct{})
	go func() {
		q.pending.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the workers after draining what can be drained within ctx.
func (q *PropagationQueue) Close(ctx context.Context) error {
	err := q.Flush(ctx)
	q.stopOnce.Do(func() {
		// The closed flag keeps a late Enqueue off the channel; taking the
		// lock here orders the close after any send already in flight.
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		if q.cancel != nil {
			q.cancel()
		}
		close(q.jobs)
	})
	if q.cancel != nil {
		select {
		case <-q.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (q *PropagationQueue) run(ctx context.Context) {
	for job := range q.jobs {
		q.process(ctx, job)
		q.pending.Done()
	}
}

func (q *PropagationQueue) process(ctx context.Context, job PropagationJob) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = q.interval
	bo.MaxElapsedTime = q.maxElapsed

	err := backoff.Retry(func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, q.jobTimeout)
		defer cancel()
		applyErr := q.apply(attemptCtx, job)
		if errors.Is(applyErr, domain.ErrInvalidID) {
			// A malformed id never heals; burn no budget on it.
			return backoff.Permanent(applyErr)
		}
		return applyErr
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		// The reservation stays committed in the by-book view; only the
		// secondary views lag. Needs out-of-band repair.
		q.logger.Printf("propagation dropped kind=%d reservation_id=%s book_id=%d err=%v",
			job.Kind, job.Reservation.ID, job.Reservation.BookID, err)
	}
}

func (q *PropagationQueue) apply(ctx context.Context, job PropagationJob) error {
	switch job.Kind {
	case JobDateChange:
		return q.store.PropagateDateChange(ctx, job.Reservation)
	default:
		return q.store.PropagateClaim(ctx, job.Reservation)
	}
}
