package app

import (
	"context"

	"github.com/AmevinLS/bigdata-reservation/internal/clock"
	"github.com/AmevinLS/bigdata-reservation/internal/domain"
)

// ReservationRepository is the storage surface the reservation engine
// needs. The store offers per-key linearizable conditional writes and
// nothing stronger; every cross-view guarantee here is built on that.
type ReservationRepository interface {
	// ClaimBook inserts the reservation into the by-book view only if no
	// row exists for the book. Returns domain.ErrBookReserved when another
	// reservation already holds the book, domain.ErrIndeterminate when the
	// conditional write timed out with an unknown outcome.
	ClaimBook(ctx context.Context, res domain.Reservation) error
	// AdvanceDate moves the stored reservation_date in the by-customer
	// view forward, only if the stored date is strictly less than newDate.
	// Returns domain.ErrStaleUpdate or domain.ErrReservationNotFound when
	// the condition fails.
	AdvanceDate(ctx context.Context, customerID, bookID int, newDate int64) error
	CountByCustomer(ctx context.Context, customerID int) (int, error)
	GetByBook(ctx context.Context, bookID int) (*domain.Reservation, error)
	GetByCustomerAndBook(ctx context.Context, customerID, bookID int) (*domain.Reservation, error)
	ListByCustomer(ctx context.Context, customerID int) ([]domain.Reservation, error)
	ListAll(ctx context.Context) ([]domain.Reservation, error)
}

// Propagator receives the committed tuple after a successful claim or
// update and is responsible for landing it in the secondary views. The
// request path never waits on it.
type Propagator interface {
	Enqueue(job PropagationJob)
}

const defaultReservationLimit = 100

type ReservationService struct {
	repo       ReservationRepository
	propagator Propagator
	clock      clock.Clock
	limit      int
}

func NewReservationService(repo ReservationRepository, prop Propagator, clk clock.Clock, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:       repo,
		propagator: prop,
		clock:      clk,
		limit:      defaultReservationLimit,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationServiceOption func(*ReservationService)

// WithReservationLimit overrides the per-customer reservation cap.
func WithReservationLimit(limit int) ReservationServiceOption {
	return func(s *ReservationService) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

type MakeReservationInput struct {
	BookID     int
	CustomerID int
}

// MakeReservation claims a book for a customer. The quota check runs
// before the claim and is not atomic with it: concurrent requests from the
// same customer can each pass the check before any claim commits, so the
// cap can be overshot by the number of in-flight requests. The conditional
// insert into the by-book view is the only hard guarantee: exactly one
// concurrent claimant per book ever succeeds.
func (s *ReservationService) MakeReservation(ctx context.Context, in MakeReservationInput) (domain.Reservation, error) {
	count, err := s.repo.CountByCustomer(ctx, in.CustomerID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if count >= s.limit {
		return domain.Reservation{}, domain.ErrQuotaExceeded
	}

	res := domain.Reservation{
		ID:         newReservationID(),
		BookID:     in.BookID,
		CustomerID: in.CustomerID,
		Date:       s.clock.NowMillis(),
	}

	if err := s.repo.ClaimBook(ctx, res); err != nil {
		return domain.Reservation{}, err
	}

	// The claim is committed; secondary views catch up in the background.
	s.propagator.Enqueue(PropagationJob{Kind: JobClaim, Reservation: res})
	return res, nil
}

type UpdateReservationInput struct {
	BookID     int
	CustomerID int
	// Date is the new reservation date in milliseconds. Zero means "now".
	Date int64
}

// UpdateReservation moves an existing reservation's date forward under the
// monotonicity guard, then re-propagates the new date to the by-book and
// by-id views. Right after a claim, the by-customer row may not have
// landed yet; that narrow window surfaces as ErrReservationNotFound.
func (s *ReservationService) UpdateReservation(ctx context.Context, in UpdateReservationInput) (domain.Reservation, error) {
	newDate := in.Date
	if newDate == 0 {
		newDate = s.clock.NowMillis()
	}

	if err := s.repo.AdvanceDate(ctx, in.CustomerID, in.BookID, newDate); err != nil {
		return domain.Reservation{}, err
	}

	res, err := s.repo.GetByCustomerAndBook(ctx, in.CustomerID, in.BookID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if res == nil {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	res.Date = newDate

	s.propagator.Enqueue(PropagationJob{Kind: JobDateChange, Reservation: *res})
	return *res, nil
}

// GetByBook reads the authoritative by-book view.
func (s *ReservationService) GetByBook(ctx context.Context, bookID int) (domain.Reservation, error) {
	res, err := s.repo.GetByBook(ctx, bookID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if res == nil {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return *res, nil
}

// List returns reservations for one customer, or all reservations when
// customerID is nil. It reads the by-customer view, which may briefly lag
// a just-committed claim.
func (s *ReservationService) List(ctx context.Context, customerID *int) ([]domain.Reservation, error) {
	if customerID != nil {
		return s.repo.ListByCustomer(ctx, *customerID)
	}
	return s.repo.ListAll(ctx)
}
