package cassandra_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/AmevinLS/bigdata-reservation/internal/domain"
	"github.com/AmevinLS/bigdata-reservation/internal/storage/cassandra"
	"github.com/AmevinLS/bigdata-reservation/internal/testutil"
)

func TestReservationRepository(t *testing.T) {
	session := testutil.NewTestSession(t)
	repo := cassandra.NewReservationRepository(session)

	nowMillis := func() int64 {
		return time.Now().UnixMilli()
	}

	newReservation := func(bookID, customerID int) domain.Reservation {
		return domain.Reservation{
			ID:         uuid.NewString(),
			BookID:     bookID,
			CustomerID: customerID,
			Date:       nowMillis(),
		}
	}

	t.Run("ClaimBook admits exactly one claimant per book", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, session)

		first := newReservation(1, 10)
		if err := repo.ClaimBook(ctx, first); err != nil {
			t.Fatalf("expected first claim to succeed, got %v", err)
		}

		second := newReservation(1, 20)
		if err := repo.ClaimBook(ctx, second); !errors.Is(err, domain.ErrBookReserved) {
			t.Fatalf("expected ErrBookReserved, got %v", err)
		}

		got, err := repo.GetByBook(ctx, 1)
		if err != nil {
			t.Fatalf("get by book: %v", err)
		}
		if got == nil || got.CustomerID != 10 || got.ID != first.ID {
			t.Fatalf("expected first claimant to hold the book, got %+v", got)
		}

		// Re-sending the committed tuple (as the driver does after a timed
		// out ack) must read as success, never as a conflict.
		if err := repo.ClaimBook(ctx, first); err != nil {
			t.Fatalf("expected claim replay to succeed, got %v", err)
		}
	})

	t.Run("PropagateClaim makes all views agree", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, session)
		testutil.InsertBook(t, session, 2, "Dune", "Frank Herbert")

		res := newReservation(2, 10)
		if err := repo.ClaimBook(ctx, res); err != nil {
			t.Fatalf("claim: %v", err)
		}
		if err := repo.PropagateClaim(ctx, res); err != nil {
			t.Fatalf("propagate claim: %v", err)
		}

		byID, err := repo.GetByID(ctx, res.ID)
		if err != nil {
			t.Fatalf("get by id: %v", err)
		}
		if byID == nil || byID.BookID != 2 || byID.CustomerID != 10 {
			t.Fatalf("unexpected by-id row: %+v", byID)
		}

		byCust, err := repo.GetByCustomerAndBook(ctx, 10, 2)
		if err != nil {
			t.Fatalf("get by customer and book: %v", err)
		}
		if byCust == nil || byCust.ID != res.ID || byCust.Date != res.Date {
			t.Fatalf("unexpected by-customer row: %+v", byCust)
		}

		books, err := cassandra.NewBookRepository(session).ListBooks(ctx)
		if err != nil {
			t.Fatalf("list books: %v", err)
		}
		var found bool
		for _, b := range books {
			if b.ID == 2 {
				found = true
				if b.ReservationID != res.ID {
					t.Fatalf("expected book pointer %s, got %s", res.ID, b.ReservationID)
				}
			}
		}
		if !found {
			t.Fatal("expected book 2 in catalog")
		}
	})

	t.Run("PropagateClaim is idempotent", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, session)

		res := newReservation(3, 10)
		if err := repo.ClaimBook(ctx, res); err != nil {
			t.Fatalf("claim: %v", err)
		}
		for i := 0; i < 3; i++ {
			if err := repo.PropagateClaim(ctx, res); err != nil {
				t.Fatalf("propagate attempt %d: %v", i, err)
			}
		}

		list, err := repo.ListByCustomer(ctx, 10)
		if err != nil {
			t.Fatalf("list by customer: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected exactly one row after replays, got %d", len(list))
		}
	})

	t.Run("AdvanceDate enforces forward-only dates", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, session)

		res := newReservation(4, 10)
		if err := repo.ClaimBook(ctx, res); err != nil {
			t.Fatalf("claim: %v", err)
		}
		if err := repo.PropagateClaim(ctx, res); err != nil {
			t.Fatalf("propagate: %v", err)
		}

		later := res.Date + 60_000
		if err := repo.AdvanceDate(ctx, 10, 4, later); err != nil {
			t.Fatalf("expected later date to be accepted, got %v", err)
		}

		// Re-sending the committed date must read as success.
		if err := repo.AdvanceDate(ctx, 10, 4, later); err != nil {
			t.Fatalf("expected replay of committed date to succeed, got %v", err)
		}
		if err := repo.AdvanceDate(ctx, 10, 4, res.Date); !errors.Is(err, domain.ErrStaleUpdate) {
			t.Fatalf("expected ErrStaleUpdate for earlier date, got %v", err)
		}

		got, err := repo.GetByCustomerAndBook(ctx, 10, 4)
		if err != nil {
			t.Fatalf("get by customer and book: %v", err)
		}
		if got == nil || got.Date != later {
			t.Fatalf("expected date %d to survive stale replays, got %+v", later, got)
		}
	})

	t.Run("AdvanceDate on a missing row reports not found", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, session)

		err := repo.AdvanceDate(ctx, 10, 99, nowMillis())
		if !errors.Is(err, domain.ErrReservationNotFound) {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	})

	t.Run("PropagateDateChange updates the secondary views", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, session)

		res := newReservation(5, 10)
		if err := repo.ClaimBook(ctx, res); err != nil {
			t.Fatalf("claim: %v", err)
		}
		if err := repo.PropagateClaim(ctx, res); err != nil {
			t.Fatalf("propagate claim: %v", err)
		}

		res.Date += 120_000
		if err := repo.PropagateDateChange(ctx, res); err != nil {
			t.Fatalf("propagate date change: %v", err)
		}

		byBook, err := repo.GetByBook(ctx, 5)
		if err != nil {
			t.Fatalf("get by book: %v", err)
		}
		if byBook == nil || byBook.Date != res.Date {
			t.Fatalf("expected by-book date %d, got %+v", res.Date, byBook)
		}

		byID, err := repo.GetByID(ctx, res.ID)
		if err != nil {
			t.Fatalf("get by id: %v", err)
		}
		if byID == nil || byID.Date != res.Date {
			t.Fatalf("expected by-id date %d, got %+v", res.Date, byID)
		}
	})

	t.Run("date propagation commutes across reordered replays", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, session)

		res := newReservation(6, 10)
		if err := repo.ClaimBook(ctx, res); err != nil {
			t.Fatalf("claim: %v", err)
		}
		if err := repo.PropagateClaim(ctx, res); err != nil {
			t.Fatalf("propagate claim: %v", err)
		}

		older := res
		older.Date = res.Date + 60_000
		newer := res
		newer.Date = res.Date + 120_000

		if err := repo.PropagateDateChange(ctx, newer); err != nil {
			t.Fatalf("propagate newer date: %v", err)
		}
		// A worker applying the older job late must not regress the views.
		if err := repo.PropagateDateChange(ctx, older); err != nil {
			t.Fatalf("propagate older date: %v", err)
		}

		byBook, err := repo.GetByBook(ctx, 6)
		if err != nil {
			t.Fatalf("get by book: %v", err)
		}
		if byBook == nil || byBook.Date != newer.Date {
			t.Fatalf("expected by-book date %d, got %+v", newer.Date, byBook)
		}
		byID, err := repo.GetByID(ctx, res.ID)
		if err != nil {
			t.Fatalf("get by id: %v", err)
		}
		if byID == nil || byID.Date != newer.Date {
			t.Fatalf("expected by-id date %d, got %+v", newer.Date, byID)
		}
	})

	t.Run("CountByCustomer counts only that customer's rows", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, session)

		for bookID := 10; bookID < 13; bookID++ {
			res := newReservation(bookID, 10)
			if err := repo.ClaimBook(ctx, res); err != nil {
				t.Fatalf("claim book %d: %v", bookID, err)
			}
			if err := repo.PropagateClaim(ctx, res); err != nil {
				t.Fatalf("propagate book %d: %v", bookID, err)
			}
		}
		other := newReservation(20, 30)
		if err := repo.ClaimBook(ctx, other); err != nil {
			t.Fatalf("claim: %v", err)
		}
		if err := repo.PropagateClaim(ctx, other); err != nil {
			t.Fatalf("propagate: %v", err)
		}

		count, err := repo.CountByCustomer(ctx, 10)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 3 {
			t.Fatalf("expected 3 reservations for customer 10, got %d", count)
		}
	})

	t.Run("Lookups on empty views return nil without error", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, session)

		if got, err := repo.GetByBook(ctx, 404); err != nil || got != nil {
			t.Fatalf("expected (nil, nil), got (%+v, %v)", got, err)
		}
		if got, err := repo.GetByCustomerAndBook(ctx, 1, 404); err != nil || got != nil {
			t.Fatalf("expected (nil, nil), got (%+v, %v)", got, err)
		}

		list, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("list all: %v", err)
		}
		if len(list) != 0 {
			t.Fatalf("expected empty list, got %d rows", len(list))
		}
	})
}
