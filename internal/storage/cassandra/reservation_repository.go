package cassandra

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"github.com/AmevinLS/bigdata-reservation/internal/domain"
)

// ReservationRepository executes the reservation protocol's CQL against
// the three denormalized views. The driver prepares parameterized
// statements on first use and reuses them afterwards.
type ReservationRepository struct {
	session *gocql.Session
}

func NewReservationRepository(session *gocql.Session) *ReservationRepository {
	return &ReservationRepository{session: session}
}

const (
	claimBookCQL = `INSERT INTO reservations_by_book_id (book_id, customer_id, reservation_id, reservation_date) VALUES (?, ?, ?, ?) IF NOT EXISTS`

	advanceDateCQL = `UPDATE reservations_by_customer_id SET reservation_date = ? WHERE customer_id = ? AND book_id = ? IF reservation_date < ?`

	countByCustomerCQL = `SELECT COUNT(*) FROM reservations_by_customer_id WHERE customer_id = ?`

	selectByBookCQL = `SELECT reservation_id, book_id, customer_id, reservation_date FROM reservations_by_book_id WHERE book_id = ?`

	selectByCustomerAndBookCQL = `SELECT reservation_id, book_id, customer_id, reservation_date FROM reservations_by_customer_id WHERE customer_id = ? AND book_id = ?`

	selectByCustomerCQL = `SELECT reservation_id, book_id, customer_id, reservation_date FROM reservations_by_customer_id WHERE customer_id = ?`

	selectAllCQL = `SELECT reservation_id, book_id, customer_id, reservation_date FROM reservations_by_customer_id`

	insertByIDCQL = `INSERT INTO reservations_by_id (reservation_id, book_id, customer_id, reservation_date) VALUES (?, ?, ?, ?) USING TIMESTAMP ?`

	insertByCustomerCQL = `INSERT INTO reservations_by_customer_id (customer_id, book_id, reservation_id, reservation_date) VALUES (?, ?, ?, ?) USING TIMESTAMP ?`

	setBookPointerCQL = `UPDATE books USING TIMESTAMP ? SET reservation_id = ? WHERE book_id = ?`

	setDateByBookCQL = `UPDATE reservations_by_book_id USING TIMESTAMP ? SET reservation_date = ? WHERE book_id = ?`

	setDateByIDCQL = `UPDATE reservations_by_id USING TIMESTAMP ? SET reservation_date = ? WHERE reservation_id = ?`
)

// ClaimBook is the single point of truth for exclusivity: a linearizable
// insert-if-absent on the by-book view. Exactly one concurrent caller per
// book observes applied=true. The cluster retry policy can re-send an
// insert whose first attempt applied but whose ack timed out; the replay
// then reads back the caller's own row with applied=false, so the outcome
// is decided against the attempted tuple rather than the flag alone.
func (r *ReservationRepository) ClaimBook(ctx context.Context, res domain.Reservation) error {
	id, err := gocql.ParseUUID(res.ID)
	if err != nil {
		return domain.ErrInvalidID
	}

	prev := map[string]interface{}{}
	applied, err := r.session.Query(claimBookCQL, res.BookID, res.CustomerID, id, res.Date).
		WithContext(ctx).
		MapScanCAS(prev)
	if err != nil {
		return classifyConditional("claim book", err)
	}
	return claimOutcome(applied, prev, id)
}

// claimOutcome decides a conditional claim. A fresh random id can only
// already sit in the row if this claim wrote it on an earlier attempt, so
// finding our own id means the claim committed and the replay succeeds.
func claimOutcome(applied bool, prev map[string]interface{}, id gocql.UUID) error {
	if applied {
		return nil
	}
	if holder, ok := prev["reservation_id"].(gocql.UUID); ok && holder == id {
		return nil
	}
	return domain.ErrBookReserved
}

// AdvanceDate applies the monotonicity guard on the by-customer view.
// When the condition fails Cassandra returns the prior row alongside
// applied=false; an empty prior row means the reservation does not exist
// in this view (yet).
func (r *ReservationRepository) AdvanceDate(ctx context.Context, customerID, bookID int, newDate int64) error {
	prev := map[string]interface{}{}
	applied, err := r.session.Query(advanceDateCQL, newDate, customerID, bookID, newDate).
		WithContext(ctx).
		MapScanCAS(prev)
	if err != nil {
		return classifyConditional("advance reservation date", err)
	}
	return advanceOutcome(applied, prev, newDate)
}

// advanceOutcome decides a conditional date advance. A stored date equal
// to the attempted one means this very update already committed on an
// earlier attempt the driver retried, so the replay succeeds instead of
// reporting a stale update.
func advanceOutcome(applied bool, prev map[string]interface{}, newDate int64) error {
	if applied {
		return nil
	}
	if len(prev) == 0 {
		return domain.ErrReservationNotFound
	}
	if stored, ok := prev["reservation_date"].(int64); ok && stored == newDate {
		return nil
	}
	return domain.ErrStaleUpdate
}

func (r *ReservationRepository) CountByCustomer(ctx context.Context, customerID int) (int, error) {
	var count int
	err := r.session.Query(countByCustomerCQL, customerID).
		WithContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, classify("count reservations", err)
	}
	return count, nil
}

func (r *ReservationRepository) GetByBook(ctx context.Context, bookID int) (*domain.Reservation, error) {
	return r.getOne(ctx, "get reservation by book", selectByBookCQL, bookID)
}

func (r *ReservationRepository) GetByCustomerAndBook(ctx context.Context, customerID, bookID int) (*domain.Reservation, error) {
	return r.getOne(ctx, "get reservation by customer and book", selectByCustomerAndBookCQL, customerID, bookID)
}

func (r *ReservationRepository) getOne(ctx context.Context, op, cql string, args ...interface{}) (*domain.Reservation, error) {
	var (
		id  gocql.UUID
		res domain.Reservation
	)
	err := r.session.Query(cql, args...).
		WithContext(ctx).
		Scan(&id, &res.BookID, &res.CustomerID, &res.Date)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	res.ID = id.String()
	return &res, nil
}

func (r *ReservationRepository) ListByCustomer(ctx context.Context, customerID int) ([]domain.Reservation, error) {
	return r.list(ctx, "list reservations by customer", selectByCustomerCQL, customerID)
}

func (r *ReservationRepository) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	return r.list(ctx, "list reservations", selectAllCQL)
}

func (r *ReservationRepository) list(ctx context.Context, op, cql string, args ...interface{}) ([]domain.Reservation, error) {
	iter := r.session.Query(cql, args...).WithContext(ctx).Iter()

	out := make([]domain.Reservation, 0, iter.NumRows())
	var (
		id  gocql.UUID
		res domain.Reservation
	)
	for iter.Scan(&id, &res.BookID, &res.CustomerID, &res.Date) {
		res.ID = id.String()
		out = append(out, res)
	}
	if err := iter.Close(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// writeTimestamp turns a reservation date into the explicit write
// timestamp for propagation statements. Stamping each overwrite with the
// date it carries makes propagation commutative: workers can apply jobs
// in any order and a late replay of an older date cannot regress a newer
// one already landed.
func writeTimestamp(dateMillis int64) int64 {
	return dateMillis * 1000 // CQL timestamps are microseconds
}

// PropagateClaim lands a committed claim in the secondary views: the by-id
// and by-customer copies plus the catalog's reservation pointer. All three
// are unconditional overwrites keyed by values from the committed tuple,
// so replaying the job is a no-op in effect.
func (r *ReservationRepository) PropagateClaim(ctx context.Context, res domain.Reservation) error {
	id, err := gocql.ParseUUID(res.ID)
	if err != nil {
		return domain.ErrInvalidID
	}
	ts := writeTimestamp(res.Date)

	if err := r.session.Query(insertByIDCQL, id, res.BookID, res.CustomerID, res.Date, ts).
		WithContext(ctx).Exec(); err != nil {
		return classify("propagate to by-id view", err)
	}
	if err := r.session.Query(insertByCustomerCQL, res.CustomerID, res.BookID, id, res.Date, ts).
		WithContext(ctx).Exec(); err != nil {
		return classify("propagate to by-customer view", err)
	}
	if err := r.session.Query(setBookPointerCQL, ts, id, res.BookID).
		WithContext(ctx).Exec(); err != nil {
		return classify("set book reservation pointer", err)
	}
	return nil
}

// PropagateDateChange pushes an already-accepted date to the by-book and
// by-id views. The by-customer view holds the new date already; it was the
// CAS target.
func (r *ReservationRepository) PropagateDateChange(ctx context.Context, res domain.Reservation) error {
	id, err := gocql.ParseUUID(res.ID)
	if err != nil {
		return domain.ErrInvalidID
	}
	ts := writeTimestamp(res.Date)

	if err := r.session.Query(setDateByBookCQL, ts, res.Date, res.BookID).
		WithContext(ctx).Exec(); err != nil {
		return classify("propagate date to by-book view", err)
	}
	if err := r.session.Query(setDateByIDCQL, ts, res.Date, id).
		WithContext(ctx).Exec(); err != nil {
		return classify("propagate date to by-id view", err)
	}
	return nil
}

// GetByID looks a reservation up by its handle in the by-id view.
func (r *ReservationRepository) GetByID(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	id, err := gocql.ParseUUID(reservationID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var res domain.Reservation
	var got gocql.UUID
	err = r.session.Query(`SELECT reservation_id, book_id, customer_id, reservation_date FROM reservations_by_id WHERE reservation_id = ?`, id).
		WithContext(ctx).
		Scan(&got, &res.BookID, &res.CustomerID, &res.Date)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, nil
		}
		return nil, classify("get reservation by id", err)
	}
	res.ID = got.String()
	return &res, nil
}
