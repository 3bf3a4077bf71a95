package cassandra

import (
	"context"

	"github.com/gocql/gocql"
)

// AdminRepository hosts the bulk clears behind the administrative reset.
type AdminRepository struct {
	session *gocql.Session
	books   *BookRepository
}

func NewAdminRepository(session *gocql.Session) *AdminRepository {
	return &AdminRepository{
		session: session,
		books:   NewBookRepository(session),
	}
}

func (r *AdminRepository) TruncateReservationsByBook(ctx context.Context) error {
	return r.truncate(ctx, "reservations_by_book_id")
}

func (r *AdminRepository) TruncateReservationsByID(ctx context.Context) error {
	return r.truncate(ctx, "reservations_by_id")
}

func (r *AdminRepository) TruncateReservationsByCustomer(ctx context.Context) error {
	return r.truncate(ctx, "reservations_by_customer_id")
}

func (r *AdminRepository) ClearReservationPointers(ctx context.Context) error {
	return r.books.ClearReservationPointers(ctx)
}

func (r *AdminRepository) truncate(ctx context.Context, table string) error {
	if err := r.session.Query(`TRUNCATE TABLE ` + table).WithContext(ctx).Exec(); err != nil {
		return classify("truncate "+table, err)
	}
	return nil
}
