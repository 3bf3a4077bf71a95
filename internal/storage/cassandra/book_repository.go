package cassandra

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"github.com/AmevinLS/bigdata-reservation/internal/domain"
)

type BookRepository struct {
	session *gocql.Session
}

func NewBookRepository(session *gocql.Session) *BookRepository {
	return &BookRepository{session: session}
}

const (
	listBooksCQL    = `SELECT book_id, title, author, reservation_id FROM books`
	insertBookCQL   = `INSERT INTO books (book_id, title, author) VALUES (?, ?, ?) IF NOT EXISTS`
	maxBookIDCQL    = `SELECT MAX(book_id) FROM books`
	clearPointerCQL = `UPDATE books SET reservation_id = null WHERE book_id = ?`
)

var zeroUUID gocql.UUID

func (r *BookRepository) ListBooks(ctx context.Context) ([]domain.Book, error) {
	iter := r.session.Query(listBooksCQL).WithContext(ctx).Iter()

	out := make([]domain.Book, 0, iter.NumRows())
	var (
		book domain.Book
		id   gocql.UUID
	)
	for iter.Scan(&book.ID, &book.Title, &book.Author, &id) {
		// A null reservation_id scans as the zero UUID, which a random
		// reservation id can never be.
		book.ReservationID = ""
		if id != zeroUUID {
			book.ReservationID = id.String()
		}
		out = append(out, book)
	}
	if err := iter.Close(); err != nil {
		return nil, classify("list books", err)
	}
	return out, nil
}

func (r *BookRepository) InsertBook(ctx context.Context, book domain.Book) error {
	applied, err := r.session.Query(insertBookCQL, book.ID, book.Title, book.Author).
		WithContext(ctx).
		MapScanCAS(map[string]interface{}{})
	if err != nil {
		return classifyConditional("insert book", err)
	}
	if !applied {
		return domain.ErrBookExists
	}
	return nil
}

func (r *BookRepository) NextBookID(ctx context.Context) (int, error) {
	var max int
	err := r.session.Query(maxBookIDCQL).WithContext(ctx).Scan(&max)
	if err != nil && !errors.Is(err, gocql.ErrNotFound) {
		return 0, classify("next book id", err)
	}
	return max + 1, nil
}

// ClearReservationPointers nulls every book's reservation pointer, one
// partition at a time.
func (r *BookRepository) ClearReservationPointers(ctx context.Context) error {
	iter := r.session.Query(`SELECT book_id FROM books`).WithContext(ctx).Iter()

	var ids []int
	var id int
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return classify("list book ids", err)
	}

	for _, bookID := range ids {
		if err := r.session.Query(clearPointerCQL, bookID).WithContext(ctx).Exec(); err != nil {
			return classify("clear book reservation pointer", err)
		}
	}
	return nil
}
