package app

import (
	"context"

	"github.com/AmevinLS/bigdata-reservation/internal/domain"
)

type CatalogRepository interface {
	ListBooks(ctx context.Context) ([]domain.Book, error)
	// InsertBook adds a catalog row only if the book id is unused
	// (conditional insert); returns domain.ErrBookExists otherwise.
	InsertBook(ctx context.Context, book domain.Book) error
	NextBookID(ctx context.Context) (int, error)
}

type CatalogService struct {
	repo CatalogRepository
}

func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListBooks returns the catalog, optionally narrowed to books whose
// reservation pointer is unset. The pointer is written asynchronously
// after a claim, so a just-reserved book can momentarily still appear
// available here while the by-book view already holds its reservation.
func (s *CatalogService) ListBooks(ctx context.Context, onlyAvailable bool) ([]domain.Book, error) {
	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	if !onlyAvailable {
		return books, nil
	}
	available := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if b.Available() {
			available = append(available, b)
		}
	}
	return available, nil
}

type AddBookInput struct {
	// BookID zero means "assign the next free id".
	BookID int
	Title  string
	Author string
}

const addBookAttempts = 5

// AddBook inserts a catalog entry. Id assignment races with concurrent
// inserts, so the conditional insert is retried with a fresh candidate id
// a bounded number of times.
func (s *CatalogService) AddBook(ctx context.Context, in AddBookInput) (domain.Book, error) {
	if in.Title == "" {
		return domain.Book{}, domain.ErrTitleRequired
	}
	if in.BookID < 0 {
		return domain.Book{}, domain.ErrInvalidID
	}

	book := domain.Book{ID: in.BookID, Title: in.Title, Author: in.Author}
	if book.ID != 0 {
		if err := s.repo.InsertBook(ctx, book); err != nil {
			return domain.Book{}, err
		}
		return book, nil
	}

	var err error
	for attempt := 0; attempt < addBookAttempts; attempt++ {
		next, idErr := s.repo.NextBookID(ctx)
		if idErr != nil {
			return domain.Book{}, idErr
		}
		book.ID = next
		err = s.repo.InsertBook(ctx, book)
		if err == nil {
			return book, nil
		}
		if err != domain.ErrBookExists {
			return domain.Book{}, err
		}
	}
	return domain.Book{}, err
}
