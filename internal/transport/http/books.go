package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AmevinLS/bigdata-reservation/internal/app"
	"github.com/AmevinLS/bigdata-reservation/internal/domain"
)

// CatalogService is the minimal interface needed for the /books endpoints.
type CatalogService interface {
	ListBooks(ctx context.Context, onlyAvailable bool) ([]domain.Book, error)
	AddBook(ctx context.Context, in app.AddBookInput) (domain.Book, error)
}

// HandleBooks returns the handler for GET/POST /books.
func HandleBooks(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			onlyAvailable := false
			if raw := r.URL.Query().Get("only_available"); raw != "" {
				parsed, err := strconv.ParseBool(raw)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidQueryParam, "only_available must be a boolean")
					return
				}
				onlyAvailable = parsed
			}

			books, err := svc.ListBooks(r.Context(), onlyAvailable)
			if err != nil {
				writeDomainError(w, err)
				return
			}

			resp := listBooksResponse{Books: make([]bookResponse, 0, len(books))}
			for _, b := range books {
				resp.Books = append(resp.Books, bookResponse{
					BookID:        b.ID,
					Title:         b.Title,
					Author:        b.Author,
					ReservationID: b.ReservationID,
				})
			}

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)

		case http.MethodPost:
			var req addBookRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			book, err := svc.AddBook(r.Context(), app.AddBookInput{
				BookID: req.BookID,
				Title:  req.Title,
				Author: req.Author,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(bookResponse{
				BookID: book.ID,
				Title:  book.Title,
				Author: book.Author,
			})

		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

type addBookRequest struct {
	BookID int    `json:"book_id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

type bookResponse struct {
	BookID        int    `json:"book_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ReservationID string `json:"reservation_id,omitempty"`
}

type listBooksResponse struct {
	Books []bookResponse `json:"books"`
}
