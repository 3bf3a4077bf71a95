package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AmevinLS/bigdata-reservation/internal/app"
	"github.com/AmevinLS/bigdata-reservation/internal/domain"
)

// ReservationMaker is the minimal interface needed to claim a book.
type ReservationMaker interface {
	MakeReservation(ctx context.Context, in app.MakeReservationInput) (domain.Reservation, error)
}

// ReservationUpdater is the minimal interface needed to advance a
// reservation's date.
type ReservationUpdater interface {
	UpdateReservation(ctx context.Context, in app.UpdateReservationInput) (domain.Reservation, error)
}

// ReservationReader serves point and list reads of reservations.
type ReservationReader interface {
	GetByBook(ctx context.Context, bookID int) (domain.Reservation, error)
	List(ctx context.Context, customerID *int) ([]domain.Reservation, error)
}

// HandleMakeReservation returns the handler for POST /make_reservation.
func HandleMakeReservation(svc ReservationMaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req makeReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.BookID <= 0 || req.CustomerID <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidID, "book_id and customer_id must be positive")
			return
		}

		res, err := svc.MakeReservation(r.Context(), app.MakeReservationInput{
			BookID:     req.BookID,
			CustomerID: req.CustomerID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(makeReservationResponse{
			Status:        "success",
			ReservationID: res.ID,
		})
	}
}

// HandleUpdateReservation returns the handler for POST /update_reservation.
func HandleUpdateReservation(svc ReservationUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req updateReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.BookID <= 0 || req.CustomerID <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidID, "book_id and customer_id must be positive")
			return
		}
		if req.ReservationDate < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "reservation_date must not be negative")
			return
		}

		res, err := svc.UpdateReservation(r.Context(), app.UpdateReservationInput{
			BookID:     req.BookID,
			CustomerID: req.CustomerID,
			Date:       req.ReservationDate,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(updateReservationResponse{
			ReservationDate: res.Date,
		})
	}
}

// HandleViewReservation returns the handler for GET /view_reservation.
func HandleViewReservation(svc ReservationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		bookID, err := strconv.Atoi(r.URL.Query().Get("book_id"))
		if err != nil || bookID <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQueryParam, "book_id must be a positive integer")
			return
		}

		res, err := svc.GetByBook(r.Context(), bookID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toReservationResponse(res))
	}
}

// HandleListReservations returns the handler for GET /list_reservations.
// Without customer_id it lists every reservation.
func HandleListReservations(svc ReservationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var customerID *int
		if raw := r.URL.Query().Get("customer_id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil || id <= 0 {
				writeError(w, http.StatusBadRequest, codeInvalidQueryParam, "customer_id must be a positive integer")
				return
			}
			customerID = &id
		}

		reservations, err := svc.List(r.Context(), customerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := listReservationsResponse{Reservations: make([]reservationResponse, 0, len(reservations))}
		for _, res := range reservations {
			resp.Reservations = append(resp.Reservations, toReservationResponse(res))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type makeReservationRequest struct {
	BookID     int `json:"book_id"`
	CustomerID int `json:"customer_id"`
}

type makeReservationResponse struct {
	Status        string `json:"status"`
	ReservationID string `json:"reservation_id"`
}

type updateReservationRequest struct {
	BookID     int `json:"book_id"`
	CustomerID int `json:"customer_id"`
	// ReservationDate is optional; zero lets the server stamp "now".
	ReservationDate int64 `json:"reservation_date"`
}

type updateReservationResponse struct {
	ReservationDate int64 `json:"reservation_date"`
}

type reservationResponse struct {
	ReservationID   string `json:"reservation_id"`
	BookID          int    `json:"book_id"`
	CustomerID      int    `json:"customer_id"`
	ReservationDate int64  `json:"reservation_date"`
}

func toReservationResponse(res domain.Reservation) reservationResponse {
	return reservationResponse{
		ReservationID:   res.ID,
		BookID:          res.BookID,
		CustomerID:      res.CustomerID,
		ReservationDate: res.Date,
	}
}

type listReservationsResponse struct {
	Reservations []reservationResponse `json:"reservations"`
}
