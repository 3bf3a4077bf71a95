package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AmevinLS/bigdata-reservation/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidQueryParam  = "invalid_query_param"
	codeConflict           = "conflict"
	codeQuotaExceeded      = "quota_exceeded"
	codeStaleUpdate        = "stale_update"
	codeBookExists         = "book_exists"
	codeTitleRequired      = "title_required"
	codeInvalidID          = "invalid_id"
	codeIndeterminate      = "indeterminate"
	codeBackendUnavailable = "backend_unavailable"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps the reservation error taxonomy onto the HTTP
// surface. Indeterminate outcomes are retryable server-side conditions,
// never a conflict and never a success.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBookReserved):
		writeError(w, http.StatusConflict, codeConflict, domain.ErrBookReserved.Error())
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, codeQuotaExceeded, domain.ErrQuotaExceeded.Error())
	case errors.Is(err, domain.ErrStaleUpdate):
		writeError(w, http.StatusBadRequest, codeStaleUpdate, domain.ErrStaleUpdate.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, domain.ErrReservationNotFound.Error())
	case errors.Is(err, domain.ErrBookNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, domain.ErrBookNotFound.Error())
	case errors.Is(err, domain.ErrBookExists):
		writeError(w, http.StatusConflict, codeBookExists, domain.ErrBookExists.Error())
	case errors.Is(err, domain.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, codeTitleRequired, domain.ErrTitleRequired.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, domain.ErrInvalidID.Error())
	case errors.Is(err, domain.ErrIndeterminate):
		writeError(w, http.StatusServiceUnavailable, codeIndeterminate,
			"write outcome unknown, retry or re-read the reservation")
	case errors.Is(err, domain.ErrBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeBackendUnavailable, domain.ErrBackendUnavailable.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
