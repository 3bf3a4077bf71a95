package domain

import "errors"

var (
	ErrBookReserved        = errors.New("book already reserved")
	ErrQuotaExceeded       = errors.New("reservation limit reached")
	ErrStaleUpdate         = errors.New("reservation date not newer than stored date")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrBookNotFound        = errors.New("book not found")
	ErrBookExists          = errors.New("book already exists")
	ErrTitleRequired       = errors.New("book title required")
	ErrInvalidID           = errors.New("invalid id")

	// ErrIndeterminate means a conditional write timed out and may or may
	// not have applied. Callers must reconcile with a read or an idempotent
	// retry; it is never collapsed into ErrBookReserved or success.
	ErrIndeterminate = errors.New("conditional write outcome unknown")

	ErrBackendUnavailable = errors.New("storage backend unavailable")
)
