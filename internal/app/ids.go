package app

import "github.com/google/uuid"

// newReservationID returns a fresh random UUID in canonical text form.
// Reservation ids are generated at claim time and never reused, which is
// what makes propagation writes safe to retry.
func newReservationID() string {
	return uuid.NewString()
}
