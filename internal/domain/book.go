package domain

// Book is a catalog entry. ReservationID is empty while the book is
// available and points at the live reservation once one is claimed.
type Book struct {
	ID            int
	Title         string
	Author        string
	ReservationID string
}

// Available reports whether the catalog considers the book free to claim.
func (b Book) Available() bool {
	return b.ReservationID == ""
}
