package domain

// Reservation is the single logical fact stored under three keys: by book,
// by reservation id, and by customer. The by-book view is authoritative for
// exclusivity; the other two may lag until propagation lands.
type Reservation struct {
	ID         string
	BookID     int
	CustomerID int
	// Date is milliseconds since epoch. It only moves forward: updates with
	// a date not strictly greater than the stored one are rejected.
	Date int64
}
