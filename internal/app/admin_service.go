package app

import "context"

type AdminRepository interface {
	TruncateReservationsByBook(ctx context.Context) error
	TruncateReservationsByID(ctx context.Context) error
	TruncateReservationsByCustomer(ctx context.Context) error
	ClearReservationPointers(ctx context.Context) error
}

// AdminService hosts the administrative reset used for test isolation.
type AdminService struct {
	repo AdminRepository
}

func NewAdminService(repo AdminRepository) *AdminService {
	return &AdminService{repo: repo}
}

// ResetAll clears every reservation view and nulls the catalog pointers.
// The clears are independent operations, not a transaction: a concurrent
// reader can observe a mixed state while the reset runs. Not for use under
// live traffic.
func (s *AdminService) ResetAll(ctx context.Context) error {
	if err := s.repo.TruncateReservationsByBook(ctx); err != nil {
		return err
	}
	if err := s.repo.TruncateReservationsByID(ctx); err != nil {
		return err
	}
	if err := s.repo.TruncateReservationsByCustomer(ctx); err != nil {
		return err
	}
	return s.repo.ClearReservationPointers(ctx)
}
