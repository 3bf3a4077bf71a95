package cassandra

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"

	"github.com/AmevinLS/bigdata-reservation/internal/domain"
)

// isTimeout reports whether the driver gave up without learning the
// outcome of the request.
func isTimeout(err error) bool {
	var wt *gocql.RequestErrWriteTimeout
	var rt *gocql.RequestErrReadTimeout
	return errors.As(err, &wt) ||
		errors.As(err, &rt) ||
		errors.Is(err, gocql.ErrTimeoutNoResponse) ||
		errors.Is(err, context.DeadlineExceeded)
}

func isUnavailable(err error) bool {
	var ua *gocql.RequestErrUnavailable
	return errors.As(err, &ua) || errors.Is(err, gocql.ErrNoConnections)
}

// classifyConditional maps driver errors on a conditional write. A timed
// out conditional write may have applied, so it becomes ErrIndeterminate
// rather than a plain timeout; the caller must reconcile with a read or an
// idempotent retry.
func classifyConditional(op string, err error) error {
	switch {
	case isTimeout(err):
		return fmt.Errorf("%s: %w", op, domain.ErrIndeterminate)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w", op, domain.ErrBackendUnavailable)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// classify maps driver errors on plain reads and unconditional writes.
func classify(op string, err error) error {
	switch {
	case isTimeout(err) || isUnavailable(err):
		return fmt.Errorf("%s: %w", op, domain.ErrBackendUnavailable)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
