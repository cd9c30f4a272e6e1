package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"turnstile/internal/models"
)

// PermanentError marks a finalization failure that retrying cannot fix
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the pool marks the booking FAILED without retrying
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries a PermanentError
func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}

// TicketIssuer is the one concrete Finalizer: it produces the confirmation
// artifact for an admitted booking. The artifact work itself is bounded-time
// and external to the admission core; here it is the confirmation code the
// caller later polls for.
type TicketIssuer struct {
	workDuration time.Duration
}

// NewTicketIssuer creates an issuer whose artifact generation takes roughly
// workDuration per booking
func NewTicketIssuer(workDuration time.Duration) *TicketIssuer {
	return &TicketIssuer{workDuration: workDuration}
}

func (t *TicketIssuer) Finalize(ctx context.Context, booking *models.Booking) (string, error) {
	if t.workDuration > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.workDuration):
		}
	}

	code := fmt.Sprintf("TKT-%d-%s", booking.EventID, uuid.New().String()[:8])
	return code, nil
}
