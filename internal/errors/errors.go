package errors

import "errors"

// Error taxonomy for the admission path. Handlers map these to HTTP status
// codes with errors.Is; everything else is a 500.
var (
	// ErrInvalidRequest rejects bad input before any lock is taken.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound means the referenced event or booking does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLockContention means the per-event lock could not be acquired
	// within the wait timeout. Retryable by the caller.
	ErrLockContention = errors.New("lock contention")

	// ErrInsufficientCapacity is the business rejection: fewer tickets
	// remain than requested.
	ErrInsufficientCapacity = errors.New("insufficient capacity")

	// ErrConflict is the store-level race defense: the conditional
	// decrement found less capacity than the lock-protected read did.
	// Callers see it as ErrInsufficientCapacity.
	ErrConflict = errors.New("capacity conflict")

	// ErrQueueUnavailable means the finalization enqueue failed after the
	// booking was committed. The booking stays PENDING until the
	// reconciliation sweep re-enqueues it.
	ErrQueueUnavailable = errors.New("queue unavailable")
)
