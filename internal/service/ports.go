package service

import (
	"context"
	"time"

	"turnstile/internal/models"
)

// EventStore is the narrow inventory-store interface the admission path
// consumes. GetByID returns (nil, nil) for an unknown event; CommitBooking
// must decrement capacity and insert the booking as one atomic unit and
// return ErrConflict when the capacity guard fails.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	AvailableCapacity(ctx context.Context, id int64) (int, error)
	CommitBooking(ctx context.Context, booking *models.Booking) error
	Stats(ctx context.Context, id int64) (*models.EventStats, error)
	OverallReport(ctx context.Context) (*models.OverallReport, error)
}

// BookingStore reads bookings for the status-polling endpoint
type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
}

// Locker is the distributed lock client: exclusive per-key acquisition with a
// lease, token-checked idempotent release.
type Locker interface {
	Acquire(ctx context.Context, key string, lease time.Duration) (string, error)
	Release(ctx context.Context, key, token string) error
}

// FinalizationQueue hands bookings to the worker pool
type FinalizationQueue interface {
	Enqueue(ctx context.Context, req models.FinalizationRequest) error
}
