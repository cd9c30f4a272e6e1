package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "turnstile/internal/errors"
	"turnstile/internal/logger"
	"turnstile/internal/metrics"
	"turnstile/internal/models"
)

// AdmissionConfig sets the lock lease for the booking path. The wait budget
// lives in the lock client itself. LockLease must stay conservatively longer
// than the worst-case critical section (one read plus one transactional
// write), otherwise a stalled holder's lease could expire while its commit is
// still pending.
type AdmissionConfig struct {
	LockLease time.Duration
}

type BookingService struct {
	events   EventStore
	bookings BookingStore
	locker   Locker
	queue    FinalizationQueue
	cfg      AdmissionConfig
}

func NewBookingService(events EventStore, bookings BookingStore, locker Locker, queue FinalizationQueue, cfg AdmissionConfig) *BookingService {
	return &BookingService{
		events:   events,
		bookings: bookings,
		locker:   locker,
		queue:    queue,
		cfg:      cfg,
	}
}

func lockKey(eventID int64) string {
	return fmt.Sprintf("admission:lock:%d", eventID)
}

// Create admits a booking: it serializes on the per-event lock, re-checks
// capacity, commits the reservation and the booking row atomically, releases
// the lock and enqueues finalization. Only the capacity check and the commit
// run under the lock; everything after the commit can fail without
// invalidating the reservation.
func (s *BookingService) Create(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	start := time.Now()
	defer func() { metrics.AdmissionDuration.Observe(time.Since(start).Seconds()) }()

	if req.Quantity <= 0 {
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeInvalidRequest).Inc()
		return nil, fmt.Errorf("%w: quantity must be positive", apperrors.ErrInvalidRequest)
	}

	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return nil, fmt.Errorf("%w: event %d", apperrors.ErrNotFound, req.EventID)
	}

	key := lockKey(req.EventID)
	token, err := s.locker.Acquire(ctx, key, s.cfg.LockLease)
	if err != nil {
		if errors.Is(err, apperrors.ErrLockContention) {
			metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeLockContention).Inc()
		} else {
			metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return nil, err
	}

	released := false
	defer func() {
		if !released {
			s.releaseLock(ctx, key, token)
		}
	}()

	available, err := s.events.AvailableCapacity(ctx, req.EventID)
	if err != nil {
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to read capacity: %w", err)
	}

	if available < req.Quantity {
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeInsufficientCapacity).Inc()
		return nil, fmt.Errorf("%w: %d available, %d requested",
			apperrors.ErrInsufficientCapacity, available, req.Quantity)
	}

	booking := &models.Booking{
		EventID:  req.EventID,
		UserID:   req.UserID,
		Quantity: req.Quantity,
		Status:   models.BookingStatusPending,
	}

	// The commit is the last lock-protected action.
	if err := s.events.CommitBooking(ctx, booking); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeConflict).Inc()
			return nil, err
		}
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	s.releaseLock(ctx, key, token)
	released = true

	// The reservation is durable; an enqueue failure must not roll it back.
	// The booking stays PENDING and the reconciliation sweep picks it up.
	finalizeReq := models.FinalizationRequest{
		BookingID: booking.ID,
		EventID:   booking.EventID,
		Timestamp: time.Now(),
	}
	if err := s.queue.Enqueue(ctx, finalizeReq); err != nil {
		metrics.EnqueueFailuresTotal.Inc()
		logger.WithContext(ctx).Error("Failed to enqueue finalization, booking stays PENDING",
			"error", err,
			"booking_id", booking.ID,
			"event_id", booking.EventID)
	}

	metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeAdmitted).Inc()
	return booking, nil
}

// GetByID returns a booking for status polling
func (s *BookingService) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %d", apperrors.ErrNotFound, id)
	}
	return booking, nil
}

// releaseLock never fails the admission: a stale token is already a no-op,
// and anything else only shortens the lease by less than its expiry.
func (s *BookingService) releaseLock(ctx context.Context, key, token string) {
	if err := s.locker.Release(ctx, key, token); err != nil {
		logger.WithContext(ctx).Error("Failed to release admission lock",
			"error", err, "key", key)
	}
}
