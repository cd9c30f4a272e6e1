package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "turnstile/internal/errors"
	"turnstile/internal/metrics"
	"turnstile/internal/models"
)

// BookingStore is the slice of the inventory store the worker needs.
// UpdateStatus must be idempotent for a repeated identical terminal
// transition; delivery is at-least-once.
type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status string, confirmationCode *string) error
}

// Finalizer is the capability the pool depends on. The pool never inspects
// which artifact variant is behind it; it only needs the confirmation code
// or an error. Wrap an error with Permanent to skip retries.
type Finalizer interface {
	Finalize(ctx context.Context, booking *models.Booking) (string, error)
}

// Source delivers finalization requests to the given number of parallel
// workers, each request to at most one worker at a time. A handler error
// means the request must be redelivered.
type Source interface {
	Consume(ctx context.Context, workers int, handler func(context.Context, models.FinalizationRequest) error) error
}

// Config sets the pool size and retry policy
type Config struct {
	Workers     int
	MaxAttempts int
	BaseBackoff time.Duration
}

// Pool runs the PENDING -> FINALIZED | FAILED state machine. Transient
// finalizer errors are retried with exponential backoff up to MaxAttempts,
// then the booking is marked FAILED. Reserved capacity is not returned on
// FAILED; whether it should be is a business decision outside this pool.
type Pool struct {
	store     BookingStore
	finalizer Finalizer
	source    Source
	cfg       Config
}

func NewPool(store BookingStore, finalizer Finalizer, source Source, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	return &Pool{store: store, finalizer: finalizer, source: source, cfg: cfg}
}

// Run blocks consuming the source until ctx is cancelled
func (p *Pool) Run(ctx context.Context) error {
	slog.Info("Starting finalization workers",
		"workers", p.cfg.Workers,
		"max_attempts", p.cfg.MaxAttempts,
		"base_backoff", p.cfg.BaseBackoff)
	return p.source.Consume(ctx, p.cfg.Workers, p.process)
}

// process handles one delivery. It returns an error only when the request
// should be redelivered (store unavailable); business outcomes, including
// FAILED, are terminal and acked.
func (p *Pool) process(ctx context.Context, req models.FinalizationRequest) error {
	booking, err := p.store.GetByID(ctx, req.BookingID)
	if err != nil {
		return fmt.Errorf("failed to load booking %d: %w", req.BookingID, err)
	}
	if booking == nil {
		slog.Warn("Finalization request for unknown booking, dropping", "booking_id", req.BookingID)
		return nil
	}

	// Redelivery of an already-finalized booking is a no-op.
	if booking.Status != models.BookingStatusPending {
		slog.Debug("Booking already in terminal state, skipping",
			"booking_id", booking.ID, "status", booking.Status)
		return nil
	}

	code, err := p.finalizeWithRetry(ctx, booking)
	if err != nil {
		// Shutdown mid-retry is not a finalization verdict. The booking keeps
		// its full retry budget on the next delivery, so the request must be
		// redelivered, not acked as FAILED.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("finalization interrupted for booking %d: %w", booking.ID, err)
		}

		slog.Error("Finalization failed permanently, marking booking FAILED",
			"error", err, "booking_id", booking.ID, "event_id", booking.EventID)

		if err := p.transition(ctx, booking.ID, models.BookingStatusFailed, nil); err != nil {
			return err
		}
		metrics.FinalizationsTotal.WithLabelValues("failed").Inc()
		return nil
	}

	if err := p.transition(ctx, booking.ID, models.BookingStatusFinalized, &code); err != nil {
		return err
	}
	metrics.FinalizationsTotal.WithLabelValues("finalized").Inc()

	slog.Info("Booking finalized",
		"booking_id", booking.ID, "event_id", booking.EventID, "confirmation_code", code)
	return nil
}

func (p *Pool) finalizeWithRetry(ctx context.Context, booking *models.Booking) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		code, err := p.finalizer.Finalize(ctx, booking)
		if err == nil {
			return code, nil
		}
		lastErr = err

		if IsPermanent(err) {
			return "", err
		}

		// A cancelled finalizer means the worker is stopping, not that the
		// attempt failed; stop retrying and let the caller redeliver.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}

		if attempt < p.cfg.MaxAttempts {
			backoff := p.cfg.BaseBackoff * time.Duration(1<<(attempt-1))
			slog.Warn("Transient finalization failure, retrying",
				"error", err, "booking_id", booking.ID,
				"attempt", attempt, "backoff", backoff)

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return "", fmt.Errorf("retries exhausted: %w", lastErr)
}

// transition applies a terminal status. A conflicting concurrent transition
// (another worker already moved the booking to a different terminal state)
// is treated as done: the state machine forbids leaving terminal states, so
// there is nothing left to do.
func (p *Pool) transition(ctx context.Context, id int64, status string, code *string) error {
	err := p.store.UpdateStatus(ctx, id, status, code)
	if err == nil || errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("failed to update booking %d status: %w", id, err)
}
