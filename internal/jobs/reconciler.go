package jobs

import (
	"context"
	"log/slog"
	"time"

	"turnstile/internal/metrics"
	"turnstile/internal/models"
	"turnstile/internal/service"
)

// PendingLister finds stuck PENDING bookings for the sweep
type PendingLister interface {
	PendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
}

// Config sets the sweep cadence and how long a PENDING booking may sit
// before it is considered stuck
type Config struct {
	Interval    time.Duration
	GracePeriod time.Duration
}

// Reconciler periodically re-enqueues PENDING bookings older than the grace
// period. A booking lands here when the finalization enqueue failed after
// commit, or when a queued request was lost. Re-enqueueing an in-flight
// booking is harmless: the worker's terminal transition is idempotent.
type Reconciler struct {
	bookings PendingLister
	queue    service.FinalizationQueue
	cfg      Config
	ticker   *time.Ticker
	done     chan bool
}

func NewReconciler(bookings PendingLister, queue service.FinalizationQueue, cfg Config) *Reconciler {
	return &Reconciler{
		bookings: bookings,
		queue:    queue,
		cfg:      cfg,
		done:     make(chan bool),
	}
}

// Start begins the background sweep
func (r *Reconciler) Start(ctx context.Context) {
	slog.Info("Starting reconciliation sweep",
		"interval", r.cfg.Interval, "grace_period", r.cfg.GracePeriod)

	r.ticker = time.NewTicker(r.cfg.Interval)

	go func() {
		for {
			select {
			case <-r.ticker.C:
				r.Sweep(ctx)
			case <-r.done:
				slog.Info("Reconciliation sweep stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background sweep
func (r *Reconciler) Stop() {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	close(r.done)
}

// Sweep runs one pass: list stuck PENDING bookings, re-enqueue each
func (r *Reconciler) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.cfg.GracePeriod)

	stuck, err := r.bookings.PendingOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to list stuck PENDING bookings", "error", err)
		return
	}

	if len(stuck) == 0 {
		return
	}

	slog.Info("Re-enqueueing stuck PENDING bookings", "count", len(stuck))

	for _, booking := range stuck {
		req := models.FinalizationRequest{
			BookingID: booking.ID,
			EventID:   booking.EventID,
			Timestamp: time.Now(),
		}
		if err := r.queue.Enqueue(ctx, req); err != nil {
			slog.Error("Failed to re-enqueue booking",
				"error", err,
				"booking_id", booking.ID,
				"pending_since", booking.CreatedAt)
			continue
		}
		metrics.ReconcilerRequeuedTotal.Inc()
	}
}
