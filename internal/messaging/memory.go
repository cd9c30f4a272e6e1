package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "turnstile/internal/errors"
	"turnstile/internal/models"
)

// MemoryQueue is a bounded in-process work queue with the same contract as
// NATSQueue. It backs single-node deployments and tests. A handler error
// re-enqueues the request after a short delay, approximating at-least-once
// redelivery.
type MemoryQueue struct {
	ch        chan models.FinalizationRequest
	redeliver time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMemoryQueue creates an in-process queue with the given buffer size
func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{
		ch:        make(chan models.FinalizationRequest, size),
		redeliver: 100 * time.Millisecond,
		closed:    make(chan struct{}),
	}
}

// Enqueue adds a request without blocking; a full buffer reports
// ErrQueueUnavailable rather than stalling the admission path.
func (q *MemoryQueue) Enqueue(ctx context.Context, req models.FinalizationRequest) error {
	// Checked on its own first: a select mixing the closed and send cases
	// picks randomly when both are ready, letting a closed queue accept.
	select {
	case <-q.closed:
		return fmt.Errorf("%w: queue closed", apperrors.ErrQueueUnavailable)
	default:
	}

	select {
	case q.ch <- req:
		return nil
	default:
		return fmt.Errorf("%w: queue full", apperrors.ErrQueueUnavailable)
	}
}

// Consume runs `workers` goroutines over the buffer until ctx is cancelled
func (q *MemoryQueue) Consume(ctx context.Context, workers int, handler func(context.Context, models.FinalizationRequest) error) error {
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case req := <-q.ch:
					if err := handler(ctx, req); err != nil {
						slog.Error("Finalization handler failed, re-enqueueing",
							"error", err, "booking_id", req.BookingID)
						q.requeue(ctx, req)
					}
				}
			}
		}()
	}

	wg.Wait()
	return nil
}

func (q *MemoryQueue) requeue(ctx context.Context, req models.FinalizationRequest) {
	select {
	case <-ctx.Done():
	case <-time.After(q.redeliver):
		select {
		case q.ch <- req:
		default:
			slog.Error("Dropping finalization request, queue full", "booking_id", req.BookingID)
		}
	}
}

// Close marks the queue unavailable for producers
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.closed) })
	return nil
}
