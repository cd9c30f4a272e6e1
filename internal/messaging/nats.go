package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/stan.go"

	apperrors "turnstile/internal/errors"
	"turnstile/internal/models"
)

// Config holds the NATS Streaming connection settings
type Config struct {
	URL       string
	ClusterID string
	ClientID  string
	AckWait   time.Duration
}

// NATSQueue is the finalization work queue on NATS Streaming. Durable queue
// subscriptions give at-least-once delivery: an un-acked message (crashed or
// failing worker) is redelivered after AckWait.
type NATSQueue struct {
	conn    stan.Conn
	ackWait time.Duration
}

// NewNATSQueue connects to the NATS Streaming cluster
func NewNATSQueue(cfg Config) (*NATSQueue, error) {
	// Unique client ID suffix so API and worker instances don't collide
	clientID := fmt.Sprintf("%s-%s", cfg.ClientID, uuid.New().String()[:8])

	conn, err := stan.Connect(cfg.ClusterID, clientID, stan.NatsURL(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS Streaming: %w", err)
	}

	ackWait := cfg.AckWait
	if ackWait == 0 {
		ackWait = 30 * time.Second
	}

	slog.Info("Connected to NATS Streaming",
		"url", cfg.URL, "cluster", cfg.ClusterID, "client", clientID)

	return &NATSQueue{conn: conn, ackWait: ackWait}, nil
}

// Enqueue publishes a finalization request. Failures surface as
// ErrQueueUnavailable so the admission service can leave the booking PENDING
// for the reconciliation sweep instead of rolling back the reservation.
func (q *NATSQueue) Enqueue(ctx context.Context, req models.FinalizationRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal finalization request: %w", err)
	}

	if err := q.conn.Publish(models.SubjectBookingFinalize, payload); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrQueueUnavailable, err)
	}
	return nil
}

// Consume starts `workers` members of one durable queue group. Each message
// goes to exactly one member; a handler error leaves it un-acked so the
// server redelivers it.
func (q *NATSQueue) Consume(ctx context.Context, workers int, handler func(context.Context, models.FinalizationRequest) error) error {
	subs := make([]stan.Subscription, 0, workers)

	for i := 0; i < workers; i++ {
		sub, err := q.conn.QueueSubscribe(models.SubjectBookingFinalize, "finalizers",
			func(m *stan.Msg) {
				var req models.FinalizationRequest
				if err := json.Unmarshal(m.Data, &req); err != nil {
					slog.Error("Failed to unmarshal finalization request", "error", err)
					m.Ack() // malformed payloads never become valid
					return
				}

				if err := handler(ctx, req); err != nil {
					slog.Error("Finalization handler failed, message will be redelivered",
						"error", err, "booking_id", req.BookingID)
					return
				}
				m.Ack()
			},
			stan.DurableName("finalizers-durable"),
			stan.SetManualAckMode(),
			stan.AckWait(q.ackWait),
			stan.MaxInflight(1))
		if err != nil {
			return fmt.Errorf("failed to queue subscribe: %w", err)
		}
		subs = append(subs, sub)
	}

	<-ctx.Done()

	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			slog.Error("Error closing subscription", "error", err)
		}
	}
	return nil
}

// Close shuts down the NATS Streaming connection
func (q *NATSQueue) Close() error {
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
