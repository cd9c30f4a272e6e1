package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "turnstile/internal/errors"
	"turnstile/internal/models"
)

func TestMemoryQueueDeliversToSingleWorker(t *testing.T) {
	q := NewMemoryQueue(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := map[int64]int{}
	var wg sync.WaitGroup
	wg.Add(8)

	go q.Consume(ctx, 4, func(_ context.Context, req models.FinalizationRequest) error {
		mu.Lock()
		seen[req.BookingID]++
		mu.Unlock()
		wg.Done()
		return nil
	})

	for i := int64(1); i <= 8; i++ {
		require.NoError(t, q.Enqueue(ctx, models.FinalizationRequest{BookingID: i}))
	}

	wg.Wait()
	cancel()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 8)
	for id, count := range seen {
		assert.Equal(t, 1, count, "booking %d processed more than once", id)
	}
}

func TestMemoryQueueFullReportsUnavailable(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.FinalizationRequest{BookingID: 1}))

	err := q.Enqueue(ctx, models.FinalizationRequest{BookingID: 2})
	assert.ErrorIs(t, err, apperrors.ErrQueueUnavailable)
}

func TestMemoryQueueClosedReportsUnavailable(t *testing.T) {
	q := NewMemoryQueue(4)
	require.NoError(t, q.Close())

	// Buffer space remains, so a select racing the closed signal against the
	// send could still accept; every attempt must refuse.
	for i := int64(1); i <= 32; i++ {
		err := q.Enqueue(context.Background(), models.FinalizationRequest{BookingID: i})
		assert.ErrorIs(t, err, apperrors.ErrQueueUnavailable)
	}
}

func TestMemoryQueueRedeliversOnHandlerError(t *testing.T) {
	q := NewMemoryQueue(4)
	q.redeliver = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	done := make(chan struct{})

	go q.Consume(ctx, 1, func(_ context.Context, req models.FinalizationRequest) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient store outage")
		}
		close(done)
		return nil
	})

	require.NoError(t, q.Enqueue(ctx, models.FinalizationRequest{BookingID: 7}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("request was not redelivered after handler error")
	}
	assert.Equal(t, int32(2), attempts.Load())
}
