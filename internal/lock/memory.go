package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "turnstile/internal/errors"
)

type memoryEntry struct {
	token   string
	expires time.Time
}

// Memory is an in-process lock with the same contract as RedisLock: exclusive
// per-key ownership, lease auto-expiry, token-checked release. It serves
// single-node deployments where Redis would be the only network dependency.
type Memory struct {
	mu            sync.Mutex
	held          map[string]memoryEntry
	waitTimeout   time.Duration
	retryInterval time.Duration
}

// NewMemory creates an in-process lock with the given wait timeout
func NewMemory(waitTimeout, retryInterval time.Duration) *Memory {
	return &Memory{
		held:          make(map[string]memoryEntry),
		waitTimeout:   waitTimeout,
		retryInterval: retryInterval,
	}
}

func (m *Memory) tryAcquire(key, token string, lease time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.held[key]; ok && time.Now().Before(entry.expires) {
		return false
	}
	m.held[key] = memoryEntry{token: token, expires: time.Now().Add(lease)}
	return true
}

// Acquire polls until the key is free or the wait timeout passes
func (m *Memory) Acquire(ctx context.Context, key string, lease time.Duration) (string, error) {
	token := uuid.New().String()
	deadline := time.Now().Add(m.waitTimeout)

	for {
		if m.tryAcquire(key, token, lease) {
			return token, nil
		}

		if time.Now().After(deadline) {
			return "", apperrors.ErrLockContention
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.retryInterval):
		}
	}
}

// Release frees the key if the token still owns it; stale tokens are ignored
func (m *Memory) Release(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.held[key]; ok && entry.token == token {
		delete(m.held, key)
	}
	return nil
}
