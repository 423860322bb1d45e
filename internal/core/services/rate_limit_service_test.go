package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livepoll/api/internal/core/domain"
)

type memAttemptRepo struct {
	mu       sync.Mutex
	attempts []domain.VoteAttempt
}

func (m *memAttemptRepo) CountSince(_ context.Context, pollID uuid.UUID, rateKey string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, a := range m.attempts {
		if a.PollID == pollID && a.RateKey == rateKey && !a.AttemptedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *memAttemptRepo) Record(_ context.Context, attempt *domain.VoteAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, *attempt)
	return nil
}

func (m *memAttemptRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.attempts[:0]
	var pruned int64
	for _, a := range m.attempts {
		if a.AttemptedAt.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, a)
	}
	m.attempts = kept
	return pruned, nil
}

func (m *memAttemptRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attempts)
}

func TestRateLimitWindow(t *testing.T) {
	repo := &memAttemptRepo{}
	clock := clockwork.NewFakeClock()
	limiter := NewRateLimitService(repo, clock, 60*time.Second, 3)

	pollID := uuid.New()
	rateKey := "fingerprint-a"
	ctx := context.Background()

	// 4 attempts within 10 seconds: 3 allowed, 1 denied.
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Check(ctx, pollID, rateKey))
		clock.Advance(3 * time.Second)
	}
	err := limiter.Check(ctx, pollID, rateKey)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	// The denied attempt must not occupy a slot in the window.
	assert.Equal(t, 3, repo.len())
}

func TestRateLimitWindowExpiry(t *testing.T) {
	repo := &memAttemptRepo{}
	clock := clockwork.NewFakeClock()
	limiter := NewRateLimitService(repo, clock, 60*time.Second, 2)

	pollID := uuid.New()
	rateKey := "fingerprint-a"
	ctx := context.Background()

	require.NoError(t, limiter.Check(ctx, pollID, rateKey))
	require.NoError(t, limiter.Check(ctx, pollID, rateKey))
	assert.ErrorIs(t, limiter.Check(ctx, pollID, rateKey), domain.ErrRateLimited)

	// Once the window slides past the earlier attempts, new ones pass.
	clock.Advance(61 * time.Second)
	assert.NoError(t, limiter.Check(ctx, pollID, rateKey))
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	repo := &memAttemptRepo{}
	clock := clockwork.NewFakeClock()
	limiter := NewRateLimitService(repo, clock, 60*time.Second, 1)

	pollA, pollB := uuid.New(), uuid.New()
	ctx := context.Background()

	require.NoError(t, limiter.Check(ctx, pollA, "key-1"))
	assert.ErrorIs(t, limiter.Check(ctx, pollA, "key-1"), domain.ErrRateLimited)

	// Same key, different poll; same poll, different key.
	assert.NoError(t, limiter.Check(ctx, pollB, "key-1"))
	assert.NoError(t, limiter.Check(ctx, pollA, "key-2"))
}

func TestRateLimitConcurrentSameKey(t *testing.T) {
	repo := &memAttemptRepo{}
	clock := clockwork.NewFakeClock()
	limiter := NewRateLimitService(repo, clock, 60*time.Second, 5)

	pollID := uuid.New()
	rateKey := "fingerprint-a"

	const attempts = 20
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- limiter.Check(context.Background(), pollID, rateKey)
		}()
	}
	wg.Wait()
	close(results)

	allowed, denied := 0, 0
	for err := range results {
		switch {
		case err == nil:
			allowed++
		case assert.ErrorIs(t, err, domain.ErrRateLimited):
			denied++
		}
	}

	assert.Equal(t, 5, allowed)
	assert.Equal(t, 15, denied)
	assert.Equal(t, 5, repo.len())
}
