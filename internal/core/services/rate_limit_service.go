package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/livepoll/api/internal/core/domain"
	"github.com/livepoll/api/internal/core/ports"
)

// rateLimitService counts vote attempts per (poll, rate key) in a sliding
// window. The count-then-record sequence is serialized per key, so concurrent
// attempts from one key cannot collectively exceed the limit. A denied
// attempt is not recorded and does not extend the window.
type rateLimitService struct {
	attempts    ports.AttemptRepository
	clock       clockwork.Clock
	window      time.Duration
	maxAttempts int

	mu    sync.Mutex
	locks map[rateLimitKey]*sync.Mutex
}

type rateLimitKey struct {
	pollID  uuid.UUID
	rateKey string
}

func NewRateLimitService(attempts ports.AttemptRepository, clock clockwork.Clock, window time.Duration, maxAttempts int) ports.RateLimiter {
	return &rateLimitService{
		attempts:    attempts,
		clock:       clock,
		window:      window,
		maxAttempts: maxAttempts,
		locks:       make(map[rateLimitKey]*sync.Mutex),
	}
}

func (s *rateLimitService) Check(ctx context.Context, pollID uuid.UUID, rateKey string) error {
	lock := s.keyLock(rateLimitKey{pollID: pollID, rateKey: rateKey})
	lock.Lock()
	defer lock.Unlock()

	now := s.clock.Now().UTC()
	since := now.Add(-s.window)

	count, err := s.attempts.CountSince(ctx, pollID, rateKey, since)
	if err != nil {
		return err
	}
	if count >= s.maxAttempts {
		return domain.ErrRateLimited
	}

	return s.attempts.Record(ctx, &domain.VoteAttempt{
		PollID:      pollID,
		RateKey:     rateKey,
		AttemptedAt: now,
	})
}

// keyLock returns the mutex for a key, creating it on first use. Locks stay
// in the map for the process lifetime; one mutex per distinct (poll, key)
// pair seen by this instance.
func (s *rateLimitService) keyLock(key rateLimitKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}
