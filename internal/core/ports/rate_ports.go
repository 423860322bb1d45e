package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/livepoll/api/internal/core/domain"
)

type AttemptRepository interface {
	CountSince(ctx context.Context, pollID uuid.UUID, rateKey string, since time.Time) (int, error)
	Record(ctx context.Context, attempt *domain.VoteAttempt) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimiter admits or denies a vote attempt for a (poll, rate key) pair.
// A nil return means the attempt was recorded and may proceed; a denied
// attempt returns domain.ErrRateLimited and is not recorded.
type RateLimiter interface {
	Check(ctx context.Context, pollID uuid.UUID, rateKey string) error
}
