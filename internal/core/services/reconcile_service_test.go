package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livepoll/api/internal/core/domain"
)

type fakeReconcileRepo struct {
	fixed int64
	err   error
	calls int
}

func (f *fakeReconcileRepo) RebuildCounters(context.Context) (int64, error) {
	f.calls++
	return f.fixed, f.err
}

func TestReconcileRunPrunesExpiredAttempts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	repo := &memAttemptRepo{}
	pollID := uuid.New()

	now := clock.Now().UTC()
	stale := &domain.VoteAttempt{PollID: pollID, RateKey: "k", AttemptedAt: now.Add(-2 * time.Minute)}
	fresh := &domain.VoteAttempt{PollID: pollID, RateKey: "k", AttemptedAt: now.Add(-10 * time.Second)}
	require.NoError(t, repo.Record(context.Background(), stale))
	require.NoError(t, repo.Record(context.Background(), fresh))

	reconcileRepo := &fakeReconcileRepo{fixed: 2}
	service := NewReconcileService(reconcileRepo, repo, clock, time.Minute)

	require.NoError(t, service.Run(context.Background()))
	assert.Equal(t, 1, reconcileRepo.calls)
	assert.Equal(t, 1, repo.len())
}

func TestReconcileRunPropagatesRebuildError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	repo := &memAttemptRepo{}
	reconcileRepo := &fakeReconcileRepo{err: errors.New("boom")}
	service := NewReconcileService(reconcileRepo, repo, clock, time.Minute)

	err := service.Run(context.Background())
	assert.EqualError(t, err, "boom")
}
