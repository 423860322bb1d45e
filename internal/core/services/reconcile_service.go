package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/livepoll/api/internal/core/ports"
)

// reconcileService rebuilds poll counters from the vote records and prunes
// expired rate-limit log entries. Vote records are the ground truth; the
// counters on polls and options are a cache that a crash between record
// insert and counter commit could in principle leave stale.
type reconcileService struct {
	reconcileRepo ports.ReconcileRepository
	attemptRepo   ports.AttemptRepository
	clock         clockwork.Clock
	window        time.Duration
}

func NewReconcileService(reconcileRepo ports.ReconcileRepository, attemptRepo ports.AttemptRepository, clock clockwork.Clock, window time.Duration) ports.ReconcileService {
	return &reconcileService{
		reconcileRepo: reconcileRepo,
		attemptRepo:   attemptRepo,
		clock:         clock,
		window:        window,
	}
}

func (s *reconcileService) Run(ctx context.Context) error {
	fixed, err := s.reconcileRepo.RebuildCounters(ctx)
	if err != nil {
		return err
	}
	if fixed > 0 {
		slog.Warn("rebuilt stale poll counters", "polls", fixed)
	}

	cutoff := s.clock.Now().UTC().Add(-s.window)
	pruned, err := s.attemptRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	slog.Info("reconciliation finished", "polls_fixed", fixed, "attempts_pruned", pruned)
	return nil
}
