package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/livepoll/api/internal/core/domain"
	"github.com/livepoll/api/internal/core/ports"
)

// voteService is the vote admission engine. Checks run in strict order and
// short-circuit: unknown poll, invalid option and rate denial all leave the
// store untouched. The record insert and counter bump happen in one store
// transaction, so a vote is either fully counted or not admitted at all.
type voteService struct {
	pollRepo    ports.PollRepository
	voteRepo    ports.VoteRepository
	rateLimiter ports.RateLimiter
	broadcaster ports.Broadcaster
}

func NewVoteService(pollRepo ports.PollRepository, voteRepo ports.VoteRepository, rateLimiter ports.RateLimiter, broadcaster ports.Broadcaster) ports.VoteService {
	return &voteService{
		pollRepo:    pollRepo,
		voteRepo:    voteRepo,
		rateLimiter: rateLimiter,
		broadcaster: broadcaster,
	}
}

func (s *voteService) Vote(ctx context.Context, input ports.VoteInput) (*domain.Poll, error) {
	poll, err := s.pollRepo.GetByID(ctx, input.PollID)
	if err != nil {
		return nil, err
	}

	if !poll.HasOption(input.OptionID) {
		return nil, domain.ErrInvalidOption
	}

	if err := s.rateLimiter.Check(ctx, input.PollID, input.RateKey); err != nil {
		return nil, err
	}

	vote := &domain.VoteRecord{
		PollID:    input.PollID,
		VoterID:   input.VoterID,
		OptionID:  input.OptionID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.voteRepo.RecordVote(ctx, vote); err != nil {
		return nil, err
	}

	updated, err := s.pollRepo.GetByID(ctx, input.PollID)
	if err != nil {
		return nil, err
	}

	// Best effort: a lost notification never rolls back an admitted vote.
	s.broadcaster.Publish(poll.ID, ports.Event{
		PollID:  poll.ID,
		Version: updated.Version,
		At:      updated.UpdatedAt,
	})
	slog.Debug("vote admitted", "poll_id", poll.ID, "version", updated.Version)

	return updated, nil
}
