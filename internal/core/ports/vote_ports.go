package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/livepoll/api/internal/core/domain"
)

type VoteRepository interface {
	// RecordVote inserts the vote record and bumps the option, total and
	// version counters in a single transaction. It returns
	// domain.ErrAlreadyVoted when a record already exists for
	// (poll, voter); in that case nothing is mutated.
	RecordVote(ctx context.Context, vote *domain.VoteRecord) error
}

type VoteInput struct {
	PollID   uuid.UUID
	OptionID uuid.UUID
	VoterID  uuid.UUID
	RateKey  string
}

type VoteService interface {
	Vote(ctx context.Context, input VoteInput) (*domain.Poll, error)
}
