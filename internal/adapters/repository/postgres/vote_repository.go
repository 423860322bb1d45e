package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/livepoll/api/internal/core/domain"
	"github.com/livepoll/api/internal/core/ports"
)

const pqUniqueViolation = "23505"

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

// RecordVote runs the admission write path in one transaction: a conditional
// insert keyed on (poll_id, voter_id), then the counter and version bumps.
// The primary key makes the insert the linearization point; when two attempts
// for the same voter race, the loser sees zero affected rows and nothing it
// did becomes visible.
func (r *voteRepository) RecordVote(ctx context.Context, vote *domain.VoteRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertVote := `
		INSERT INTO vote_records (poll_id, voter_id, option_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (poll_id, voter_id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, insertVote, vote.PollID, vote.VoterID, vote.OptionID, vote.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to insert vote record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrAlreadyVoted
	}

	incrementOption := `
		UPDATE poll_options
		SET votes = votes + 1
		WHERE id = $1 AND poll_id = $2
	`
	res, err = tx.ExecContext(ctx, incrementOption, vote.OptionID, vote.PollID)
	if err != nil {
		return fmt.Errorf("failed to increment option counter: %w", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrInvalidOption
	}

	incrementPoll := `
		UPDATE polls
		SET total_votes = total_votes + 1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, incrementPoll, vote.PollID, vote.CreatedAt); err != nil {
		return fmt.Errorf("failed to increment poll counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
