package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/livepoll/api/internal/core/domain"
	"github.com/livepoll/api/internal/core/ports"
)

type attemptRepository struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) ports.AttemptRepository {
	return &attemptRepository{
		db: db,
	}
}

func (r *attemptRepository) CountSince(ctx context.Context, pollID uuid.UUID, rateKey string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM vote_attempts
		WHERE poll_id = $1 AND rate_key = $2 AND attempted_at >= $3
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, pollID, rateKey, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vote attempts: %w", err)
	}
	return count, nil
}

func (r *attemptRepository) Record(ctx context.Context, attempt *domain.VoteAttempt) error {
	query := `
		INSERT INTO vote_attempts (poll_id, rate_key, attempted_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, query, attempt.PollID, attempt.RateKey, attempt.AttemptedAt)
	if err != nil {
		return fmt.Errorf("failed to record vote attempt: %w", err)
	}
	return nil
}

func (r *attemptRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM vote_attempts WHERE attempted_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune vote attempts: %w", err)
	}
	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return pruned, nil
}
