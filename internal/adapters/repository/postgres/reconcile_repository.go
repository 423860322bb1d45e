package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/livepoll/api/internal/core/ports"
)

type reconcileRepository struct {
	db *sql.DB
}

func NewReconcileRepository(db *sql.DB) ports.ReconcileRepository {
	return &reconcileRepository{
		db: db,
	}
}

// RebuildCounters recomputes every option counter from vote_records and
// rewrites poll totals where they disagree. Polls whose counters changed get
// a single version bump so live viewers re-fetch.
func (r *reconcileRepository) RebuildCounters(ctx context.Context) (int64, error) {
	query := `
		WITH actual AS (
			SELECT po.id AS option_id, po.poll_id, po.votes AS cached, COALESCE(vr.cnt, 0) AS cnt
			FROM poll_options po
			LEFT JOIN (
				SELECT option_id, COUNT(*) AS cnt
				FROM vote_records
				GROUP BY option_id
			) vr ON vr.option_id = po.id
		),
		totals AS (
			SELECT poll_id, SUM(cnt) AS total
			FROM actual
			GROUP BY poll_id
		),
		changed AS (
			SELECT DISTINCT poll_id FROM actual WHERE cached <> cnt
			UNION
			SELECT p.id FROM polls p JOIN totals t ON t.poll_id = p.id WHERE p.total_votes <> t.total
		),
		fix_options AS (
			UPDATE poll_options po
			SET votes = a.cnt
			FROM actual a
			WHERE po.id = a.option_id AND a.cached <> a.cnt
			RETURNING po.id
		),
		fix_polls AS (
			UPDATE polls p
			SET total_votes = t.total,
			    version = p.version + 1,
			    updated_at = NOW()
			FROM totals t
			WHERE p.id = t.poll_id AND p.id IN (SELECT poll_id FROM changed)
			RETURNING p.id
		)
		SELECT COUNT(*) FROM fix_polls
	`

	var fixed int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&fixed); err != nil {
		return 0, fmt.Errorf("failed to rebuild counters: %w", err)
	}
	return fixed, nil
}
