package ports

import "context"

type ReconcileRepository interface {
	// RebuildCounters recomputes option and total counters from the vote
	// records and returns the number of polls whose counters changed.
	RebuildCounters(ctx context.Context) (int64, error)
}

type ReconcileService interface {
	Run(ctx context.Context) error
}
