package domain

import (
	"time"

	"github.com/google/uuid"
)

// VoteRecord is the ground truth for an admitted vote. At most one record
// exists per (poll, voter); counters on Poll are derived from these rows.
type VoteRecord struct {
	PollID    uuid.UUID `json:"poll_id"`
	VoterID   uuid.UUID `json:"voter_id"`
	OptionID  uuid.UUID `json:"option_id"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteAttempt is one entry in the rate-limiter log. Entries older than the
// configured window are ignored when counting.
type VoteAttempt struct {
	PollID      uuid.UUID
	RateKey     string
	AttemptedAt time.Time
}
