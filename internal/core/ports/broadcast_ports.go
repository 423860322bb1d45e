package ports

import (
	"time"

	"github.com/google/uuid"
)

// Event signals that a poll changed. It carries no authoritative payload;
// clients are expected to re-fetch the poll on receipt.
type Event struct {
	PollID  uuid.UUID
	Version int64
	At      time.Time
}

type Broadcaster interface {
	// Subscribe returns a channel of events for the poll and a cancel
	// function. Cancel must be called when the consumer goes away; it
	// deregisters the subscriber and closes the channel.
	Subscribe(pollID uuid.UUID) (<-chan Event, func())

	// Publish delivers the event to every current subscriber of the poll.
	// Delivery is best effort and never blocks on a slow subscriber.
	Publish(pollID uuid.UUID, event Event)

	// Close terminates all subscriptions.
	Close()
}
