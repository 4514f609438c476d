package messaging

import (
	"context"
	"time"
)

// Event is a domain event published after a state change.
type Event struct {
	Type    string
	Key     string // partitioning key (batch id)
	At      time.Time
	Payload any
}

// Publisher is a generic transport for domain events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards every event; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, ev Event) error { return nil }
func (Noop) Close() error                                { return nil }
