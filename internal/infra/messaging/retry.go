package messaging

import (
	"context"
	"log/slog"
	"time"
)

type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration // doubled after every failed attempt
}

var DefaultRetryPolicy = RetryPolicy{Attempts: 5, Backoff: 500 * time.Millisecond}

// Do retries send with exponential backoff until it succeeds or gives up.
func (p RetryPolicy) Do(ctx context.Context, send func() error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := p.Backoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = send(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		slog.WarnContext(ctx, "send failed, retrying",
			slog.Int("attempt", attempt),
			slog.String("backoff", backoff.String()),
			slog.Any("error", err),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return err
}
