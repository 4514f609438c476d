package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Do(t *testing.T) {
	p := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}

	t.Run("SucceedsAfterFailures", func(t *testing.T) {
		calls := 0
		err := p.Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("broker unavailable")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("ReturnsLastError", func(t *testing.T) {
		calls := 0
		err := p.Do(context.Background(), func() error {
			calls++
			return errors.New("still down")
		})
		assert.EqualError(t, err, "still down")
		assert.Equal(t, 3, calls)
	})

	t.Run("StopsOnCancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := RetryPolicy{Attempts: 5, Backoff: time.Hour}
		err := slow.Do(ctx, func() error { return errors.New("down") })
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("ZeroAttemptsRunsOnce", func(t *testing.T) {
		calls := 0
		_ = RetryPolicy{}.Do(context.Background(), func() error { calls++; return errors.New("x") })
		assert.Equal(t, 1, calls)
	})
}
