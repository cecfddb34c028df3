package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy(t *testing.T) {
	t.Run("retries transient range-fetch failures", func(t *testing.T) {
		attempts := 0
		fetch := func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient transport error")
			}
			return nil
		}

		p := New(
			WithMaxAttempts(5),
			WithInitialDelay(10*time.Millisecond),
			WithMaxDelay(100*time.Millisecond),
			WithJitter(true),
		)

		err := p.Execute(context.Background(), fetch)

		require.NoError(t, err)
		assert.Equal(t, 3, attempts, "should succeed on third attempt")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		slowFetch := func() error {
			time.Sleep(100 * time.Millisecond)
			return errors.New("still failing")
		}

		p := New(WithMaxAttempts(10))

		err := p.Execute(ctx, slowFetch)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("exhausts attempts and returns last error", func(t *testing.T) {
		attempts := 0
		fetch := func() error {
			attempts++
			return errors.New("permanent transport error")
		}

		p := New(
			WithMaxAttempts(3),
			WithInitialDelay(1*time.Millisecond),
			WithMaxDelay(5*time.Millisecond),
		)

		err := p.Execute(context.Background(), fetch)

		require.Error(t, err)
		assert.Equal(t, 3, attempts)
	})
}
