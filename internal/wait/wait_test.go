package wait

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestUntil(t *testing.T) {
	ctx := context.Background()
	clk := clock.New()

	t.Run("satisfied on the first attempt", func(t *testing.T) {
		calls := 0
		ok := Until(ctx, clk, 5, time.Millisecond, func(context.Context) (bool, error) {
			calls++
			return true, nil
		})
		assert.True(t, ok)
		assert.Equal(t, 1, calls)
	})

	t.Run("predicate errors count as not yet satisfied", func(t *testing.T) {
		calls := 0
		ok := Until(ctx, clk, 5, time.Millisecond, func(context.Context) (bool, error) {
			calls++
			if calls < 3 {
				return false, errors.New("page still loading")
			}
			return true, nil
		})
		assert.True(t, ok)
		assert.Equal(t, 3, calls)
	})

	t.Run("a true with an error is not success", func(t *testing.T) {
		calls := 0
		ok := Until(ctx, clk, 3, time.Millisecond, func(context.Context) (bool, error) {
			calls++
			return true, errors.New("unreliable")
		})
		assert.False(t, ok)
		assert.Equal(t, 3, calls)
	})

	t.Run("budget exhaustion is false after exactly the budget", func(t *testing.T) {
		calls := 0
		ok := Until(ctx, clk, 4, time.Millisecond, func(context.Context) (bool, error) {
			calls++
			return false, nil
		})
		assert.False(t, ok)
		assert.Equal(t, 4, calls)
	})

	t.Run("cancellation ends the wait early", func(t *testing.T) {
		shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		ok := Until(shortCtx, clk, 10, time.Hour, func(context.Context) (bool, error) {
			return false, nil
		})
		assert.False(t, ok)
		assert.Less(t, time.Since(start), time.Minute)
	})

	t.Run("sleep completes after the duration", func(t *testing.T) {
		assert.True(t, Sleep(ctx, clk, time.Millisecond))
	})

	t.Run("sleep returns false when cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.False(t, Sleep(cancelled, clk, time.Hour))
	})

	t.Run("uses the injected clock", func(t *testing.T) {
		mock := clock.NewMock()
		var calls atomic.Int32
		done := make(chan bool, 1)
		go func() {
			done <- Until(ctx, mock, 3, time.Hour, func(context.Context) (bool, error) {
				calls.Add(1)
				return false, nil
			})
		}()

		// Hour-long intervals complete instantly on the mock clock.
		for {
			select {
			case ok := <-done:
				assert.False(t, ok)
				assert.Equal(t, int32(3), calls.Load())
				return
			default:
				mock.Add(time.Hour)
			}
		}
	})
}
