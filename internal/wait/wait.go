// Package wait provides the bounded polling primitive behind readiness
// gates.
package wait

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Predicate is a fallible condition check. An error does not abort the
// wait: it counts as "not yet satisfied" for that attempt.
type Predicate func(ctx context.Context) (bool, error)

// Until polls pred every interval until it returns true, for at most
// attempts calls. It reports whether the condition was satisfied; budget
// exhaustion is an ordinary false, never an error. Cancelling ctx ends the
// wait early with false.
func Until(ctx context.Context, clk clock.Clock, attempts int, interval time.Duration, pred Predicate) bool {
	for i := 0; i < attempts; i++ {
		if ok, err := pred(ctx); err == nil && ok {
			return true
		}
		if !Sleep(ctx, clk, interval) {
			return false
		}
	}
	return false
}

// Sleep blocks for d on the supplied clock. It returns false if ctx ended
// first, so polling loops can use it directly as their tick pause.
func Sleep(ctx context.Context, clk clock.Clock, d time.Duration) bool {
	t := clk.Timer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
