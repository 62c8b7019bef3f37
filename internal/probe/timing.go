package probe

import (
	"context"
	"time"
)

// Timing holds the bounded-retry constants for polling checks. The defaults
// are tuned to the latency of the hosted editor and are configurable.
type Timing struct {
	PollAttempts int
	PollInterval time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		PollAttempts: 8,
		PollInterval: 500 * time.Millisecond,
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poll waits interval then evaluates cond, up to attempts times. It returns
// whether cond held and how many attempts were made.
func Poll(ctx context.Context, attempts int, interval time.Duration, cond func(context.Context) (bool, error)) (bool, int, error) {
	for i := 1; i <= attempts; i++ {
		if err := Sleep(ctx, interval); err != nil {
			return false, i - 1, err
		}
		ok, err := cond(ctx)
		if err != nil {
			return false, i, err
		}
		if ok {
			return true, i, nil
		}
	}
	return false, attempts, nil
}
