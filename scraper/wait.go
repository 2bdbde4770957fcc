package scraper

import (
	"context"
	"time"
)

// pollUntil evaluates probe at a fixed interval until it reports true or
// the timeout passes. Expiry is soft: it returns false rather than an
// error, so callers can degrade instead of fail.
func pollUntil(ctx context.Context, interval, timeout time.Duration, probe func() bool) bool {
	deadline := time.Now().Add(timeout)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if probe() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
	}
}

// sleepCtx suspends for d, returning false if the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
