package database

import (
	"context"
	"fmt"
	"time"
)

// Pinger is satisfied by every client of this package.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backoff controls WaitReady.
type Backoff struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

var DefaultBackoff = Backoff{Attempts: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}

// WaitReady pings p until it answers, doubling the delay between attempts.
func WaitReady(ctx context.Context, name string, p Pinger, b Backoff) error {
	if b.Attempts <= 0 {
		b.Attempts = 1
	}

	var lastErr error
	delay := b.BaseDelay
	for attempt := 1; attempt <= b.Attempts; attempt++ {
		if lastErr = p.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == b.Attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s not ready: %w", name, ctx.Err())
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return fmt.Errorf("%s not ready after %d attempts: %w", name, b.Attempts, lastErr)
}
