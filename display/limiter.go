package display

import (
	"context"
	"time"
)

// DefaultInterval caps display updates at roughly 30 per second.
const DefaultInterval = 33 * time.Millisecond

// Limiter spaces display updates at least interval apart.
// A nil *Limiter never waits.
type Limiter struct {
	interval time.Duration
	last     time.Time
}

// NewLimiter returns a limiter for the given minimum interval.
// A non-positive interval disables limiting.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Interval is the minimum time between two updates.
func (l *Limiter) Interval() time.Duration {
	if l == nil {
		return 0
	}
	return l.interval
}

// Wait blocks until interval has passed since the previous Wait returned.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return ctx.Err()
	}

	if !l.last.IsZero() {
		if d := time.Until(l.last.Add(l.interval)); d > 0 {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	l.last = time.Now()
	return nil
}
