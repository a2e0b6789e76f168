package utils

import (
	"context"
	"time"
)

// Now returns the current time in UTC, truncated to microseconds so values
// round-trip through postgres timestamp columns unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func NowPtr() *time.Time {
	now := Now()
	return &now
}

// SleepWithContext pauses for the given duration or until the context is
// cancelled, whichever comes first.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
