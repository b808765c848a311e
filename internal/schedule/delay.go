// Package schedule holds the pacing policy: randomized delays between actions,
// the working-hours window and cancellable periodic tasks.
package schedule

import (
	"context"
	"math/rand"
	"time"

	"github.com/unclebandit/linkedin-outreach/internal/model"
)

// RandomDelay picks a uniformly distributed whole number of milliseconds in [Min, Max].
func RandomDelay(r model.DelayRange) time.Duration {
	if r.Max <= r.Min {
		return time.Duration(max(r.Min, 0)) * time.Millisecond
	}
	return time.Duration(r.Min+rand.Intn(r.Max-r.Min+1)) * time.Millisecond
}

// Delayer pauses between page actions.
type Delayer interface {
	Wait(ctx context.Context, r model.DelayRange) error
}

// RandomDelayer sleeps for RandomDelay(r) and returns early with ctx.Err()
// when the context is cancelled.
type RandomDelayer struct{}

func (RandomDelayer) Wait(ctx context.Context, r model.DelayRange) error {
	return Sleep(ctx, RandomDelay(r))
}

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

// Immediate never sleeps. Used by the seeder and in tests.
type Immediate struct{}

func (Immediate) Wait(ctx context.Context, _ model.DelayRange) error { return ctx.Err() }

// Seconds builds a DelayRange from whole seconds.
func Seconds(lo, hi int) model.DelayRange {
	return model.DelayRange{Min: lo * 1000, Max: hi * 1000}
}
