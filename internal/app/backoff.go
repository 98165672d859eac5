package app

import (
	"context"
	"math/rand"
	"time"
)

// Read-error retry delays. A failing source is retried after ReadRetryBase,
// doubling per consecutive failure up to ReadRetryMax.
const (
	ReadRetryBase = 250 * time.Millisecond
	ReadRetryMax  = 5 * time.Second
)

// retryDelay spaces out retries of consecutive read failures.
// Each delay carries up to ±20% jitter.
type retryDelay struct {
	base     time.Duration
	max      time.Duration
	failures int

	// jitter returns a value in [-1, 1).
	jitter func() float64
}

func newRetryDelay(base, max time.Duration) *retryDelay {
	return &retryDelay{
		base:   base,
		max:    max,
		jitter: func() float64 { return rand.Float64()*2 - 1 },
	}
}

// next returns the delay for the current failure and counts it.
func (d *retryDelay) next() time.Duration {
	delay := d.base
	for i := 0; i < d.failures && delay < d.max; i++ {
		delay *= 2
	}
	if delay > d.max {
		delay = d.max
	}
	d.failures++
	return delay + time.Duration(0.2*float64(delay)*d.jitter())
}

// sleep waits out the next delay. Returns ctx.Err() if ctx ends first.
func (d *retryDelay) sleep(ctx context.Context) error {
	timer := time.NewTimer(d.next())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reset is called after a successful read.
func (d *retryDelay) reset() {
	d.failures = 0
}
