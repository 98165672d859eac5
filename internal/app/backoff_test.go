package app

import (
	"context"
	"testing"
	"time"
)

func TestRetryDelay_DoublesAndCaps(t *testing.T) {
	d := newRetryDelay(time.Millisecond, 4*time.Millisecond)
	d.jitter = func() float64 { return 0 }

	want := []time.Duration{1, 2, 4, 4, 4}
	for i, w := range want {
		if got := d.next(); got != w*time.Millisecond {
			t.Errorf("failure %d: next() = %v, want %v", i+1, got, w*time.Millisecond)
		}
	}

	d.reset()
	if got := d.next(); got != time.Millisecond {
		t.Errorf("after reset next() = %v, want 1ms", got)
	}
}

func TestRetryDelay_JitterBounds(t *testing.T) {
	d := newRetryDelay(100*time.Millisecond, time.Second)

	d.jitter = func() float64 { return -1 }
	if got := d.next(); got != 80*time.Millisecond {
		t.Errorf("low jitter next() = %v, want 80ms", got)
	}
	d.jitter = func() float64 { return 0.5 }
	if got := d.next(); got != 220*time.Millisecond {
		t.Errorf("high jitter next() = %v, want 220ms", got)
	}
}

func TestRetryDelay_SleepCanceled(t *testing.T) {
	d := newRetryDelay(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.sleep(ctx); err != context.Canceled {
		t.Errorf("sleep() = %v, want context.Canceled", err)
	}
}

func TestRetryDelay_Sleep(t *testing.T) {
	d := newRetryDelay(time.Millisecond, time.Millisecond)
	if err := d.sleep(context.Background()); err != nil {
		t.Errorf("sleep() = %v, want nil", err)
	}
}
