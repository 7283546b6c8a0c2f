package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		burst    int
		calls    int
		wantPass int
	}{
		{name: "within burst", burst: 4, calls: 4, wantPass: 4},
		{name: "beyond burst", burst: 2, calls: 6, wantPass: 2},
		{name: "single token", burst: 1, calls: 3, wantPass: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(0.5, tt.burst)
			defer l.Stop()

			passed := 0
			for range tt.calls {
				if l.Allow("kitsu.io") {
					passed++
				}
			}
			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(0.5, 1)
	defer l.Stop()

	l.Allow("10.0.0.1")
	if l.Allow("10.0.0.1") {
		t.Error("first client should be exhausted")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("second client should have its own bucket")
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	l := New(0.1, 1)
	defer l.Stop()
	l.Allow("kitsu.io")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "kitsu.io"); err == nil {
		t.Error("Wait() should fail once the context expires")
	}
}

func TestLimiter_WaitPaces(t *testing.T) {
	l := New(20, 1)
	defer l.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.Wait(ctx, "kitsu.io"); err != nil {
		t.Fatalf("first Wait() failed: %v", err)
	}
	start := time.Now()
	if err := l.Wait(ctx, "kitsu.io"); err != nil {
		t.Fatalf("second Wait() failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("second Wait() took %v, want ~50ms", elapsed)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_SweepEvictsIdleKeys(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := newLimiter(1, 1, time.Minute, 0, clock.Now)
	defer l.Stop()

	l.Allow("stale")
	clock.Advance(45 * time.Second)
	l.Allow("fresh")
	clock.Advance(30 * time.Second)

	if removed := l.sweep(); removed != 1 {
		t.Errorf("sweep() removed %d, want 1", removed)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}
