package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowConsumesTokens(t *testing.T) {
	t.Parallel()

	l := New(3, 0.0001)
	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}
	if l.Allow() {
		t.Error("Request beyond burst should be denied")
	}
}

func TestRefill(t *testing.T) {
	t.Parallel()

	l := New(1, 50) // refills fast enough for a short test
	if !l.Allow() {
		t.Fatal("First request should be allowed")
	}
	if l.Allow() {
		t.Fatal("Bucket should be empty")
	}

	time.Sleep(50 * time.Millisecond)
	if !l.Allow() {
		t.Error("Token should have been refilled")
	}
}

func TestWaitAcquiresToken(t *testing.T) {
	t.Parallel()

	l := New(1, 100)
	l.Allow() // drain

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Errorf("Wait should acquire a refilled token, got: %v", err)
	}
}

func TestWaitRespectsContext(t *testing.T) {
	t.Parallel()

	l := New(1, 0.001) // effectively never refills
	l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("Wait should fail when context expires before refill")
	}
}

func TestAvailableAndReset(t *testing.T) {
	t.Parallel()

	l := New(5, 0.0001)
	l.Allow()
	l.Allow()
	if avail := l.Available(); avail > 3.1 {
		t.Errorf("Expected about 3 tokens, got %v", avail)
	}
	if l.IsFull() {
		t.Error("Drained bucket should not report full")
	}

	l.Reset()
	if !l.IsFull() {
		t.Error("Reset bucket should be full")
	}
}

func TestPerKeyLimiter(t *testing.T) {
	t.Parallel()

	pkl := NewPerKeyLimiter(PerKeyLimiterConfig{
		MaxTokens:     2,
		RefillRate:    0.0001,
		CleanupPeriod: time.Minute,
	})
	defer pkl.Stop()

	dropped := 0
	pkl.OnDrop(func() { dropped++ })

	if !pkl.Allow("user-a") || !pkl.Allow("user-a") {
		t.Fatal("Burst requests should be allowed")
	}
	if pkl.Allow("user-a") {
		t.Error("Third request should be dropped")
	}
	if dropped != 1 {
		t.Errorf("Expected 1 drop callback, got %d", dropped)
	}

	// Independent bucket per key.
	if !pkl.Allow("user-b") {
		t.Error("Fresh key should be allowed")
	}
	if pkl.ActiveCount() != 2 {
		t.Errorf("Expected 2 active buckets, got %d", pkl.ActiveCount())
	}

	// Empty key bypasses limiting.
	for i := 0; i < 10; i++ {
		if !pkl.Allow("") {
			t.Fatal("Empty key must never be limited")
		}
	}
}

func TestPerKeyLimiterStopIdempotent(t *testing.T) {
	t.Parallel()

	pkl := NewPerKeyLimiter(PerKeyLimiterConfig{MaxTokens: 1, RefillRate: 1})
	pkl.Stop()
	pkl.Stop() // must not panic
}
