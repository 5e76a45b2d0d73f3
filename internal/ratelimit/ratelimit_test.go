package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAcquireEnforcesSpacing(t *testing.T) {
	limiter := NewWithOptions(50*time.Millisecond, 2)
	ctx := context.Background()

	start := time.Now()
	release, err := limiter.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("First acquire failed: %v", err)
	}
	release()

	release, err = limiter.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("Second acquire failed: %v", err)
	}
	release()

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Expected second acquire delayed by spacing, elapsed %v", elapsed)
	}
}

func TestAcquireIndependentOrigins(t *testing.T) {
	limiter := NewWithOptions(time.Second, 2)
	ctx := context.Background()

	start := time.Now()
	for _, key := range []string{"one.com", "two.com", "three.com"} {
		release, err := limiter.Acquire(ctx, key)
		if err != nil {
			t.Fatalf("Acquire for %s failed: %v", key, err)
		}
		release()
	}

	// Distinct origins never wait on each other's spacing.
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Expected independent origins to proceed immediately, elapsed %v", elapsed)
	}
}

func TestAcquireConcurrencyCap(t *testing.T) {
	limiter := NewWithOptions(0, 1)
	ctx := context.Background()

	release, err := limiter.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("First acquire failed: %v", err)
	}

	// With the single slot held, a second acquire must block until release.
	done := make(chan struct{})
	go func() {
		r, err := limiter.Acquire(ctx, "example.com")
		if err == nil {
			r()
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Expected second acquire to block while slot held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected second acquire to proceed after release")
	}
}

func TestAcquireHonorsContextCancel(t *testing.T) {
	limiter := NewWithOptions(0, 1)

	release, err := limiter.Acquire(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("First acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := limiter.Acquire(ctx, "example.com"); err == nil {
		t.Fatal("Expected acquire to fail when context expires while blocked")
	}
}
