package quota

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAcquireSpacesSequentialCalls(t *testing.T) {
	g := New(2, 200*time.Millisecond) // 100ms between calls
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := g.Acquire(ctx); err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
	}

	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Fatalf("3 acquisitions completed in %v, want >= 200ms", elapsed)
	}
}

func TestAcquireSpacesConcurrentCallers(t *testing.T) {
	g := New(2, 100*time.Millisecond) // 50ms between calls
	ctx := context.Background()

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire(ctx); err != nil {
				t.Errorf("Acquire: %v", err)
			}
		}()
	}
	wg.Wait()

	// 4 grants must span at least 3 intervals no matter how the callers raced.
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Fatalf("4 concurrent acquisitions completed in %v, want >= 150ms", elapsed)
	}
}

func TestAcquireFirstCallIsImmediate(t *testing.T) {
	g := New(2, time.Minute)

	start := time.Now()
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("first Acquire waited %v, want immediate", elapsed)
	}
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	g := New(1, time.Hour)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := g.Acquire(ctx)
	if err == nil {
		t.Fatal("expected context error while waiting for a slot")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancelled Acquire returned after %v", elapsed)
	}
}

func TestNewClampsInvalidSettings(t *testing.T) {
	g := New(0, 0)
	if g.MinInterval() != DefaultPeriod {
		t.Fatalf("unexpected interval %v", g.MinInterval())
	}
}
