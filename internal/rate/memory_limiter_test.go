package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l := NewMemoryLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d denied under the limit", i)
		}
		if res.CurrentHits != int64(i) {
			t.Fatalf("hit %d counted as %d", i, res.CurrentHits)
		}
		if res.Remaining != int64(3-i) {
			t.Fatalf("hit %d remaining = %d, want %d", i, res.Remaining, 3-i)
		}
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if res.Allowed {
		t.Fatal("fourth hit allowed over a limit of 3")
	}
	if res.Remaining != 0 {
		t.Fatalf("remaining = %d over the limit, want 0", res.Remaining)
	}
	if res.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v, want positive", res.RetryAfter)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Hour)
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "a"); !res.Allowed {
		t.Fatal("first hit for key a denied")
	}
	if res, _ := l.Allow(ctx, "a"); res.Allowed {
		t.Fatal("second hit for key a allowed over limit 1")
	}
	if res, _ := l.Allow(ctx, "b"); !res.Allowed {
		t.Fatal("key b throttled by key a's window")
	}
}

func TestMemoryLimiter_WindowResets(t *testing.T) {
	l := NewMemoryLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "x"); !res.Allowed {
		t.Fatal("first hit denied")
	}
	if res, _ := l.Allow(ctx, "x"); res.Allowed {
		t.Fatal("second hit in the same window allowed")
	}

	time.Sleep(60 * time.Millisecond)
	if res, _ := l.Allow(ctx, "x"); !res.Allowed {
		t.Fatal("hit denied after the window rolled over")
	}
}
