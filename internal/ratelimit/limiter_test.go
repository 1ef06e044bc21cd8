package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLimiterFixedWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewLimiter(NewMemoryStore(), map[RouteClass]Rule{
		ClassCreation: {Limit: 10, Window: 60 * time.Second},
	}, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		d := limiter.Check(ctx, "X", ClassCreation)
		if !d.Allowed {
			t.Fatalf("call %d rejected", i+1)
		}
		if d.Remaining != 10-(i+1) {
			t.Fatalf("call %d: expected remaining %d, got %d", i+1, 10-(i+1), d.Remaining)
		}
	}

	d := limiter.Check(ctx, "X", ClassCreation)
	if d.Allowed || d.Remaining != 0 {
		t.Fatalf("expected 11th call rejected, got %+v", d)
	}
	if wait := d.RetryAfter(now); wait != 60*time.Second {
		t.Fatalf("expected retry after 60s, got %v", wait)
	}

	now = now.Add(60001 * time.Millisecond)
	d = limiter.Check(ctx, "X", ClassCreation)
	if !d.Allowed || d.Remaining != 9 {
		t.Fatalf("expected fresh window, got %+v", d)
	}
}

func TestLimiterWindowEndIsInclusive(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewLimiter(NewMemoryStore(), map[RouteClass]Rule{
		ClassAuth: {Limit: 1, Window: time.Minute},
	}, WithClock(func() time.Time { return now }))

	limiter.Check(context.Background(), "X", ClassAuth)
	now = now.Add(time.Minute)
	if limiter.Check(context.Background(), "X", ClassAuth).Allowed {
		t.Fatalf("expected window to still be active at its end")
	}
}

func TestLimiterSeparatesClientsAndClasses(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), map[RouteClass]Rule{
		ClassAuth: {Limit: 1, Window: time.Minute},
	})
	ctx := context.Background()

	if !limiter.Check(ctx, "X", ClassAuth).Allowed {
		t.Fatalf("first auth call rejected")
	}
	if limiter.Check(ctx, "X", ClassAuth).Allowed {
		t.Fatalf("second auth call allowed")
	}
	if !limiter.Check(ctx, "Y", ClassAuth).Allowed {
		t.Fatalf("other client throttled")
	}
	if !limiter.Check(ctx, "X", ClassGeneral).Allowed {
		t.Fatalf("other class throttled")
	}
}

func TestLimiterUnknownClassUsesGeneral(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), nil)
	if got := limiter.Rule("uploads"); got != DefaultRules()[ClassGeneral] {
		t.Fatalf("expected general rule, got %+v", got)
	}
	if d := limiter.Check(context.Background(), "X", "uploads"); d.Limit != 100 {
		t.Fatalf("expected general limit, got %+v", d)
	}
}

func TestLimiterFailsOpen(t *testing.T) {
	limiter := NewLimiter(failingStore{}, nil)
	d := limiter.Check(context.Background(), "X", ClassAuth)
	if !d.Allowed || d.Remaining != d.Limit {
		t.Fatalf("expected fail-open decision, got %+v", d)
	}
}

func TestLimiterConcurrentHitsAreCounted(t *testing.T) {
	store := NewMemoryStore()
	limiter := NewLimiter(store, map[RouteClass]Rule{
		ClassGeneral: {Limit: 50, Window: time.Minute},
	})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Check(context.Background(), "X", ClassGeneral).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 50 {
		t.Fatalf("expected exactly 50 allowed, got %d", allowed)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	now := time.Unix(1_700_000_000, 0)
	ctx := context.Background()

	_, _, _ = store.Hit(ctx, "short", time.Second, now)
	_, _, _ = store.Hit(ctx, "long", time.Hour, now)

	if n := store.Sweep(now.Add(2 * time.Second)); n != 1 {
		t.Fatalf("expected one bucket swept, got %d", n)
	}
	if store.Len() != 1 {
		t.Fatalf("expected long bucket kept, got %d buckets", store.Len())
	}
}

func TestSweepInterval(t *testing.T) {
	rules := DefaultRules()
	if got := SweepInterval(time.Minute, rules); got != 15*time.Minute {
		t.Fatalf("expected longest window, got %v", got)
	}
	if got := SweepInterval(time.Hour, rules); got != time.Hour {
		t.Fatalf("expected configured interval, got %v", got)
	}
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration, time.Time) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("store down")
}
