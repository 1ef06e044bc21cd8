package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisStoreWindow(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewLimiter(NewRedisStore(client), map[RouteClass]Rule{
		ClassCreation: {Limit: 2, Window: time.Minute},
	})
	ctx := context.Background()

	if !limiter.Check(ctx, "X", ClassCreation).Allowed || !limiter.Check(ctx, "X", ClassCreation).Allowed {
		t.Fatalf("expected first two calls allowed")
	}
	d := limiter.Check(ctx, "X", ClassCreation)
	if d.Allowed {
		t.Fatalf("expected third call rejected")
	}
	if got := mr.TTL("ratelimit:creation:X"); got <= 0 || got > time.Minute {
		t.Fatalf("expected window ttl on key, got %v", got)
	}

	mr.FastForward(time.Minute + time.Millisecond)
	d = limiter.Check(ctx, "X", ClassCreation)
	if !d.Allowed || d.Remaining != 1 {
		t.Fatalf("expected fresh window, got %+v", d)
	}
}
