// Package ratelimit implements a fixed-window request throttle keyed by client
// identity and route class.
package ratelimit

import (
	"context"
	"log"
	"time"
)

// RouteClass groups routes that share a limit.
type RouteClass string

const (
	ClassGeneral  RouteClass = "general"
	ClassAuth     RouteClass = "auth"
	ClassCreation RouteClass = "creation"
)

// Rule is the number of requests allowed per window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// DefaultRules returns the built-in limits. General traffic is the most permissive.
func DefaultRules() map[RouteClass]Rule {
	return map[RouteClass]Rule{
		ClassGeneral:  {Limit: 100, Window: time.Minute},
		ClassAuth:     {Limit: 5, Window: 15 * time.Minute},
		ClassCreation: {Limit: 10, Window: time.Minute},
	}
}

// Decision is the outcome of one check. It never carries an error; callers map a
// rejection to their own response.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left until the window resets, never negative.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if wait := d.ResetAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// Store counts hits per key within a window.
type Store interface {
	// Hit atomically registers one request for key and returns the count within the
	// current window and when that window ends. A missing or ended window starts over
	// at one.
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error)
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// Limiter applies per-class rules on top of a Store.
type Limiter struct {
	store Store
	rules map[RouteClass]Rule
	now   func() time.Time
}

func NewLimiter(store Store, rules map[RouteClass]Rule, opts ...Option) *Limiter {
	merged := DefaultRules()
	for class, rule := range rules {
		if rule.Limit > 0 && rule.Window > 0 {
			merged[class] = rule
		}
	}
	l := &Limiter{store: store, rules: merged, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Rule returns the rule applied to class. Unknown classes fall back to general.
func (l *Limiter) Rule(class RouteClass) Rule {
	if rule, ok := l.rules[class]; ok {
		return rule
	}
	return l.rules[ClassGeneral]
}

// Check counts one request from clientID against class. Store failures let the
// request through.
func (l *Limiter) Check(ctx context.Context, clientID string, class RouteClass) Decision {
	rule := l.Rule(class)
	now := l.now()

	count, resetAt, err := l.store.Hit(ctx, string(class)+":"+clientID, rule.Window, now)
	if err != nil {
		log.Printf("ratelimit: store failure for %s, allowing request: %v", class, err)
		return Decision{Allowed: true, Limit: rule.Limit, Remaining: rule.Limit, ResetAt: now.Add(rule.Window)}
	}

	remaining := rule.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= rule.Limit,
		Limit:     rule.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// SweepInterval returns configured, raised to the longest window in rules.
func SweepInterval(configured time.Duration, rules map[RouteClass]Rule) time.Duration {
	interval := configured
	for _, rule := range rules {
		if rule.Window > interval {
			interval = rule.Window
		}
	}
	return interval
}
