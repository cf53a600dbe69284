// Package ratelimit implements fixed-window request counting keyed by an
// arbitrary string, usually the client IP.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Policy is a named limit: at most Max allowed checks per Window.
type Policy struct {
	Name   string
	Max    int
	Window time.Duration
}

var (
	LoginPolicy  = Policy{Name: "login", Max: 5, Window: 15 * time.Minute}
	SignupPolicy = Policy{Name: "signup", Max: 3, Window: time.Hour}
	TweetPolicy  = Policy{Name: "tweet", Max: 10, Window: time.Minute}
)

// Result is the outcome of one Check. ResetTime is always in UTC.
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// RetryAfter is the time left until the window resets, rounded up to whole seconds.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetTime.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// Store performs the read-modify-write of one counter atomically.
// Implementations must apply exactly the fixed-window rules:
// an entry whose resetTime has passed is discarded, a missing entry is
// created with count 0 and resetTime now+window, a check at count >= max
// is denied without incrementing, and any other check increments.
type Store interface {
	Hit(ctx context.Context, key string, max int, window time.Duration) (Result, error)
}

// Limiter applies one Policy. Limiters sharing a Store never share counters.
type Limiter struct {
	policy Policy
	store  Store
}

func New(policy Policy, store Store) *Limiter {
	return &Limiter{policy: policy, store: store}
}

func (l *Limiter) Policy() Policy {
	return l.policy
}

// Check counts one request for key and reports whether it is allowed.
func (l *Limiter) Check(ctx context.Context, key string) (Result, error) {
	res, err := l.store.Hit(ctx, l.policy.Name+":"+key, l.policy.Max, l.policy.Window)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", l.policy.Name, err)
	}
	return res, nil
}

// ClientKey derives the counter key for a request. It never fails: when no
// address is available every such request shares the "unknown" bucket.
func ClientKey(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		if first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(realIP); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(remoteAddr); ip != "" {
		return ip
	}
	return "unknown"
}
