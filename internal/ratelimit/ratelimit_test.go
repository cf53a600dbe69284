package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newRedisStore(t *testing.T, clock *fakeClock) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client)
	s.now = clock.Now
	return s
}

func stores(t *testing.T) map[string]func(*fakeClock) Store {
	return map[string]func(*fakeClock) Store{
		"memory": func(c *fakeClock) Store { return NewMemoryStore(WithClock(c.Now)) },
		"redis":  func(c *fakeClock) Store { return newRedisStore(t, c) },
	}
}

func TestLimiter_FixedWindow(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			l := New(Policy{Name: "test", Max: 3, Window: time.Second}, mk(clock))

			var allowed []bool
			var first Result
			for i := 0; i < 4; i++ {
				res, err := l.Check(ctx, "1.2.3.4")
				require.NoError(t, err)
				if i == 0 {
					first = res
				}
				allowed = append(allowed, res.Allowed)
			}
			assert.Equal(t, []bool{true, true, true, false}, allowed)
			assert.True(t, clock.Now().Add(time.Second).Equal(first.ResetTime), "reset %v", first.ResetTime)
			assert.Equal(t, 2, first.Remaining)

			clock.Advance(time.Second)

			res, err := l.Check(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, 2, res.Remaining)
			assert.True(t, clock.Now().Add(time.Second).Equal(res.ResetTime), "reset %v", res.ResetTime)
		})
	}
}

func TestLimiter_ResetTimeIsUTC(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			clock := &fakeClock{t: time.Date(2024, 5, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*60*60))}
			l := New(Policy{Name: "test", Max: 1, Window: time.Minute}, mk(clock))

			res, err := l.Check(context.Background(), "1.2.3.4")
			require.NoError(t, err)
			assert.Equal(t, time.UTC, res.ResetTime.Location())
			assert.Equal(t, time.Date(2024, 5, 1, 12, 1, 0, 0, time.UTC), res.ResetTime)

			res, err = l.Check(context.Background(), "1.2.3.4")
			require.NoError(t, err)
			assert.False(t, res.Allowed)
			assert.Equal(t, time.UTC, res.ResetTime.Location())
		})
	}
}

func TestLimiter_DeniedDoesNotIncrement(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			l := New(Policy{Name: "test", Max: 1, Window: time.Minute}, mk(clock))

			res, err := l.Check(ctx, "k")
			require.NoError(t, err)
			require.True(t, res.Allowed)
			assert.Equal(t, 0, res.Remaining)

			for i := 0; i < 5; i++ {
				res, err = l.Check(ctx, "k")
				require.NoError(t, err)
				assert.False(t, res.Allowed)
				assert.Equal(t, 0, res.Remaining)
			}

			clock.Advance(time.Minute)
			res, err = l.Check(ctx, "k")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
		})
	}
}

func TestLimiter_PoliciesDoNotShareCounters(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := mk(newFakeClock())
			login := New(Policy{Name: "login", Max: 1, Window: time.Minute}, store)
			signup := New(Policy{Name: "signup", Max: 1, Window: time.Minute}, store)

			res, err := login.Check(ctx, "ip")
			require.NoError(t, err)
			assert.True(t, res.Allowed)

			res, err = signup.Check(ctx, "ip")
			require.NoError(t, err)
			assert.True(t, res.Allowed)

			res, err = login.Check(ctx, "other-ip")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
		})
	}
}

func TestMemoryStore_ConcurrentChecks(t *testing.T) {
	l := New(Policy{Name: "tweet", Max: 50, Window: time.Minute}, NewMemoryStore())

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Check(context.Background(), "same")
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), allowed.Load())
}

func TestMemoryStore_Sweep(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	_, err := store.Hit(ctx, "a", 1, time.Second)
	require.NoError(t, err)
	_, err = store.Hit(ctx, "b", 1, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	clock.Advance(time.Second)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestResult_RetryAfter(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 0, Result{ResetTime: now.Add(-time.Second)}.RetryAfter(now))
	assert.Equal(t, 1, Result{ResetTime: now.Add(200 * time.Millisecond)}.RetryAfter(now))
	assert.Equal(t, 900, Result{ResetTime: now.Add(15 * time.Minute)}.RetryAfter(now))
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		realIP       string
		remote       string
		want         string
	}{
		{"forwarded chain takes first", "10.0.0.1, 10.0.0.2", "10.0.0.9", "127.0.0.1", "10.0.0.1"},
		{"real ip when no forwarded", "", "10.0.0.9", "127.0.0.1", "10.0.0.9"},
		{"remote as last resort", "", "", "127.0.0.1", "127.0.0.1"},
		{"unknown when nothing", "", "", "", "unknown"},
		{"blank forwarded entry skipped", " ,10.0.0.2", "", "127.0.0.1", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientKey(tt.forwardedFor, tt.realIP, tt.remote))
		})
	}
}
