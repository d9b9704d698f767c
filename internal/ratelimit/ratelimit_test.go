package ratelimit

import (
	"context"
	"sync"
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

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

// exercise runs the same behavioural checks against any implementation.
func exercise(t *testing.T, l Limiter, clock *fakeClock) {
	ctx := context.Background()
	key := Key{Origin: "10.1.1.1", Identity: "Alice"}

	for i := 1; i < 3; i++ {
		st, err := l.RecordFailure(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, i, st.FailedCount)
		assert.Nil(t, st.LockedUntil)
	}
	locked, _, err := l.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, locked)

	st, err := l.RecordFailure(ctx, Key{Origin: "10.1.1.1", Identity: "ALICE"})
	require.NoError(t, err)
	require.NotNil(t, st.LockedUntil, "identity is case-insensitive")
	assert.True(t, st.Locked(clock.Now()))

	locked, remaining, err := l.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.True(t, locked)
	assert.InDelta(t, time.Minute.Seconds(), remaining.Seconds(), 1)

	other, _, err := l.IsLocked(ctx, Key{Origin: "10.9.9.9", Identity: "alice"})
	require.NoError(t, err)
	assert.False(t, other, "different origin is independent")

	neighbour, _, err := l.IsLocked(ctx, Key{Origin: "10.1.1.1", Identity: "bob"})
	require.NoError(t, err)
	assert.False(t, neighbour, "different identity at the same origin is independent")

	clock.Advance(time.Minute + time.Second)
	locked, _, err = l.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, locked, "lockout expires")

	st, err = l.RecordFailure(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, st.FailedCount, "window restarts after expiry")

	require.NoError(t, l.Clear(ctx, key))
	st, err = l.RecordFailure(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, st.FailedCount)
}

func TestMemoryLimiter(t *testing.T) {
	clock := newClock()
	l := NewMemory(Policy{Threshold: 3, Lockout: time.Minute}).WithClock(clock.Now)
	exercise(t, l, clock)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newClock()
	l := NewRedis(client, Policy{Threshold: 3, Lockout: time.Minute}).WithClock(clock.Now)
	exercise(t, l, clock)

	assert.True(t, mr.Exists("auth:lockout:10.1.1.1:alice"))
}

func TestMemoryConcurrentFailures(t *testing.T) {
	l := NewMemory(Policy{Threshold: 100, Lockout: time.Minute})
	key := Key{Origin: "o", Identity: "u"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.RecordFailure(context.Background(), key)
		}()
	}
	wg.Wait()

	st, err := l.RecordFailure(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 51, st.FailedCount)
}

func TestDefaults(t *testing.T) {
	p := Policy{}.withDefaults()
	assert.Equal(t, 5, p.Threshold)
	assert.Equal(t, 5*time.Minute, p.Lockout)
}
