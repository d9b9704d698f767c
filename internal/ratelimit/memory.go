package ratelimit

import (
	"context"
	"time"

	"stock-service/internal/shardmap"
)

type entry struct {
	failures    int
	lockedUntil time.Time
}

// Memory keeps counters in process. Expired lockouts are reset lazily on the
// next access to the key.
type Memory struct {
	policy  Policy
	entries *shardmap.Map[entry]
	now     func() time.Time
}

func NewMemory(p Policy) *Memory {
	return &Memory{
		policy:  p.withDefaults(),
		entries: shardmap.New[entry](shardmap.DefaultShards),
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) RecordFailure(_ context.Context, key Key) (State, error) {
	now := m.now()
	next := m.entries.Update(key.String(), func(cur entry, ok bool) (entry, bool) {
		if ok && !cur.lockedUntil.IsZero() && !now.Before(cur.lockedUntil) {
			cur = entry{}
		}
		cur.failures++
		if cur.failures >= m.policy.Threshold && cur.lockedUntil.IsZero() {
			cur.lockedUntil = now.Add(m.policy.Lockout)
		}
		return cur, true
	})

	st := State{FailedCount: next.failures}
	if !next.lockedUntil.IsZero() {
		t := next.lockedUntil
		st.LockedUntil = &t
	}
	return st, nil
}

func (m *Memory) IsLocked(_ context.Context, key Key) (bool, time.Duration, error) {
	now := m.now()
	var remaining time.Duration
	m.entries.Update(key.String(), func(cur entry, ok bool) (entry, bool) {
		if !ok {
			return cur, false
		}
		if cur.lockedUntil.IsZero() {
			return cur, true
		}
		if !now.Before(cur.lockedUntil) {
			return entry{}, false
		}
		remaining = cur.lockedUntil.Sub(now)
		return cur, true
	})
	return remaining > 0, remaining, nil
}

func (m *Memory) Clear(_ context.Context, key Key) error {
	m.entries.Delete(key.String())
	return nil
}
