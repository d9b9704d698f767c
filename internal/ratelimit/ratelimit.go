// Package ratelimit counts failed logins per (origin, identity) and locks the
// pair out once the failures reach a threshold.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

const (
	DefaultThreshold = 5
	DefaultLockout   = 5 * time.Minute
)

// Key identifies who is failing from where. Identity is compared
// case-insensitively.
type Key struct {
	Origin   string
	Identity string
}

func (k Key) String() string {
	return k.Origin + ":" + strings.ToLower(strings.TrimSpace(k.Identity))
}

// State is the counter after a recorded failure.
type State struct {
	FailedCount int
	LockedUntil *time.Time
}

func (s State) Locked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

type Limiter interface {
	RecordFailure(ctx context.Context, key Key) (State, error)
	// IsLocked reports whether the key is locked out and for how long.
	IsLocked(ctx context.Context, key Key) (bool, time.Duration, error)
	Clear(ctx context.Context, key Key) error
}

type Policy struct {
	Threshold int
	Lockout   time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.Threshold <= 0 {
		p.Threshold = DefaultThreshold
	}
	if p.Lockout <= 0 {
		p.Lockout = DefaultLockout
	}
	return p
}
