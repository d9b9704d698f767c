package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "auth:lockout:"

// Redis keeps counters in Redis hashes so several processes share lockouts.
// Each hash holds failed_count and, once locked, locked_until (unix millis).
type Redis struct {
	client redis.UniversalClient
	policy Policy
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient, p Policy) *Redis {
	return &Redis{client: client, policy: p.withDefaults(), now: time.Now}
}

func (r *Redis) WithClock(now func() time.Time) *Redis {
	r.now = now
	return r
}

func (r *Redis) key(k Key) string { return redisPrefix + k.String() }

func (r *Redis) RecordFailure(ctx context.Context, key Key) (State, error) {
	redisKey := r.key(key)
	now := r.now()

	// An expired lockout starts a fresh window.
	if until, ok, err := r.lockedUntil(ctx, redisKey); err != nil {
		return State{}, err
	} else if ok && !now.Before(until) {
		if err := r.client.Del(ctx, redisKey).Err(); err != nil {
			return State{}, err
		}
	}

	count, err := r.client.HIncrBy(ctx, redisKey, "failed_count", 1).Result()
	if err != nil {
		return State{}, err
	}

	state := State{FailedCount: int(count)}
	if int(count) >= r.policy.Threshold {
		until, ok, err := r.lockedUntil(ctx, redisKey)
		if err != nil {
			return State{}, err
		}
		if !ok {
			until = now.Add(r.policy.Lockout)
			_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.HSet(ctx, redisKey, "locked_until", until.UnixMilli())
				p.Expire(ctx, redisKey, r.policy.Lockout+time.Minute)
				return nil
			})
			if err != nil {
				return State{}, err
			}
		}
		state.LockedUntil = &until
		return state, nil
	}

	if err := r.client.Expire(ctx, redisKey, 24*time.Hour).Err(); err != nil {
		return State{}, err
	}
	return state, nil
}

func (r *Redis) IsLocked(ctx context.Context, key Key) (bool, time.Duration, error) {
	until, ok, err := r.lockedUntil(ctx, r.key(key))
	if err != nil || !ok {
		return false, 0, err
	}
	remaining := until.Sub(r.now())
	if remaining <= 0 {
		return false, 0, r.client.Del(ctx, r.key(key)).Err()
	}
	return true, remaining, nil
}

func (r *Redis) Clear(ctx context.Context, key Key) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *Redis) lockedUntil(ctx context.Context, redisKey string) (time.Time, bool, error) {
	raw, err := r.client.HGet(ctx, redisKey, "locked_until").Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}
