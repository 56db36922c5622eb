package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle provides best-effort pre-authentication rate limiting backed
// by Redis: a rolling INCR+EXPIRE counter per identifier (lowercased email)
// and per source IP. It sits in front of the durable per-account lockout and
// only blunts high-volume spraying; backend failures are surfaced so the
// caller can degrade open.
type LoginThrottle struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginThrottle creates a LoginThrottle. maxAttempts <= 0 disables it.
func NewLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &LoginThrottle{client: client, maxAttempts: maxAttempts, window: window}
}

// Allow reports whether another attempt is permitted for this identifier/IP
// pair and counts the attempt.
func (t *LoginThrottle) Allow(ctx context.Context, identifier, ip string) (bool, error) {
	if t == nil || t.client == nil || t.maxAttempts <= 0 {
		return true, nil
	}

	if identifier != "" {
		ok, err := t.count(ctx, "thr:id:"+identifier)
		if err != nil || !ok {
			return ok, err
		}
	}
	if ip != "" {
		return t.count(ctx, "thr:ip:"+ip)
	}
	return true, nil
}

func (t *LoginThrottle) count(ctx context.Context, key string) (bool, error) {
	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("throttle incr: %w", err)
	}
	if n == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return true, fmt.Errorf("throttle expire: %w", err)
		}
	}
	return n <= int64(t.maxAttempts), nil
}
