package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// hitScript counts one hit and starts the window's expiry on the first.
// It replies {hits, pttl_ms} in one round trip.
var hitScript = goredis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {hits, redis.call("PTTL", KEYS[1])}
`)

// FixedWindowLimiter backs middleware.RateLimiter with one counter per key.
// Keys come from the middleware already scoped by route, caller and window.
type FixedWindowLimiter struct {
	c *Client
}

func NewFixedWindowLimiter(c *Client) *FixedWindowLimiter {
	return &FixedWindowLimiter{c: c}
}

// Decision is the full result of one hit.
type Decision struct {
	Allowed    bool
	Hits       int
	Remaining  int
	RetryAfter time.Duration
}

func (l *FixedWindowLimiter) Hit(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 || l.c == nil {
		return Decision{Allowed: true, Remaining: max(limit, 0)}, nil
	}
	if window <= 0 {
		window = time.Minute
	}

	reply, err := hitScript.Run(ctx, l.c.rdb, []string{l.c.key(key)}, max(window.Milliseconds(), 1)).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit hit %q: %w", key, err)
	}
	if len(reply) != 2 {
		return Decision{}, fmt.Errorf("rate limit hit %q: unexpected reply %v", key, reply)
	}

	hits := int(reply[0])
	d := Decision{Allowed: hits <= limit, Hits: hits, Remaining: max(limit-hits, 0)}
	if !d.Allowed {
		// a negative pttl means the key lost its expiry; wait a full window
		d.RetryAfter = window
		if ttl := time.Duration(reply[1]) * time.Millisecond; ttl > 0 {
			d.RetryAfter = ttl
		}
	}
	return d, nil
}

// Allow is the narrow form the HTTP middleware consumes.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	d, err := l.Hit(ctx, key, limit, window)
	return d.Allowed, d.RetryAfter, err
}
