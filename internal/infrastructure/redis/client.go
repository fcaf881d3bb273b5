package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/devstudio/site-api/internal/domain"
)

const defaultPingTimeout = 2 * time.Second

// Client is the one go-redis pool shared by the rate limiter and the mail
// dedup store.
type Client struct {
	rdb         *goredis.Client
	prefix      string
	pingTimeout time.Duration
}

type Option func(*Client, *goredis.Options)

// WithKeyPrefix namespaces every key this client touches, e.g. "site:".
func WithKeyPrefix(p string) Option {
	return func(c *Client, _ *goredis.Options) { c.prefix = p }
}

// WithPool bounds the connection pool. Zero values keep the go-redis defaults.
func WithPool(size int, readTimeout time.Duration) Option {
	return func(_ *Client, o *goredis.Options) {
		if size > 0 {
			o.PoolSize = size
		}
		if readTimeout > 0 {
			o.ReadTimeout = readTimeout
			o.WriteTimeout = readTimeout
		}
	}
}

func WithPingTimeout(d time.Duration) Option {
	return func(c *Client, _ *goredis.Options) {
		if d > 0 {
			c.pingTimeout = d
		}
	}
}

func New(addr, password string, db int, opts ...Option) *Client {
	o := &goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		// the limiter fails open; a slow redis must not hold requests
		DialTimeout: 2 * time.Second,
	}
	c := &Client{pingTimeout: defaultPingTimeout}
	for _, opt := range opts {
		opt(c, o)
	}
	c.rdb = goredis.NewClient(o)
	return c
}

func (c *Client) key(k string) string { return c.prefix + k }

// Ping backs the readiness probe and the bootstrap reachability check.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
