package redis

import (
	"context"
	"errors"
	"time"
)

// SentStore records delivered mail ids for the mail worker.
type SentStore struct {
	c *Client
}

func NewSentStore(c *Client) *SentStore {
	return &SentStore{c: c}
}

func (s *SentStore) Seen(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("empty key")
	}
	n, err := s.c.rdb.Exists(ctx, s.c.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkSent is SET NX EX; an existing key counts as success.
func (s *SentStore) MarkSent(ctx context.Context, key string, ttl time.Duration) error {
	if key == "" {
		return errors.New("empty key")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour // fallback 24h
	}
	return s.c.rdb.SetNX(ctx, s.c.key(key), "1", ttl).Err()
}
