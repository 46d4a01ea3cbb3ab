package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartStore keeps cart blobs as plain string values. Every save refreshes
// the TTL so an abandoned cart eventually expires.
type CartStore struct {
	RDB redis.Cmdable
	TTL time.Duration
}

func NewCartStore(rdb redis.Cmdable, ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = TTLCart
	}
	return &CartStore{RDB: rdb, TTL: ttl}
}

func (s *CartStore) Load(ctx context.Context, key string) ([]byte, error) {
	return GetBytes(ctx, s.RDB, key)
}

func (s *CartStore) Save(ctx context.Context, key string, blob []byte) error {
	return s.RDB.Set(ctx, key, blob, s.TTL).Err()
}
