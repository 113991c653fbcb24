package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/moviemind/moviemind/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// IncrByTTL increments a counter and, in the same round trip, gives it a TTL
// unless it already has one (EXPIRE NX). Returns the counter after the increment.
// A non-positive ttl skips the EXPIRE.
func (s *Store) IncrByTTL(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error) {
	incr := s.b().Incrby().Key(key).Increment(val).Build()
	if ttl <= 0 {
		total, err := s.do(ctx, incr).AsInt64()
		if err != nil {
			return 0, &db.Error{Op: db.OpIncrBy, Err: err}
		}
		return total, nil
	}

	expire := s.b().Expire().Key(key).Seconds(int64(ttl.Seconds())).Nx().Build()
	res := s.client.DoMulti(ctx, incr, expire)
	total, err := res[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Err: err}
	}
	if err := res[1].Error(); err != nil {
		return total, &db.Error{Op: db.OpExpire, Err: err}
	}
	return total, nil
}
