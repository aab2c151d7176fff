package cache

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

type Redis struct{ c *rdb.Client }

// NewRedis connects lazily; the first command dials.
func NewRedis(addr string, db int) *Redis {
	return &Redis{c: rdb.NewClient(&rdb.Options{
		Addr:        addr,
		DB:          db,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})}
}

func (r *Redis) Get(ctx context.Context, k string) ([]byte, bool) {
	b, err := r.c.Get(ctx, k).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, k string, v []byte, ttl time.Duration) {
	_ = r.c.Set(ctx, k, v, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	_ = r.c.Del(ctx, keys...).Err()
}

func (r *Redis) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Redis) Close() error { return r.c.Close() }
