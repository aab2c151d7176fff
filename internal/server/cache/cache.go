// Package cache is a small byte cache with an in-process and a Redis backend.
// Misses and backend failures look the same to callers: the cache is only
// ever an optimization in front of the database.
package cache

import (
	"context"
	"fmt"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	Ping(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver     string // "memory", "redis" or "none"
	RedisAddr  string
	RedisDB    int
	DefaultTTL time.Duration
}

// New builds the backend named by opts.Driver.
func New(opts Options) (Cache, error) {
	switch opts.Driver {
	case "memory", "":
		return NewMemory(opts.DefaultTTL), nil
	case "redis":
		return NewRedis(opts.RedisAddr, opts.RedisDB), nil
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", opts.Driver)
	}
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (Nop) Set(context.Context, string, []byte, time.Duration) {}
func (Nop) Delete(context.Context, ...string)                  {}
func (Nop) Ping(context.Context) error                         { return nil }
func (Nop) Close() error                                       { return nil }
