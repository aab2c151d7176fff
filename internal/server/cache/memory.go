package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type Memory struct{ c *gocache.Cache }

func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Memory) Get(_ context.Context, k string) ([]byte, bool) {
	v, ok := m.c.Get(k)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *Memory) Set(_ context.Context, k string, v []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(k, v, ttl)
}

func (m *Memory) Delete(_ context.Context, keys ...string) {
	for _, k := range keys {
		m.c.Delete(k)
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
