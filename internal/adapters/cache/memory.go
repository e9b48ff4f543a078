package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/okian/gradestats/internal/domain/stats"
)

// Memory is an in-process TTL cache.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates a cache whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{c: gocache.New(ttl, 2*ttl)}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) (*stats.Result, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	r, ok := v.(*stats.Result)
	return r, ok, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, r *stats.Result) error {
	m.c.SetDefault(key, r)
	return nil
}

// Flush implements Cache.
func (m *Memory) Flush(context.Context) error {
	m.c.Flush()
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int { return m.c.ItemCount() }

// Close implements Cache.
func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
