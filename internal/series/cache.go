package series

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"ratesDashboard/internal/observability"
)

// Cache memoizes successful retrievals per identifier for the life of the
// process. Concurrent misses for one identifier share a single upstream call.
// Failures are not stored, so the next render retries them.
type Cache struct {
	src Source

	mu      sync.Mutex
	entries map[string]*Series
	flight  singleflight.Group
}

// NewCache wraps src with an unbounded per-identifier memo.
func NewCache(src Source) *Cache {
	return &Cache{src: src, entries: map[string]*Series{}}
}

func (c *Cache) get(id string) (*Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[id]
	return s, ok
}

// Retrieve returns the memoized series for id, fetching it on first use.
func (c *Cache) Retrieve(ctx context.Context, id string) (*Series, error) {
	if s, ok := c.get(id); ok {
		observability.RecordCacheHit()
		return s.Clone(), nil
	}
	observability.RecordCacheMiss()

	// The fill outlives any single caller; each caller only stops waiting on
	// its own cancellation.
	fill := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(id, func() (any, error) {
		if s, ok := c.get(id); ok {
			return s, nil
		}
		s, err := c.src.Retrieve(fill, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[id] = s
		c.mu.Unlock()
		return s, nil
	})
	select {
	case <-ctx.Done():
		return nil, Unavailable(id, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Series).Clone(), nil
	}
}

// Len returns the number of memoized identifiers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
