package pricecache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/icodeforyou/spotwindow-go/types"
	"golang.org/x/sync/singleflight"
)

const DefaultTTL = time.Hour

type entry struct {
	fetchedAt time.Time
	source    string
	series    []types.HourlyPrice
}

// LoadFunc fetches and normalizes a fresh series. It returns the name of the
// source the series came from.
type LoadFunc func(ctx context.Context) (source string, series []types.HourlyPrice, err error)

/** A single entry cache of the normalized price series for one market zone */
type Cache struct {
	mu    sync.RWMutex
	zone  string
	ttl   time.Duration
	entry *entry
	group singleflight.Group
}

func New(zone string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{zone: zone, ttl: ttl}
}

// Get returns a copy of the cached series if it was stored less than
// ttl before now.
func (c *Cache) Get(now time.Time) ([]types.HourlyPrice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || now.Sub(c.entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	return slices.Clone(c.entry.series), true
}

func (c *Cache) Put(series []types.HourlyPrice, now time.Time) {
	c.PutFrom("", series, now)
}

func (c *Cache) PutFrom(source string, series []types.HourlyPrice, now time.Time) {
	e := &entry{fetchedAt: now, source: source, series: slices.Clone(series)}

	c.mu.Lock()
	c.entry = e
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}

func (c *Cache) Source() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return ""
	}
	return c.entry.source
}

func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return time.Time{}
	}
	return c.entry.fetchedAt
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// GetOrLoad serves the cached series or, on a miss, runs load once no matter
// how many callers are waiting. The load runs detached from the cancellation
// of the caller that started it, each caller stops waiting when its own
// context is done. The entry is stamped with clock() after the load returns.
func (c *Cache) GetOrLoad(ctx context.Context, clock func() time.Time, load LoadFunc) ([]types.HourlyPrice, error) {
	if series, ok := c.Get(clock()); ok {
		return series, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(c.zone, func() (any, error) {
		// Another flight may have stored a fresh entry while this one queued up
		if series, ok := c.Get(clock()); ok {
			return series, nil
		}

		source, series, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.PutFrom(source, series, clock())
		return series, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]types.HourlyPrice)), nil
	}
}
