// Package cache memoizes spread results by (strategy, legs, granularity).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"SpreadScope/internal/model"
)

// ComputeFunc produces a result on a cache miss.
type ComputeFunc func(ctx context.Context) (*model.SpreadResult, error)

// Cache stores successful results only. Concurrent misses on one key share
// a single computation. Returned results are shared and must not be mutated.
type Cache struct {
	store Store
	ttl   time.Duration
	group singleflight.Group
}

// New creates a Cache. A zero ttl means entries never expire.
func New(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// GetOrCompute returns the cached result for key, or runs compute and
// stores its result. hit reports whether the store answered.
//
// The shared computation runs detached from any one caller's cancellation,
// so a caller that gives up only abandons its own wait.
func (c *Cache) GetOrCompute(ctx context.Context, key model.Key, compute ComputeFunc) (res *model.SpreadResult, hit bool, err error) {
	k := "spread:" + key.String()
	if res, ok := c.lookup(ctx, k); ok {
		return res, true, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(k, func() (interface{}, error) {
		if res, ok := c.lookup(shared, k); ok {
			return res, nil
		}
		res, err := compute(shared)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(res)
		if err == nil {
			err = c.store.Set(shared, k, data, c.ttl)
		}
		if err != nil {
			log.WithField("key", k).Warnf("cache store: %v", err)
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		return r.Val.(*model.SpreadResult), false, nil
	}
}

func (c *Cache) lookup(ctx context.Context, k string) (*model.SpreadResult, bool) {
	data, err := c.store.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			log.WithField("key", k).Warnf("cache load: %v", err)
		}
		return nil, false
	}
	var res model.SpreadResult
	if err := json.Unmarshal(data, &res); err != nil {
		log.WithField("key", k).Warnf("cache decode: %v", err)
		return nil, false
	}
	return &res, true
}

// Close releases the underlying store.
func (c *Cache) Close() error { return c.store.Close() }
