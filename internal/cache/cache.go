// Package cache provides time-boxed memoization of successful responses.
package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Entry is one cached value with its freshness metadata.
type Entry struct {
	Value    []byte    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
	TTL      time.Duration `json:"ttl"`
	// Negative marks a cached failure; Value then holds the error message.
	Negative bool `json:"negative,omitempty"`
}

// Expired reports whether the entry must no longer be served.
func (e Entry) Expired(now time.Time) bool { return now.Sub(e.StoredAt) >= e.TTL }

// Store is the storage backend contract.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

// Stats is a read-only snapshot of cache effectiveness.
type Stats struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Option tunes a single GetOrCompute call.
type Option func(*callOpts)

type callOpts struct {
	negativeTTL time.Duration
}

// WithNegativeTTL opts in to caching a compute failure for d, suppressing
// repeated calls known to fail. Failures are not cached otherwise.
func WithNegativeTTL(d time.Duration) Option {
	return func(o *callOpts) { o.negativeTTL = d }
}

// Cache memoizes successful compute results by request identity.
type Cache struct {
	store  Store
	hits   atomic.Int64
	misses atomic.Int64
	onHit  func()
	onMiss func()
	now    func() time.Time
}

// New constructs a Cache over store. onHit/onMiss feed external metrics and
// may be nil.
func New(store Store, onHit, onMiss func()) *Cache {
	return &Cache{store: store, onHit: onHit, onMiss: onMiss, now: time.Now}
}

// ErrNegativeCached is wrapped around a replayed cached failure.
var ErrNegativeCached = errors.New("cached failure")

// GetOrCompute returns the stored value when a fresh entry exists, without
// invoking compute. On miss or expiry it invokes compute and stores a
// successful result for ttl.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error), opts ...Option) ([]byte, bool, error) {
	var o callOpts
	for _, opt := range opts {
		opt(&o)
	}

	if e, ok, err := c.store.Get(ctx, key); err == nil && ok && !e.Expired(c.now()) {
		c.hits.Add(1)
		if c.onHit != nil {
			c.onHit()
		}
		if e.Negative {
			return nil, true, errors.Join(ErrNegativeCached, errors.New(string(e.Value)))
		}
		return e.Value, true, nil
	}

	c.misses.Add(1)
	if c.onMiss != nil {
		c.onMiss()
	}

	v, err := compute(ctx)
	if err != nil {
		if o.negativeTTL > 0 {
			_ = c.store.Set(ctx, key, Entry{Value: []byte(err.Error()), StoredAt: c.now(), TTL: o.negativeTTL, Negative: true})
		}
		return nil, false, err
	}
	if serr := c.store.Set(ctx, key, Entry{Value: v, StoredAt: c.now(), TTL: ttl}); serr != nil {
		// Serving the fresh value beats failing the request over a store error.
		return v, false, nil
	}
	return v, false, nil
}

// Invalidate removes one entry.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Clear removes every entry. Hit/miss counters survive; only restarts reset them.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Stats reports current size and lifetime hit/miss counts.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	n, err := c.store.Len(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Size: n, Hits: c.hits.Load(), Misses: c.misses.Load()}, nil
}
