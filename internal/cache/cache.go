// Package cache holds the most recently computed table behind a time-boxed
// entry. Concurrent refreshes collapse into a single load, and a failed
// refresh keeps serving the previous value marked stale.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is a cached value with the time it was fetched and how long it stays fresh
type Entry[T any] struct {
	Value     T             `json:"value"`
	FetchedAt time.Time     `json:"fetched_at"`
	TTL       time.Duration `json:"ttl"`
	HitCount  int           `json:"hit_count"`
}

// ExpiresAt returns the instant the entry stops being fresh
func (e *Entry[T]) ExpiresAt() time.Time {
	return e.FetchedAt.Add(e.TTL)
}

// Expired reports whether the entry is past its TTL at now. A zero TTL
// expires immediately.
func (e *Entry[T]) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt())
}

// Loader produces a fresh value.
type Loader[T any] func(ctx context.Context) (T, error)

// Snapshot is what a read returns
type Snapshot[T any] struct {
	Value     T
	FetchedAt time.Time
	// Hit is true when the value came from a fresh entry without loading.
	Hit bool
	// Stale is true when the last refresh failed and Value is the previous one.
	Stale        bool
	RefreshError error
}

// Stats reports cache counters
type Stats struct {
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Failures   int64     `json:"failures"`
	HasValue   bool      `json:"has_value"`
	FetchedAt  time.Time `json:"fetched_at,omitempty"`
	TTLSeconds float64   `json:"ttl_seconds"`
}

// Option configures a Cache
type Option[T any] func(*Cache[T])

// WithClock replaces time.Now
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Cache[T]) {
		c.now = now
	}
}

// WithOnUpdate registers a callback run after every successful load.
func WithOnUpdate[T any](fn func(value T, fetchedAt time.Time)) Option[T] {
	return func(c *Cache[T]) {
		c.onUpdate = fn
	}
}

// Cache keeps a single value fresh for ttl
type Cache[T any] struct {
	mu       sync.RWMutex
	entry    *Entry[T]
	ttl      time.Duration
	load     Loader[T]
	now      func() time.Time
	onUpdate func(T, time.Time)
	group    singleflight.Group

	hits     int64
	misses   int64
	failures int64
}

// New creates a cache around load
func New[T any](ttl time.Duration, load Loader[T], opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		ttl:  ttl,
		load: load,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value while fresh and loads otherwise. When the
// load fails and a previous value exists, that value is returned as Stale
// with a nil error.
func (c *Cache[T]) Get(ctx context.Context) (Snapshot[T], error) {
	c.mu.Lock()
	if c.entry != nil && !c.entry.Expired(c.now()) {
		c.entry.HitCount++
		c.hits++
		snap := Snapshot[T]{Value: c.entry.Value, FetchedAt: c.entry.FetchedAt, Hit: true}
		c.mu.Unlock()
		return snap, nil
	}
	c.misses++
	c.mu.Unlock()

	snap, err := c.refresh(ctx)
	if err != nil && snap.Stale {
		return snap, nil
	}
	return snap, err
}

// Refresh loads unconditionally. On failure the previous value, if any, is
// returned as Stale together with the error.
func (c *Cache[T]) Refresh(ctx context.Context) (Snapshot[T], error) {
	return c.refresh(ctx)
}

func (c *Cache[T]) refresh(ctx context.Context) (Snapshot[T], error) {
	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		value, err := c.load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entry = &Entry[T]{Value: value, FetchedAt: c.now(), TTL: c.ttl}
		entry := *c.entry
		c.mu.Unlock()

		if c.onUpdate != nil {
			c.onUpdate(entry.Value, entry.FetchedAt)
		}
		return entry, nil
	})

	if err == nil {
		entry := v.(Entry[T])
		return Snapshot[T]{Value: entry.Value, FetchedAt: entry.FetchedAt}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++

	if c.entry == nil {
		return Snapshot[T]{RefreshError: err}, err
	}
	return Snapshot[T]{
		Value:        c.entry.Value,
		FetchedAt:    c.entry.FetchedAt,
		Stale:        true,
		RefreshError: err,
	}, err
}

// Peek returns the current entry without loading
func (c *Cache[T]) Peek() (Snapshot[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return Snapshot[T]{}, false
	}
	return Snapshot[T]{
		Value:     c.entry.Value,
		FetchedAt: c.entry.FetchedAt,
		Stale:     c.entry.Expired(c.now()),
	}, true
}

// Invalidate drops the entry so the next Get loads
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

// Stats returns counters
func (c *Cache[T]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		Hits:       c.hits,
		Misses:     c.misses,
		Failures:   c.failures,
		HasValue:   c.entry != nil,
		TTLSeconds: c.ttl.Seconds(),
	}
	if c.entry != nil {
		s.FetchedAt = c.entry.FetchedAt
	}
	return s
}
