// Package memory is the in-process Cache backend, built on go-cache. Entries
// are stored as the marshaled bytes of the value, so a snapshot cannot be
// mutated after Set.
package memory

import (
	"context"
	"encoding"
	"sync/atomic"
	"time"

	"skilltrends/common/cache"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

// entry keeps its own deadline next to the data so expiry follows the
// injected clock. go-cache still evicts it on the real clock.
type entry struct {
	data      []byte
	expiresAt time.Time
}

type Cache struct {
	store      *gocache.Cache
	defaultTTL time.Duration
	now        atomic.Pointer[func() time.Time]
	closed     atomic.Bool
}

func New(opts cache.Options) *Cache {
	ttl := opts.DefaultTTL
	if ttl == 0 {
		ttl = cache.DefaultOptions().DefaultTTL
	}
	c := &Cache{
		store:      gocache.New(ttl, cleanupInterval),
		defaultTTL: ttl,
	}
	now := time.Now
	c.now.Store(&now)
	return c
}

// WithClock replaces the time source. Tests use it to move past expiry.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now.Store(&now)
	return c
}

func (c *Cache) clock() time.Time {
	return (*c.now.Load())()
}

func (c *Cache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return cache.ErrInvalidKey
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = append([]byte(nil), v...)
	case encoding.BinaryMarshaler:
		b, err := v.MarshalBinary()
		if err != nil {
			return err
		}
		data = b
	default:
		return cache.ErrInvalidValue
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if c.closed.Load() {
		return cache.ErrClosed
	}
	c.store.Set(key, entry{data: data, expiresAt: c.clock().Add(ttl)}, ttl)
	return nil
}

func (c *Cache) Get(_ context.Context, key string, value interface{}) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}
	item, ok := c.store.Get(key)
	if !ok {
		return cache.ErrNotFound
	}
	e := item.(entry)
	if !c.clock().Before(e.expiresAt) {
		return cache.ErrNotFound
	}

	switch v := value.(type) {
	case *string:
		*v = string(e.data)
	case encoding.BinaryUnmarshaler:
		return v.UnmarshalBinary(e.data)
	default:
		return cache.ErrInvalidValue
	}
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

func (c *Cache) Clear(_ context.Context) error {
	c.store.Flush()
	return nil
}

// Len reports the number of stored entries, expired ones included until the
// next cleanup.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

func (c *Cache) Close() error {
	c.closed.Store(true)
	c.store.Flush()
	return nil
}
