// Package ttlcache is a time-invalidated cache persisted on a store.Medium.
// It backs both the icon cache and the system accent color cache.
package ttlcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"tableflip.dev/apphub/pkg/store"
)

// AccentKey is the single key used by the accent color cache.
const AccentKey = "system-accent"

// Entry is the persisted form of a cached value.
type Entry[T any] struct {
	Value     T         `json:"value"`
	WrittenAt time.Time `json:"writtenAt"`
}

// Cache stores values under a key prefix. Entries older than the TTL read
// as absent but are left in place; there is no size bound and no eviction.
type Cache[T any] struct {
	medium store.Medium
	prefix string
	ttl    time.Duration
	now    func() time.Time
	log    *log.Entry
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	prefix string
	ttl    time.Duration
	now    func() time.Time
	log    *log.Entry
}

// WithTTL sets the lifetime of entries. Zero or negative never expires.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithPrefix namespaces keys, e.g. "icons".
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(l *log.Entry) Option {
	return func(o *options) { o.log = l }
}

// New creates a cache over medium.
func New[T any](medium store.Medium, opts ...Option) *Cache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = log.WithField("component", "ttlcache")
	}
	if o.prefix != "" {
		o.log = o.log.WithField("prefix", o.prefix)
	}
	return &Cache[T]{
		medium: medium,
		prefix: o.prefix,
		ttl:    o.ttl,
		now:    o.now,
		log:    o.log,
	}
}

// TTL returns the configured lifetime.
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// Get returns the value stored under key if it exists and has not expired.
// Storage and decoding failures are reported as a miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	if c == nil || c.medium == nil {
		return zero, false
	}
	e, ok := c.entry(key)
	if !ok {
		return zero, false
	}
	if c.ttl > 0 && !c.now().Before(e.WrittenAt.Add(c.ttl)) {
		return zero, false
	}
	return e.Value, true
}

// Peek returns the stored entry regardless of its age.
func (c *Cache[T]) Peek(key string) (Entry[T], bool) {
	if c == nil || c.medium == nil {
		return Entry[T]{}, false
	}
	return c.entry(key)
}

func (c *Cache[T]) entry(key string) (Entry[T], bool) {
	var e Entry[T]
	raw, err := c.medium.Read(c.storageKey(key))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.WithError(err).WithField("key", key).Debug("ttlcache: read failed")
		}
		return e, false
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		c.log.WithError(err).WithField("key", key).Debug("ttlcache: decode failed")
		return e, false
	}
	return e, true
}

// Put stores value under key stamped with the current time. Failures are
// logged and otherwise ignored.
func (c *Cache[T]) Put(key string, value T) {
	if c == nil || c.medium == nil {
		return
	}
	raw, err := json.Marshal(Entry[T]{Value: value, WrittenAt: c.now()})
	if err != nil {
		c.log.WithError(err).WithField("key", key).Debug("ttlcache: encode failed")
		return
	}
	if err := c.medium.Write(c.storageKey(key), raw); err != nil {
		c.log.WithError(err).WithField("key", key).Debug("ttlcache: write failed")
	}
}

func (c *Cache[T]) storageKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + "/" + key
}

// IconKey derives the cache key for an application path.
func IconKey(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}
