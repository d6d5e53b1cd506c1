package cache

import "time"

// DefaultTTL is how long an entry stays valid unless WithTTL says otherwise.
const DefaultTTL = 600 * time.Second

// Option configures a Cache.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL sets the entry lifetime. Non-positive values keep the default.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Cache is a typed view over one namespace of a Table. A miss is reported as
// (zero, false), never as an error.
type Cache[V any] struct {
	table     *Table
	namespace string
	ttl       time.Duration
	now       func() time.Time
	metrics   *namespaceMetrics
}

// New returns a view of table scoped to namespace.
func New[V any](table *Table, namespace string, opts ...Option) *Cache[V] {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if table == nil {
		table = NewTable()
	}
	return &Cache[V]{
		table:     table,
		namespace: namespace,
		ttl:       o.ttl,
		now:       o.now,
		metrics:   metricsFor(namespace),
	}
}

// TTL returns the configured entry lifetime.
func (c *Cache[V]) TTL() time.Duration { return c.ttl }

// Get returns the value stored under key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.table.lookup(entryKey{c.namespace, key}, c.now())
	if !ok {
		c.metrics.misses.Inc()
		var zero V
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		c.metrics.misses.Inc()
		var zero V
		return zero, false
	}
	c.metrics.hits.Inc()
	return typed, true
}

// Put stores v under key until now+TTL, replacing any previous entry, and
// returns v.
func (c *Cache[V]) Put(key string, v V) V {
	c.table.store(entryKey{c.namespace, key}, v, c.now().Add(c.ttl))
	return v
}

// Invalidate removes key. Removing an absent key is not an error.
func (c *Cache[V]) Invalidate(key string) {
	c.table.remove(entryKey{c.namespace, key})
}

// Clear removes every entry of this namespace.
func (c *Cache[V]) Clear() int {
	return c.table.each(func(k entryKey, _ entry) bool {
		return k.namespace == c.namespace
	})
}

// Sweep removes the expired entries of this namespace and returns how many
// were dropped.
func (c *Cache[V]) Sweep() int {
	now := c.now()
	return c.table.each(func(k entryKey, e entry) bool {
		return k.namespace == c.namespace && !e.expiresAt.After(now)
	})
}
