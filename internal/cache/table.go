// Package cache memoizes computed aggregates for a fixed time.
//
// A Table is the single physical store shared by the process. Typed Cache
// views carve it into namespaces so unrelated aggregates never collide:
//
//	table := cache.NewTable()
//	levels := cache.New[level.Summary](table, "level", cache.WithTTL(10*time.Minute))
//
//	if s, ok := levels.Get(key); ok {
//		return s
//	}
//	return levels.Put(key, compute())
package cache

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

type entryKey struct {
	namespace string
	key       string
}

type entry struct {
	value     any
	expiresAt time.Time
}

type shard struct {
	mu    sync.RWMutex
	items map[entryKey]entry
}

// Table is a sharded map of expiring entries. The zero value is ready to use;
// shards are allocated on first access.
type Table struct {
	once   sync.Once
	shards []*shard
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

func (t *Table) init() {
	t.once.Do(func() {
		t.shards = make([]*shard, shardCount)
		for i := range t.shards {
			t.shards[i] = &shard{items: make(map[entryKey]entry)}
		}
	})
}

func (t *Table) shardFor(k entryKey) *shard {
	t.init()
	d := xxhash.New()
	_, _ = d.WriteString(k.namespace)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.key)
	return t.shards[d.Sum64()%shardCount]
}

// lookup returns the entry if it has not expired at now. Expired entries are
// removed on the way out.
func (t *Table) lookup(k entryKey, now time.Time) (any, bool) {
	s := t.shardFor(k)
	s.mu.RLock()
	e, ok := s.items[k]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expiresAt.After(now) {
		return e.value, true
	}

	s.mu.Lock()
	// another writer may have refreshed it meanwhile
	if cur, ok := s.items[k]; ok && !cur.expiresAt.After(now) {
		delete(s.items, k)
	}
	s.mu.Unlock()
	return nil, false
}

func (t *Table) store(k entryKey, v any, expiresAt time.Time) {
	s := t.shardFor(k)
	s.mu.Lock()
	s.items[k] = entry{value: v, expiresAt: expiresAt}
	s.mu.Unlock()
}

func (t *Table) remove(k entryKey) {
	s := t.shardFor(k)
	s.mu.Lock()
	delete(s.items, k)
	s.mu.Unlock()
}

// each walks every shard under its write lock and deletes the entries for
// which drop returns true. It returns the number of deleted entries.
func (t *Table) each(drop func(entryKey, entry) bool) int {
	t.init()
	n := 0
	for _, s := range t.shards {
		s.mu.Lock()
		for k, e := range s.items {
			if drop(k, e) {
				delete(s.items, k)
				n++
			}
		}
		s.mu.Unlock()
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (t *Table) Len() int {
	t.init()
	n := 0
	for _, s := range t.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// Sweep deletes every entry that expired at or before now.
func (t *Table) Sweep(now time.Time) int {
	return t.each(func(_ entryKey, e entry) bool {
		return !e.expiresAt.After(now)
	})
}

// Clear empties the table.
func (t *Table) Clear() {
	t.each(func(entryKey, entry) bool { return true })
}
