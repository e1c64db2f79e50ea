package cmap

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is used when no valid shard count is given.
const DefaultShardCount = 16

// Map is a concurrent map from string keys to V.
type Map[V any] struct {
	shards []*shard[V]
	mask   uint32
	seed   uint32
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// Option configures a Map.
type Option func(*options)

type options struct {
	shards int
	seed   uint32
}

// WithShards sets the shard count. Values that are not a positive power
// of two fall back to DefaultShardCount.
func WithShards(n int) Option {
	return func(o *options) { o.shards = n }
}

// WithSeed sets the murmur3 seed used for shard selection.
func WithSeed(seed uint32) Option {
	return func(o *options) { o.seed = seed }
}

// New creates an empty map.
func New[V any](opts ...Option) *Map[V] {
	o := options{shards: DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}
	if !ValidShardCount(o.shards) {
		o.shards = DefaultShardCount
	}

	m := &Map[V]{
		shards: make([]*shard[V], o.shards),
		mask:   uint32(o.shards - 1),
		seed:   o.seed,
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return m
}

// ValidShardCount reports whether n is a positive power of two.
func ValidShardCount(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func (m *Map[V]) shardFor(key string) *shard[V] {
	return m.shards[m.index(key)]
}

func (m *Map[V]) index(key string) uint32 {
	return murmur3.Sum32WithSeed([]byte(key), m.seed) & m.mask
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *Map[V]) Set(key string, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// Delete removes key. It reports whether the key was present.
func (m *Map[V]) Delete(key string) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	delete(s.items, key)
	return ok
}

// Count returns the number of keys. Shards are counted one at a time, so
// the result is approximate under concurrent writes.
func (m *Map[V]) Count() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// ShardCount returns the number of shards.
func (m *Map[V]) ShardCount() int {
	return len(m.shards)
}
