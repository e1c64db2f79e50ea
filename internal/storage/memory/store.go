package memory

import (
	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/pkg/cmap"
)

// hashShards is the shard count of each hash's field table. Hashes are
// usually small, so a few shards suffice.
const hashShards = 4

type hash = cmap.Map[resp.Frame]

// Store implements command.Backend.
type Store struct {
	values *cmap.Map[resp.Frame]
	hashes *cmap.Map[*hash]
}

// Option configures a Store.
type Option func(*config)

type config struct {
	shards int
	seed   uint32
}

// WithShardCount sets the shard count of the top-level key maps. It must
// be a power of two; other values fall back to cmap.DefaultShardCount.
func WithShardCount(n int) Option {
	return func(c *config) { c.shards = n }
}

// WithShardSeed sets the hash seed that places keys in shards.
func WithShardSeed(seed uint32) Option {
	return func(c *config) { c.seed = seed }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	c := config{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&c)
	}
	return &Store{
		values: cmap.New[resp.Frame](cmap.WithShards(c.shards), cmap.WithSeed(c.seed)),
		hashes: cmap.New[*hash](cmap.WithShards(c.shards), cmap.WithSeed(c.seed)),
	}
}

// Get returns the value stored by Set.
func (s *Store) Get(key string) (resp.Frame, bool) {
	return s.values.Get(key)
}

// Set overwrites the value under key.
func (s *Store) Set(key string, value resp.Frame) {
	s.values.Set(key, value)
}

// HGet returns one field of the hash under key.
func (s *Store) HGet(key, field string) (resp.Frame, bool) {
	h, ok := s.hashes.Get(key)
	if !ok {
		return nil, false
	}
	return h.Get(field)
}

// HSet writes one field, creating the hash on first use.
func (s *Store) HSet(key, field string, value resp.Frame) {
	h, _ := s.hashes.GetOrCreate(key, newHash)
	h.Set(field, value)
}

// HGetAll returns a copy of the hash under key. Later writes do not
// show up in the returned map.
func (s *Store) HGetAll(key string) (map[string]resp.Frame, bool) {
	h, ok := s.hashes.Get(key)
	if !ok {
		return nil, false
	}
	return h.Snapshot(), true
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Keys       int `json:"keys"`
	Hashes     int `json:"hashes"`
	HashFields int `json:"hash_fields"`
	Shards     int `json:"shards"`
}

// Stats counts keys shard by shard; the totals are approximate while
// writes are in flight.
func (s *Store) Stats() Stats {
	st := Stats{
		Keys:   s.values.Count(),
		Hashes: s.hashes.Count(),
		Shards: s.values.ShardCount(),
	}
	s.hashes.Range(func(_ string, h *hash) bool {
		st.HashFields += h.Count()
		return true
	})
	return st
}

// ShardLoad returns the number of plain keys in each shard.
func (s *Store) ShardLoad() []int {
	stats := s.values.Stats()
	load := make([]int, len(stats))
	for _, st := range stats {
		load[st.Index] = st.Count
	}
	return load
}

func newHash() *hash {
	return cmap.New[resp.Frame](cmap.WithShards(hashShards))
}
