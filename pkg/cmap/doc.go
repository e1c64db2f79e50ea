// Package cmap provides a string-keyed concurrent map split into shards.
//
// Each shard owns a plain map guarded by its own RWMutex, and keys are
// assigned to shards by their murmur3 hash. Writers to different shards
// never contend, while writes to the same key are serialized by the
// shard lock.
//
// Usage:
//
//	m := cmap.New[resp.Frame](cmap.WithShards(32))
//	m.Set("key", resp.BulkString("v"))
//	v, ok := m.Get("key")
//
// A *Map is a handle: copies of the pointer share the same contents.
package cmap
