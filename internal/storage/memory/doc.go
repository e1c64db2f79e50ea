// Package memory is the in-memory backend behind the RESP commands.
//
// A Store keeps two independent namespaces: plain values written by SET
// and hashes written by HSET. Both live in sharded concurrent maps, so
// commands on different keys proceed in parallel and writes to one key
// are serialized by its shard lock. There is no TTL, eviction or
// persistence; contents last for the life of the process.
//
// *Store is a shared handle. Every connection receives the same pointer
// and observes the writes of every other connection.
package memory
