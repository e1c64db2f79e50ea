// Package service connects the RESP codec, the command model and the
// store.
//
//   - KVService turns one decoded frame into one reply frame.
//   - Session owns the byte buffer of one client stream and drains every
//     complete frame in it, in order.
//   - LimiterRegistry hands out per-client token buckets.
//
// Transports (the TCP server, the WebSocket endpoint) only move bytes in
// and out of a Session; all protocol decisions live here.
package service
