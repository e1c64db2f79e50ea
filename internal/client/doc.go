// Package client is a small RESP client for respkv.
//
// A Client owns one connection and is safe for concurrent use; requests
// are serialized. Pool keeps a set of clients for callers that issue
// requests from many goroutines, such as the CLI bench command.
package client
