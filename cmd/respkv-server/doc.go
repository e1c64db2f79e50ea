// Package main provides the entry point for respkv-server.
//
// respkv-server serves an in-memory key/value and hash store over the
// Redis serialization protocol, with an optional admin HTTP listener for
// health, metrics, build info and RESP over WebSocket.
//
// Usage:
//
//	respkv-server [flags]
//	respkv-server --config /path/to/config.yaml
//
// Configuration is read from defaults, then the YAML file, then RESPKV_*
// environment variables (RESPKV_SERVER__REDIS__ADDR), then flags. The
// log level is reloaded when the file changes.
package main
