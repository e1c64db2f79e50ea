// Package httpserver provides the admin HTTP server for respkv.
//
// Routes:
//
//   - GET /healthz: liveness probe
//   - GET /metrics: Prometheus exposition
//   - GET /v1/info: build information and store counts
//   - GET /v1/ws: RESP over WebSocket, one session per socket
//
// Every route runs behind the RequestID, Recover and AccessLog middleware.
package httpserver
