// Package logger provides structured logging on top of log/slog.
//
//   - logger.go: handler construction, the Logger interface, runtime level
//   - context.go: context propagation of the logger and connection ids
//   - truncate.go: clipping of payload attributes
//
// Output is JSON by default. The level lives in a process-wide
// slog.LevelVar so a config reload can change it without rebuilding
// handlers.
package logger
