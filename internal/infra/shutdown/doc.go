// Package shutdown runs named cleanup hooks, newest first, when the process
// receives SIGINT or SIGTERM or when shutdown is triggered directly.
package shutdown
