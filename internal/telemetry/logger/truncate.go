package logger

import (
	"log/slog"
	"strconv"
)

// DefaultMaxPayload is the default length at which payload attributes are clipped.
const DefaultMaxPayload = 128

// payloadKeys name attributes that may carry client data of any size.
var payloadKeys = map[string]struct{}{
	"payload": {},
	"value":   {},
	"frame":   {},
	"raw":     {},
}

// truncatePayload clips string payload attributes to max bytes and notes
// the original length. Groups are walked recursively.
func truncatePayload(a slog.Attr, max int) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if _, ok := payloadKeys[a.Key]; ok {
			return slog.String(a.Key, Truncate(a.Value.String(), max))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = truncatePayload(attr, max)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// Truncate shortens s to max bytes, appending the original length.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "...(" + strconv.Itoa(len(s)) + " bytes)"
}
