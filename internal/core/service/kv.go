package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yndnr/respkv/internal/command"
	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// Error kinds used as metric labels.
const (
	ErrKindInvalidCommand  = "invalid_command"
	ErrKindInvalidArgument = "invalid_argument"
	ErrKindInvalidUTF8     = "invalid_utf8"
	ErrKindProtocol        = "protocol"
)

// KVService executes requests against a Backend.
type KVService struct {
	backend command.Backend
	decoder *resp.Decoder
	metrics *metric.Registry
	logger  *slog.Logger
}

// Option configures a KVService.
type Option func(*KVService)

// WithLimits sets the decoder limits used by sessions.
func WithLimits(l resp.Limits) Option {
	return func(s *KVService) { s.decoder = resp.NewDecoder(l) }
}

// WithMetrics records command metrics in r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *KVService) { s.metrics = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *KVService) { s.logger = l }
}

// NewKVService creates a service over backend.
func NewKVService(backend command.Backend, opts ...Option) *KVService {
	s := &KVService{
		backend: backend,
		decoder: resp.NewDecoder(resp.DefaultLimits()),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle validates and executes one request frame. Validation failures are
// returned as error replies; they never end the stream.
func (s *KVService) Handle(ctx context.Context, f resp.Frame) resp.Frame {
	cmd, err := command.Parse(f)
	if err != nil {
		kind := errorKind(err)
		if s.metrics != nil {
			s.metrics.CommandError(kind)
		}
		logger.L(ctx).Debug("request rejected", "kind", kind, "error", err)
		return ErrorReply(err)
	}

	if u, ok := cmd.(command.Unrecognized); ok {
		logger.L(ctx).Debug("unrecognized command", "command", logger.Truncate(u.Command, 64), "args", len(u.Args))
	}

	start := time.Now()
	reply := cmd.Execute(s.backend)
	if s.metrics != nil {
		s.metrics.ObserveCommand(metricName(cmd), time.Since(start))
	}
	return reply
}

// NewSession starts a session for one client stream.
func (s *KVService) NewSession(ctx context.Context) *Session {
	return &Session{svc: s, ctx: ctx, scan: resp.NewScanner(s.decoder)}
}

// ErrorReply renders err the way redis clients expect: "ERR <message>".
func ErrorReply(err error) resp.SimpleError {
	return resp.SimpleError("ERR " + sanitizeLine(err.Error()))
}

// ProtocolErrorReply is sent before closing a stream whose framing is lost.
func ProtocolErrorReply(err error) resp.SimpleError {
	return resp.SimpleError("ERR protocol error: " + sanitizeLine(err.Error()))
}

// sanitizeLine keeps a simple string on one line.
func sanitizeLine(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c == '\r' || c == '\n' {
			b[i] = ' '
		}
	}
	return string(b)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, command.ErrInvalidUTF8):
		return ErrKindInvalidUTF8
	case errors.Is(err, command.ErrInvalidArgument):
		return ErrKindInvalidArgument
	case errors.Is(err, command.ErrInvalidCommand):
		return ErrKindInvalidCommand
	default:
		return ErrKindProtocol
	}
}

// metricName bounds label cardinality: unknown names share one label.
func metricName(cmd command.Command) string {
	if _, ok := cmd.(command.Unrecognized); ok {
		return "unrecognized"
	}
	return cmd.Name()
}
