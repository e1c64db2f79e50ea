package service

import (
	"bytes"
	"context"
	"errors"

	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/internal/telemetry/logger"
)

// Session accumulates the bytes of one client stream. It is not safe for
// concurrent use; each connection owns its session.
type Session struct {
	svc  *KVService
	ctx  context.Context
	buf  bytes.Buffer
	scan *resp.Scanner
	gate func() bool
}

// RateLimitedReply answers a request refused by the session gate.
var RateLimitedReply = resp.SimpleError("ERR rate limit exceeded")

// SetGate installs a check run before each decoded request. A request the
// gate refuses is answered with RateLimitedReply and not executed.
func (s *Session) SetGate(allow func() bool) {
	s.gate = allow
}

// Feed appends bytes read from the client.
func (s *Session) Feed(p []byte) {
	s.buf.Write(p)
}

// Buffered returns the number of bytes waiting for a complete frame.
func (s *Session) Buffered() int {
	return s.buf.Len()
}

// Drain handles every complete frame in the buffer, in arrival order, and
// returns their encoded replies. A trailing partial frame stays buffered.
//
// A non-nil error means the stream's framing is lost. The returned bytes
// then end with a protocol error reply and the caller must close the
// connection after writing them.
func (s *Session) Drain() ([]byte, error) {
	var out []byte
	for {
		f, err := s.scan.ReadFrame(&s.buf)
		if errors.Is(err, resp.ErrNotComplete) {
			return out, nil
		}
		if err != nil {
			if s.svc.metrics != nil {
				s.svc.metrics.CommandError(ErrKindProtocol)
			}
			logger.L(s.ctx).Warn("protocol error", "error", err, "buffered", s.buf.Len())
			s.buf.Reset()
			return ProtocolErrorReply(err).AppendRESP(out), err
		}
		if s.gate != nil && !s.gate() {
			if s.svc.metrics != nil {
				s.svc.metrics.Rejected("rate_limit")
			}
			out = RateLimitedReply.AppendRESP(out)
			continue
		}
		out = resp.AppendFrame(out, s.svc.Handle(s.ctx, f))
	}
}
