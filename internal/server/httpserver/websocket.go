package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/respkv/internal/core/service"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// wsHandler serves RESP over WebSocket. Each text or binary message is
// appended to the socket's session, so a frame may span messages; all
// replies produced by one message go back as one binary message.
type wsHandler struct {
	svc          *service.KVService
	metrics      *metric.Registry
	limiters     *service.LimiterRegistry
	logger       *slog.Logger
	readLimit    int64
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

func newWSHandler(cfg *RouterConfig, log *slog.Logger) *wsHandler {
	limit := cfg.MaxMessageSize
	if limit <= 0 {
		limit = DefaultMaxMessageSize
	}
	return &wsHandler{
		svc:          cfg.Service,
		metrics:      cfg.Metrics,
		limiters:     cfg.Limiters,
		logger:       log,
		readLimit:    limit,
		writeTimeout: cfg.WriteTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}
}

func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.readLimit)

	if h.metrics != nil {
		h.metrics.ConnOpened(metric.TransportWebSocket)
		defer h.metrics.ConnClosed(metric.TransportWebSocket)
	}

	id := ulid.Make().String()
	ctx := logger.WithConnID(r.Context(), id)
	log := h.logger.With("conn_id", id, "remote", r.RemoteAddr)
	log.Debug("websocket accepted")
	defer log.Debug("websocket closed")

	// The request context outlives hijacking only until server shutdown.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	sess := h.svc.NewSession(ctx)
	if h.limiters != nil {
		key := remoteIP(r.RemoteAddr)
		sess.SetGate(func() bool { return h.limiters.Allow(key) })
	}

	for {
		mt, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket read failed", "error", err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		sess.Feed(payload)
		out, perr := sess.Drain()
		if h.metrics != nil {
			h.metrics.AddBytes(len(payload), len(out))
		}
		if len(out) > 0 {
			if h.writeTimeout > 0 {
				_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, out); err != nil {
				log.Debug("websocket write failed", "error", err)
				return
			}
		}
		if perr != nil {
			log.Warn("closing websocket after protocol error", "error", perr)
			msg := websocket.FormatCloseMessage(websocket.CloseProtocolError, "protocol error")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
