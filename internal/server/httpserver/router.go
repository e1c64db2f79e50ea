package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yndnr/respkv/internal/core/service"
	"github.com/yndnr/respkv/internal/infra/buildinfo"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Service executes RESP requests arriving over WebSocket.
	Service *service.KVService

	// Stats reports store counts for /v1/info. Optional.
	Stats metric.StatsSource

	// Metrics backs /metrics and the request counters. When nil the
	// /metrics route is not mounted.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// WebSocket mounts /v1/ws.
	WebSocket bool

	// Limiters gates WebSocket frames per client IP. Optional.
	Limiters *service.LimiterRegistry

	// MaxMessageSize caps one WebSocket message. Zero means
	// DefaultMaxMessageSize.
	MaxMessageSize int64

	// WriteTimeout bounds each WebSocket reply write.
	WriteTimeout time.Duration
}

// DefaultMaxMessageSize is the WebSocket read limit used when
// RouterConfig.MaxMessageSize is zero.
const DefaultMaxMessageSize = 4 << 20

// InfoResponse is the body of GET /v1/info.
type InfoResponse struct {
	buildinfo.Info
	Store *metric.StoreStats `json:"store,omitempty"`
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(RequestID(), Recover(log), AccessLog(log, cfg.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", func(w http.ResponseWriter, _ *http.Request) {
			body := InfoResponse{Info: buildinfo.Get()}
			if cfg.Stats != nil {
				st := cfg.Stats.CollectStats()
				body.Store = &st
			}
			writeJSON(w, http.StatusOK, body)
		})

		if cfg.WebSocket && cfg.Service != nil {
			r.Method(http.MethodGet, "/ws", newWSHandler(cfg, log))
		}
	})

	return r
}
