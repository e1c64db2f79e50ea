package redisserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/respkv/internal/core/service"
	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
	"github.com/yndnr/respkv/pkg/cmap"
)

// Config holds the Redis server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// UnixSocket adds a unix socket listener when non-empty.
	UnixSocket string
	// IdleTimeout closes a connection after this long without input.
	// Zero keeps connections open until the client closes them.
	IdleTimeout time.Duration
	// WriteTimeout bounds each reply write. Zero disables it.
	WriteTimeout time.Duration
	// MaxConnections caps concurrent clients. Zero means unlimited.
	MaxConnections int
	// RateLimit is the number of requests per second per client IP.
	// Zero disables rate limiting.
	RateLimit float64
	RateBurst int
	// ReadBufferSize is the size of each socket read.
	ReadBufferSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:6379",
		WriteTimeout:   10 * time.Second,
		RateBurst:      100,
		ReadBufferSize: 4096,
	}
}

// Replies sent before closing a refused connection.
var (
	maxClientsReply = resp.SimpleError("ERR max number of clients reached")
)

// Server is the RESP server.
type Server struct {
	cfg      Config
	svc      *service.KVService
	logger   *slog.Logger
	metrics  *metric.Registry
	limiters *service.LimiterRegistry

	mu        sync.Mutex
	listeners []net.Listener

	conns   *cmap.Map[*Conn]
	active  atomic.Int64
	running atomic.Bool
	quit    chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records connection metrics in r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) { s.metrics = r }
}

// New creates a server executing requests with svc.
func New(cfg Config, svc *service.KVService, opts ...Option) *Server {
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultConfig().ReadBufferSize
	}
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		logger: slog.Default(),
		conns:  cmap.New[*Conn](),
		quit:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiters = service.NewLimiterRegistry(cfg.RateLimit, burst)
	}
	return s
}

// Start binds the listeners and serves them in the background. Bind
// errors are returned directly.
func (s *Server) Start(ctx context.Context) error {
	tcp, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.addListener(tcp)
	s.logger.Info("redis server listening", "addr", tcp.Addr().String())

	if s.cfg.UnixSocket != "" {
		if err := removeStaleSocket(s.cfg.UnixSocket); err != nil {
			tcp.Close()
			return err
		}
		unix, err := net.Listen("unix", s.cfg.UnixSocket)
		if err != nil {
			tcp.Close()
			return fmt.Errorf("listen unix %s: %w", s.cfg.UnixSocket, err)
		}
		s.addListener(unix)
		s.logger.Info("redis server listening", "socket", s.cfg.UnixSocket)
	}

	s.running.Store(true)
	s.mu.Lock()
	lns := append([]net.Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, ln := range lns {
		s.wg.Add(1)
		go func(ln net.Listener) {
			defer s.wg.Done()
			if err := s.acceptLoop(ctx, ln); err != nil {
				s.logger.Error("redis accept loop stopped", "addr", ln.Addr().String(), "error", err)
			}
		}(ln)
	}

	if s.limiters != nil {
		s.wg.Add(1)
		go s.pruneLimiters(ctx)
	}
	return nil
}

// Addr returns the TCP listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.listeners) == 0 {
		return nil
	}
	return s.listeners[0].Addr()
}

// ActiveConnections returns the number of open client connections.
func (s *Server) ActiveConnections() int {
	return int(s.active.Load())
}

// Shutdown stops accepting, wakes idle readers and waits for connection
// goroutines. When ctx ends first the remaining connections are closed
// forcibly.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	close(s.quit)

	var errs []error
	s.mu.Lock()
	for _, ln := range s.listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	s.mu.Unlock()

	s.conns.Range(func(_ string, c *Conn) bool {
		c.interrupt()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.conns.Range(func(_ string, c *Conn) bool {
			c.Close()
			return true
		})
		errs = append(errs, ctx.Err())
	}
	return errors.Join(errs...)
}

func (s *Server) addListener(ln net.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, ln)
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			return err
		}

		c := newConn(nc)
		if limit := s.cfg.MaxConnections; limit > 0 && s.active.Load() >= int64(limit) {
			s.logger.Warn("connection refused", "remote", c.remote, "reason", "max_clients")
			if s.metrics != nil {
				s.metrics.Rejected("max_clients")
			}
			_ = c.write(maxClientsReply.AppendRESP(nil), s.cfg.WriteTimeout)
			c.Close()
			continue
		}

		s.active.Add(1)
		s.conns.Set(c.id, c)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.active.Add(-1)
			defer s.conns.Delete(c.id)
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()

	transport := metric.TransportTCP
	if c.unix {
		transport = metric.TransportUnix
	}
	if s.metrics != nil {
		s.metrics.ConnOpened(transport)
		defer s.metrics.ConnClosed(transport)
	}

	log := s.logger.With("conn_id", c.id, "remote", c.remote)
	ctx = logger.WithConnID(ctx, c.id)
	log.Debug("connection accepted")
	defer log.Debug("connection closed")

	sess := s.svc.NewSession(ctx)
	if s.limiters != nil {
		key := c.clientKey()
		sess.SetGate(func() bool { return s.limiters.Allow(key) })
	}

	buf := make([]byte, s.cfg.ReadBufferSize)
	for {
		if !s.running.Load() {
			return
		}
		if err := c.setIdleDeadline(s.cfg.IdleTimeout); err != nil {
			return
		}

		n, err := c.nc.Read(buf)
		if n > 0 {
			sess.Feed(buf[:n])
			out, perr := sess.Drain()
			if s.metrics != nil {
				s.metrics.AddBytes(n, len(out))
			}
			if len(out) > 0 {
				if werr := c.write(out, s.cfg.WriteTimeout); werr != nil {
					log.Debug("write failed", "error", werr)
					return
				}
			}
			if perr != nil {
				log.Warn("closing connection after protocol error", "error", perr)
				return
			}
		}
		if err != nil {
			var ne net.Error
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			case errors.As(err, &ne) && ne.Timeout():
				if s.running.Load() {
					log.Debug("connection idle timeout")
				}
			default:
				log.Debug("read failed", "error", err)
			}
			return
		}
	}
}

// pruneLimiters drops buckets of clients that went quiet.
func (s *Server) pruneLimiters(ctx context.Context) {
	defer s.wg.Done()
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if n := s.limiters.Prune(5 * time.Minute); n > 0 {
				s.logger.Debug("pruned idle rate limiters", "count", n)
			}
		case <-s.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

func removeStaleSocket(path string) error {
	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if fi.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	return os.Remove(path)
}
