package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/core/service"
	"github.com/yndnr/respkv/internal/infra/buildinfo"
	"github.com/yndnr/respkv/internal/infra/confloader"
	"github.com/yndnr/respkv/internal/infra/shutdown"
	"github.com/yndnr/respkv/internal/server/config"
	"github.com/yndnr/respkv/internal/server/httpserver"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "respkv-server",
		Usage:   "RESP key/value server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"RESPKV_CONFIG"},
			},
			&cli.StringFlag{Name: "addr", Usage: "RESP listen address (server.redis.addr)"},
			&cli.StringFlag{Name: "http-addr", Usage: "admin HTTP listen address (server.http.addr)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (log.level)"},
		},
		Action: run,
	}
}

// flagOverrides maps explicitly set flags onto config keys.
func flagOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"addr":      "server.redis.addr",
		"http-addr": "server.http.addr",
		"log-level": "log.level",
	}
	out := map[string]any{}
	for flag, key := range keys {
		if c.IsSet(flag) {
			out[key] = c.String(flag)
		}
	}
	return out
}

func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func redisConfig(cfg *config.ServerConfig) redisserver.Config {
	r := cfg.Server.Redis
	return redisserver.Config{
		Addr:           r.Addr,
		UnixSocket:     r.UnixSocket,
		IdleTimeout:    r.IdleTimeout,
		WriteTimeout:   r.WriteTimeout,
		MaxConnections: r.MaxConnections,
		RateLimit:      r.RateLimit,
		RateBurst:      r.RateBurst,
		ReadBufferSize: r.ReadBufferSize,
	}
}

func run(c *cli.Context) error {
	configFile := c.String("config")
	opts := []confloader.Option{confloader.WithFlags(flagOverrides(c))}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	cfg, err := loadConfig(loader)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting respkv-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)

	store := memory.New(
		memory.WithShardCount(cfg.Storage.ShardCount),
		memory.WithShardSeed(cfg.Storage.ShardSeed),
	)
	stats := service.StoreStats{Store: store}

	metrics := metric.NewRegistry()
	metrics.MustRegister(metric.NewStoreCollector(stats))

	svc := service.NewKVService(store,
		service.WithLimits(cfg.Protocol.Limits()),
		service.WithMetrics(metrics),
		service.WithLogger(slogger),
	)

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, slogger)

	redisSrv := redisserver.New(redisConfig(cfg), svc,
		redisserver.WithLogger(slogger),
		redisserver.WithMetrics(metrics),
	)
	if err := redisSrv.Start(c.Context); err != nil {
		return err
	}
	shutdownHandler.OnShutdown("redis server", redisSrv.Shutdown)

	if cfg.Server.HTTP.Enabled {
		routerCfg := &httpserver.RouterConfig{
			Service:      svc,
			Stats:        stats,
			Metrics:      metrics,
			Logger:       slogger,
			WebSocket:    cfg.Server.HTTP.WebSocket,
			WriteTimeout: cfg.Server.Redis.WriteTimeout,
		}
		if r := cfg.Server.Redis; r.RateLimit > 0 {
			routerCfg.Limiters = service.NewLimiterRegistry(r.RateLimit, max(r.RateBurst, 1))
		}
		httpSrv := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(routerCfg), slogger)
		if err := httpSrv.Start(); err != nil {
			_ = redisSrv.Shutdown(context.Background())
			return err
		}
		shutdownHandler.OnShutdown("http server", httpSrv.Shutdown)
	}

	if configFile != "" {
		watcher, err := confloader.NewWatcher(configFile, confloader.WithWatcherLogger(slogger))
		if err != nil {
			log.Warn("config watch disabled", "error", err)
		} else {
			watcher.OnChange(func(string) { reloadLogLevel(loader, slogger) })
			watcher.StartAsync()
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(c.Context); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// reloadLogLevel re-reads every source and applies log.level. Other
// settings need a restart.
func reloadLogLevel(loader *confloader.Loader, log *slog.Logger) {
	cfg, err := loadConfig(loader)
	if err != nil {
		log.Warn("config reload failed, keeping current settings", "error", err)
		return
	}
	previous := logger.GetLevel()
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		log.Warn("config reload failed", "error", err)
		return
	}
	if previous != logger.GetLevel() {
		log.Info("log level changed", "from", previous, "to", logger.GetLevel())
	}
}
