package config

import (
	"strings"
	"testing"
	"time"

	"github.com/yndnr/respkv/internal/resp"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Redis.Addr != DefaultRedisAddr {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Server.Redis.Addr, DefaultRedisAddr)
	}
	if cfg.Server.Redis.IdleTimeout != 0 {
		t.Errorf("IdleTimeout = %v, want disabled", cfg.Server.Redis.IdleTimeout)
	}
	if !cfg.Server.HTTP.Enabled || cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP = %+v", cfg.Server.HTTP)
	}
	if cfg.Storage.ShardCount != 16 {
		t.Errorf("ShardCount = %d, want 16", cfg.Storage.ShardCount)
	}
	if cfg.Protocol.Limits() != resp.DefaultLimits() {
		t.Errorf("Limits() = %+v, want defaults", cfg.Protocol.Limits())
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{
			name:    "missing redis addr",
			mutate:  func(c *ServerConfig) { c.Server.Redis.Addr = "" },
			wantErr: "server.redis.addr is required",
		},
		{
			name:    "bad redis addr",
			mutate:  func(c *ServerConfig) { c.Server.Redis.Addr = "localhost" },
			wantErr: "server.redis.addr",
		},
		{
			name:    "port conflict",
			mutate:  func(c *ServerConfig) { c.Server.HTTP.Addr = c.Server.Redis.Addr },
			wantErr: "are both",
		},
		{
			name:    "negative idle timeout",
			mutate:  func(c *ServerConfig) { c.Server.Redis.IdleTimeout = -time.Second },
			wantErr: "timeouts",
		},
		{
			name:    "negative max connections",
			mutate:  func(c *ServerConfig) { c.Server.Redis.MaxConnections = -1 },
			wantErr: "max_connections",
		},
		{
			name: "rate limit without burst",
			mutate: func(c *ServerConfig) {
				c.Server.Redis.RateLimit = 10
				c.Server.Redis.RateBurst = 0
			},
			wantErr: "rate_burst",
		},
		{
			name:    "small read buffer",
			mutate:  func(c *ServerConfig) { c.Server.Redis.ReadBufferSize = 16 },
			wantErr: "read_buffer_size",
		},
		{
			name:    "shard count not power of two",
			mutate:  func(c *ServerConfig) { c.Storage.ShardCount = 12 },
			wantErr: "shard_count",
		},
		{
			name:    "zero depth",
			mutate:  func(c *ServerConfig) { c.Protocol.MaxDepth = 0 },
			wantErr: "protocol limits",
		},
		{
			name:    "bad log level",
			mutate:  func(c *ServerConfig) { c.Log.Level = "chatty" },
			wantErr: "log.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *ServerConfig) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_HTTPDisabledSkipsHTTPAddr(t *testing.T) {
	cfg := Default()
	cfg.Server.HTTP.Enabled = false
	cfg.Server.HTTP.Addr = ""
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() = %v", err)
	}
}

func TestVerify_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Storage.ShardCount = 3
	cfg.Log.Format = "xml"
	err := Verify(cfg)
	if err == nil || !strings.Contains(err.Error(), "shard_count") || !strings.Contains(err.Error(), "log.format") {
		t.Errorf("Verify() = %v, want both problems", err)
	}
}
