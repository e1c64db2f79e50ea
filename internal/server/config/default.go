package config

import (
	"time"

	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/pkg/cmap"
)

// Default configuration values.
const (
	DefaultRedisAddr      = "127.0.0.1:6379"
	DefaultHTTPAddr       = "127.0.0.1:6380"
	DefaultWriteTimeout   = 10 * time.Second
	DefaultRateBurst      = 100
	DefaultReadBufferSize = 4096

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:           DefaultRedisAddr,
				WriteTimeout:   DefaultWriteTimeout,
				RateBurst:      DefaultRateBurst,
				ReadBufferSize: DefaultReadBufferSize,
			},
			HTTP: HTTPConfig{
				Enabled:   true,
				Addr:      DefaultHTTPAddr,
				WebSocket: true,
			},
		},
		Storage: StorageSection{
			ShardCount: cmap.DefaultShardCount,
		},
		Protocol: ProtocolSection{
			MaxBulkLen:      resp.DefaultMaxBulkLen,
			MaxAggregateLen: resp.DefaultMaxAggregateLen,
			MaxDepth:        resp.DefaultMaxDepth,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Limits converts the protocol section into decoder limits.
func (p ProtocolSection) Limits() resp.Limits {
	return resp.Limits{
		MaxBulkLen:      p.MaxBulkLen,
		MaxAggregateLen: p.MaxAggregateLen,
		MaxDepth:        p.MaxDepth,
	}
}
