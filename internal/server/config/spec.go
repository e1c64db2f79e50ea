package config

import "time"

// ServerConfig is the root configuration for respkv-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Storage  StorageSection  `koanf:"storage"`
	Protocol ProtocolSection `koanf:"protocol"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures listeners.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis"`
	HTTP  HTTPConfig  `koanf:"http"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	Addr string `koanf:"addr"`
	// UnixSocket adds a second listener on a unix socket when set.
	UnixSocket string `koanf:"unix_socket"`
	// IdleTimeout closes connections with no traffic. Zero disables it.
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// MaxConnections caps concurrent clients. Zero means unlimited.
	MaxConnections int `koanf:"max_connections"`
	// RateLimit is the number of commands per second allowed per client
	// IP. Zero disables limiting.
	RateLimit      float64 `koanf:"rate_limit"`
	RateBurst      int     `koanf:"rate_burst"`
	ReadBufferSize int     `koanf:"read_buffer_size"`
}

// HTTPConfig configures the admin HTTP server.
type HTTPConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Addr      string `koanf:"addr"`
	WebSocket bool   `koanf:"websocket"`
}

// StorageSection configures the in-memory store.
type StorageSection struct {
	ShardCount int `koanf:"shard_count"`
	// ShardSeed seeds the murmur3 hash that places keys in shards.
	ShardSeed uint32 `koanf:"shard_seed"`
}

// ProtocolSection bounds what the decoder accepts from clients.
type ProtocolSection struct {
	MaxBulkLen      int `koanf:"max_bulk_len"`
	MaxAggregateLen int `koanf:"max_aggregate_len"`
	MaxDepth        int `koanf:"max_depth"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
