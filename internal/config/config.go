package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Journal backends
const (
	JournalNone   = "none"
	JournalMemory = "memory"
	JournalRedis  = "redis"
)

// Config holds all configuration for the plugin bus
type Config struct {
	// Server configuration
	HTTPPort int    `env:"PLUGINBUS_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"PLUGINBUS_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Journal configuration
	Journal JournalConfig

	// Redis configuration, used by the redis journal
	Redis RedisConfig

	// Monitor configuration
	Monitor MonitorConfig

	// Bundled plugins
	Plugins PluginsConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// JournalConfig holds record journal configuration
type JournalConfig struct {
	Backend       string        `env:"JOURNAL_BACKEND" envDefault:"memory"`
	StreamPrefix  string        `env:"JOURNAL_STREAM_PREFIX" envDefault:"pluginbus:journal"`
	MaxLen        int           `env:"JOURNAL_MAX_LEN" envDefault:"10000"`
	AppendTimeout time.Duration `env:"JOURNAL_APPEND_TIMEOUT" envDefault:"2s"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// MonitorConfig holds stats monitor configuration
type MonitorConfig struct {
	Interval           time.Duration `env:"MONITOR_INTERVAL" envDefault:"30s"`
	HistoryWarnEntries int           `env:"MONITOR_HISTORY_WARN_ENTRIES" envDefault:"100000"`
	TraceBufferSize    int           `env:"TRACE_BUFFER_SIZE" envDefault:"64"`
}

// PluginsConfig holds configuration of the bundled plugins
type PluginsConfig struct {
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"5s"`
	AuditEvents       []string      `env:"AUDIT_EVENTS" envSeparator:"," envDefault:"heartbeat"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("HTTP and gRPC ports must differ: %d", c.HTTPPort)
	}

	// Validate journal config
	switch c.Journal.Backend {
	case JournalNone, JournalMemory:
	case JournalRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis journal")
		}
		if c.Journal.StreamPrefix == "" {
			return fmt.Errorf("journal stream prefix is required for the redis journal")
		}
	default:
		return fmt.Errorf("unsupported journal backend: %s (must be none, memory, or redis)", c.Journal.Backend)
	}
	if c.Journal.MaxLen < 0 {
		return fmt.Errorf("journal max length must not be negative")
	}
	if c.Journal.AppendTimeout <= 0 {
		return fmt.Errorf("journal append timeout must be positive")
	}

	// Validate intervals
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor interval must be positive")
	}
	if c.Plugins.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
