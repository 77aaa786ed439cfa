package domain

import "time"

// Config holds the complete storelens configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server" json:"server"`

	// Tier selects the infrastructure defaults.
	Tier Tier `mapstructure:"tier" json:"tier"`

	Repository RepositoryConfig `mapstructure:"repository" json:"repository"`
	Cache      CacheConfig      `mapstructure:"cache" json:"cache"`
	EventBus   EventBusConfig   `mapstructure:"event_bus" json:"eventBus"`
	Throttle   ThrottleConfig   `mapstructure:"throttle" json:"throttle"`
	Worker     WorkerConfig     `mapstructure:"worker" json:"worker"`

	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `mapstructure:"host" json:"host"`
	Port         int    `mapstructure:"port" json:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout" json:"readTimeout"`   // seconds
	WriteTimeout int    `mapstructure:"write_timeout" json:"writeTimeout"` // seconds

	// MaxBodyBytes caps report uploads.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" json:"maxBodyBytes"`
}

// ThrottleConfig limits how often one merchant can request an analysis.
type ThrottleConfig struct {
	Enabled      bool          `mapstructure:"enabled" json:"enabled"`
	MaxPerWindow int64         `mapstructure:"max_per_window" json:"maxPerWindow"`
	Window       time.Duration `mapstructure:"window" json:"window"`
}

// WorkerConfig controls the in-process analysis worker.
type WorkerConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// TenantIDs lists the tenants whose report events the worker consumes.
	TenantIDs []string `mapstructure:"tenant_ids" json:"tenantIds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	ServiceName string `mapstructure:"service_name" json:"serviceName"`
}

// Tier represents the deployment tier.
type Tier string

const (
	// TierCommunity runs on SQLite, an in-process LRU and channels.
	TierCommunity Tier = "community"

	// TierPro runs on PostgreSQL, Redis and NATS.
	TierPro Tier = "pro"
)

// DefaultConfig returns the community tier configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
			MaxBodyBytes: 1 << 20,
		},
		Tier: TierCommunity,
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./storelens.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
			AnalysisTTL:  time.Hour,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Throttle: ThrottleConfig{
			Enabled:      false,
			MaxPerWindow: 30,
			Window:       time.Minute,
		},
		Worker: WorkerConfig{
			Enabled:   true,
			TenantIDs: []string{"default"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "storelens",
		},
	}
}

// ProConfig returns the pro tier configuration.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Repository = RepositoryConfig{
		Driver:          "postgres",
		PostgresHost:    "localhost",
		PostgresPort:    5432,
		PostgresDB:      "storelens",
		PostgresSSLMode: "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
		LocalTTL:       time.Minute,
		AnalysisTTL:    24 * time.Hour,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Throttle.Enabled = true
	cfg.Tracing.Enabled = true
	return cfg
}
