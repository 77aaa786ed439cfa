// Package config loads the service configuration from an optional YAML
// file, a .env file and STORELENS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. STORELENS_SERVER_PORT.
const EnvPrefix = "STORELENS"

var (
	ErrInvalidPort     = errors.New("server port must be between 1 and 65535")
	ErrUnknownTier     = errors.New("unknown tier")
	ErrUnknownDriver   = errors.New("unknown repository driver")
	ErrUnknownCache    = errors.New("unknown cache type")
	ErrUnknownBus      = errors.New("unknown event bus type")
	ErrInvalidThrottle = errors.New("throttle needs a positive limit and window")
)

// Load builds the configuration. Precedence, highest first: environment,
// the YAML file at path (or storelens.yaml in . and ./configs when path is
// empty), then the tier defaults. A missing default file is not an error.
func Load(path string) (*domain.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storelens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	base := domain.DefaultConfig()
	if domain.Tier(strings.ToLower(v.GetString("tier"))) == domain.TierPro {
		base = domain.ProConfig()
	}
	setDefaults(v, base)

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Tier = domain.Tier(strings.ToLower(string(cfg.Tier)))

	// Environment lists may arrive as one element or already split, with
	// the spaces that followed each comma still attached.
	cfg.Worker.TenantIDs = normalizeList(cfg.Worker.TenantIDs)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if used := v.ConfigFileUsed(); used != "" {
		slog.Info("config file loaded", "path", used)
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without.
func Validate(cfg *domain.Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Server.Port)
	}

	switch cfg.Tier {
	case domain.TierCommunity, domain.TierPro:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTier, cfg.Tier)
	}

	switch cfg.Repository.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Repository.Driver)
	}

	switch cfg.Cache.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCache, cfg.Cache.Type)
	}

	switch cfg.EventBus.Type {
	case "channel", "nats":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBus, cfg.EventBus.Type)
	}

	if cfg.Throttle.Enabled && (cfg.Throttle.MaxPerWindow <= 0 || cfg.Throttle.Window <= 0) {
		return ErrInvalidThrottle
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, c *domain.Config) {
	v.SetDefault("tier", string(c.Tier))

	v.SetDefault("server.host", c.Server.Host)
	v.SetDefault("server.port", c.Server.Port)
	v.SetDefault("server.read_timeout", c.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", c.Server.WriteTimeout)
	v.SetDefault("server.max_body_bytes", c.Server.MaxBodyBytes)

	v.SetDefault("repository.driver", c.Repository.Driver)
	v.SetDefault("repository.sqlite_path", c.Repository.SQLitePath)
	v.SetDefault("repository.postgres_host", c.Repository.PostgresHost)
	v.SetDefault("repository.postgres_port", c.Repository.PostgresPort)
	v.SetDefault("repository.postgres_user", c.Repository.PostgresUser)
	v.SetDefault("repository.postgres_password", c.Repository.PostgresPassword)
	v.SetDefault("repository.postgres_db", c.Repository.PostgresDB)
	v.SetDefault("repository.postgres_sslmode", c.Repository.PostgresSSLMode)
	v.SetDefault("repository.max_open_conns", c.Repository.MaxOpenConns)
	v.SetDefault("repository.max_idle_conns", c.Repository.MaxIdleConns)
	v.SetDefault("repository.conn_max_lifetime", c.Repository.ConnMaxLifetime)

	v.SetDefault("cache.type", c.Cache.Type)
	v.SetDefault("cache.local_max_size", c.Cache.LocalMaxSize)
	v.SetDefault("cache.local_ttl", c.Cache.LocalTTL)
	v.SetDefault("cache.redis_addr", c.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", c.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", c.Cache.RedisDB)
	v.SetDefault("cache.enable_two_phase", c.Cache.EnableTwoPhase)
	v.SetDefault("cache.analysis_ttl", c.Cache.AnalysisTTL)

	v.SetDefault("event_bus.type", c.EventBus.Type)
	v.SetDefault("event_bus.channel_buffer_size", c.EventBus.ChannelBufferSize)
	v.SetDefault("event_bus.nats_url", c.EventBus.NATSUrl)
	v.SetDefault("event_bus.nats_token", c.EventBus.NATSToken)
	v.SetDefault("event_bus.nats_max_reconnects", c.EventBus.NATSMaxReconnects)
	v.SetDefault("event_bus.nats_reconnect_wait", c.EventBus.NATSReconnectWait)

	v.SetDefault("throttle.enabled", c.Throttle.Enabled)
	v.SetDefault("throttle.max_per_window", c.Throttle.MaxPerWindow)
	v.SetDefault("throttle.window", c.Throttle.Window)

	v.SetDefault("worker.enabled", c.Worker.Enabled)
	v.SetDefault("worker.tenant_ids", c.Worker.TenantIDs)

	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)

	v.SetDefault("tracing.enabled", c.Tracing.Enabled)
	v.SetDefault("tracing.service_name", c.Tracing.ServiceName)
}

// normalizeList splits every element on commas, trims it and drops empties.
func normalizeList(items []string) []string {
	out := []string{}
	for _, item := range items {
		out = append(out, splitList(item)...)
	}
	return out
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LogLevel maps a logging level name to its slog level. Unknown names
// resolve to info.
func LogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
