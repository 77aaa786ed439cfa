package domain

import (
	"context"
	"time"
)

// Cache stores serialized analyses and submission counters.
// Local LRU (community), Redis (pro) or both in two phases.
// Every call is tenant scoped.
type Cache interface {
	// Get returns nil, nil when the key is absent or expired.
	Get(ctx context.Context, tenantID string, key string) ([]byte, error)
	Set(ctx context.Context, tenantID string, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, tenantID string, key string) error

	// GetAnalysis returns nil, nil on a miss.
	GetAnalysis(ctx context.Context, tenantID string, analysisID string) (*Analysis, error)
	SetAnalysis(ctx context.Context, tenantID string, a *Analysis, ttl time.Duration) error

	// IncrementCounter increments key and returns the new value. The counter
	// resets once window has passed since its first increment.
	IncrementCounter(ctx context.Context, tenantID string, key string, window time.Duration) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// CacheConfig selects and tunes the cache.
type CacheConfig struct {
	Type string `mapstructure:"type"` // memory, redis

	LocalMaxSize int           `mapstructure:"local_max_size"`
	LocalTTL     time.Duration `mapstructure:"local_ttl"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	// EnableTwoPhase reads the local LRU before Redis.
	EnableTwoPhase bool `mapstructure:"enable_two_phase"`

	// AnalysisTTL is how long finished analyses stay cached.
	AnalysisTTL time.Duration `mapstructure:"analysis_ttl"`
}
