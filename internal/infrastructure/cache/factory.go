package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/erp/reconciler/internal/domain/shared"
	"github.com/erp/reconciler/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Cache is a KeyValueCache the caller must close on shutdown
type Cache interface {
	shared.KeyValueCache
	io.Closer
}

// Factory picks the document view cache backend from configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	sweepInterval         time.Duration
}

type FactoryOption func(*Factory)

func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory cache (the default) or fails startup.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

func WithSweepInterval(d time.Duration) FactoryOption {
	return func(f *Factory) {
		f.sweepInterval = d
	}
}

func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		sweepInterval:         time.Minute,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a Redis cache when Redis is enabled and reachable, and the
// in-memory cache otherwise.
func (f *Factory) Create(ctx context.Context) (Cache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory document cache")
		return NewMemoryCache(f.sweepInterval), nil
	}

	c, err := NewRedisCache(ctx, RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("Using Redis document cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for document cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory document cache",
		zap.String("addr", f.redisConfig.Addr()),
		zap.Error(err),
	)
	return NewMemoryCache(f.sweepInterval), nil
}
