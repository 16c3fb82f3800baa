// Package bootstrap assembles the store and cache clients shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"threads/internal/cache"
	"threads/internal/config"
	"threads/internal/database"
	"threads/internal/middleware"
	"threads/internal/repository"
	"threads/internal/repository/docstore"

	"github.com/redis/go-redis/v9"
)

// Options control runtime initialization behavior.
type Options struct {
	// Eager connects the store during start-up instead of on first use.
	Eager bool
	// SkipRedis leaves the cache client unset.
	SkipRedis bool
}

// OpenStore returns the repository.Store selected by cfg.DBDriver. The store
// does not connect until first use.
func OpenStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		return docstore.NewStore(cfg), nil
	case config.DriverPostgres, config.DriverSQLite:
		return repository.NewGormStore(database.NewConnector(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// InitRuntime opens the store and the Redis client. Redis is optional: the
// returned client is nil when it is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (repository.Store, *redis.Client, error) {
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	if opts.Eager {
		if err := store.EnsureConnected(ctx); err != nil {
			return nil, nil, fmt.Errorf("store connection failed: %w", err)
		}
		if !store.Connected() {
			middleware.Logger.WarnContext(ctx, "Store is not configured; requests will fail with CONNECTION_UNAVAILABLE",
				slog.String("driver", cfg.DBDriver))
		}
	}

	if opts.SkipRedis || cfg.RedisURL == "" {
		return store, nil, nil
	}
	cache.InitRedis(cfg.RedisURL)
	return store, cache.GetClient(), nil
}
