package storage

import (
	"context"
	"fmt"

	"artshift/internal/infra"
)

// Open builds the store selected by cfg.StoreDriver. The returned function
// releases driver resources and is always safe to call.
func Open(ctx context.Context, cfg *infra.Config, logger infra.Logger) (KV, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, fmt.Errorf("storage: config is required")
	}

	switch cfg.StoreDriver {
	case DriverFile, "":
		store, err := NewFileStore(cfg.StoragePath)
		if err != nil {
			return nil, noop, err
		}
		logger.Info().Str("driver", DriverFile).Str("path", store.BasePath()).Msg("storage ready")
		return store, noop, nil

	case DriverPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		store := NewPostgresStore(infra.NewSQLRunner(pool, logger))
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		logger.Info().Str("driver", DriverPostgres).Msg("storage ready")
		return store, pool.Close, nil

	case DriverRedis:
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		logger.Info().Str("driver", DriverRedis).Msg("storage ready")
		return NewRedisStore(client, defaultRedisPrefix), func() { _ = client.Close() }, nil
	}

	return nil, noop, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StoreDriver)
}
