package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/oolio-pos/internal/kv"
	"github.com/xenking/oolio-pos/internal/storage/memory"
	"github.com/xenking/oolio-pos/internal/storage/postgres"
)

// OpenStore connects the configured storage backend. The returned func
// releases it.
func OpenStore(ctx context.Context, lg *zap.Logger, cfg StorageConfig) (kv.Store, func(), error) {
	switch cfg.Driver {
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		lg.Info("Using PostgreSQL storage")
		return postgres.NewStore(pool), pool.Close, nil
	case DriverMemory:
		lg.Warn("Using in-memory storage, data is lost on restart")
		return memory.New(), func() {}, nil
	default:
		return nil, nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
