package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/internal/database"
)

// runtime is what every subcommand needs: a logger, an open database and a
// built engine.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	db     *gorm.DB
	redis  *redis.Client
	engine *sessionauth.Engine

	closers []func()
}

func openRuntime(ctx context.Context, cfg *Config, migrate bool) (*runtime, error) {
	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}

	db, closeDB, err := database.Open(ctx, cfg.databaseConfig())
	if err != nil {
		return nil, err
	}
	rt.db = db
	rt.closers = append(rt.closers, closeDB)

	if migrate {
		if err := database.Migrate(db); err != nil {
			rt.Close()
			return nil, err
		}
	}

	b := sessionauth.New().
		WithConfig(cfg.EngineConfig()).
		WithDB(db).
		WithLogger(logger)

	if cfg.Redis.Addr != "" {
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = rt.redis.Close() })
		if err := rt.redis.Ping(ctx).Err(); err != nil {
			rt.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		b.WithRedis(rt.redis)
	}

	engine, err := b.Build()
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	rt.engine = engine

	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() {
	if rt.engine != nil {
		rt.engine.Close()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
