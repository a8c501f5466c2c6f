// Package database opens the gorm handle shared by the session and account
// stores.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MrEthical07/sessionauth/account"
	"github.com/MrEthical07/sessionauth/session"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects the driver and pool sizing. Pool settings apply to
// Postgres only.
type Config struct {
	Driver          string        `yaml:"driver"`
	URL             string        `yaml:"url"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

// Open connects and returns the handle plus a function that releases it.
// For Postgres the handle runs on a pgx pool, which is pinged before Open
// returns.
func Open(ctx context.Context, cfg Config) (*gorm.DB, func(), error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	switch cfg.Driver {
	case "", DriverPostgres:
		return openPostgres(ctx, cfg, gcfg)
	case DriverSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.URL), gcfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		// sqlite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
		return db, func() { _ = sqlDB.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg Config, gcfg *gorm.Config) (*gorm.DB, func(), error) {
	if cfg.URL == "" {
		return nil, nil, errors.New("database url required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gcfg)
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("open gorm: %w", err)
	}

	return db, func() {
		_ = sqlDB.Close()
		pool.Close()
	}, nil
}

// Migrate creates or upgrades the account and session tables.
func Migrate(db *gorm.DB) error {
	if err := account.Migrate(db); err != nil {
		return fmt.Errorf("migrate account: %w", err)
	}
	if err := session.Migrate(db); err != nil {
		return fmt.Errorf("migrate session: %w", err)
	}
	return nil
}
