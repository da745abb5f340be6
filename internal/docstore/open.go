package docstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tbourn/go-climb-backend/internal/config"
	"github.com/tbourn/go-climb-backend/internal/repo"
)

// OptionsFromConfig extracts the store call and retry tuning.
func OptionsFromConfig(cfg config.StoreConfig) Options {
	return Options{
		OpTimeout:   cfg.OpTimeout,
		MaxAttempts: cfg.TxMaxAttempts,
		BaseBackoff: cfg.TxBaseBackoff,
		MaxBackoff:  cfg.TxMaxBackoff,
	}
}

// Open connects the backend selected by cfg.Driver. SQL backends are
// migrated; Redis is pinged.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	opts := OptionsFromConfig(cfg)

	switch cfg.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		open, dsn := repo.OpenSQLite, cfg.SQLitePath
		if cfg.Driver == config.DriverPostgres {
			open, dsn = repo.OpenPostgres, cfg.PostgresDSN
		}
		db, err := open(dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
		}
		if err := repo.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", cfg.Driver, err)
		}
		return NewSQLStore(db, cfg.Driver, opts), nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pctx, cancel := context.WithTimeout(ctx, opts.withDefaults().OpTimeout)
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client, cfg.RedisPrefix, opts), nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
}
