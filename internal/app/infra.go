package app

import (
	"context"
	"errors"

	"stock-service/internal/config"
	"stock-service/internal/db"
	"stock-service/internal/logger"
	"stock-service/internal/redis"
	"stock-service/internal/store"

	"gorm.io/gorm"
)

type Infra struct {
	DB    *gorm.DB
	Redis *redis.Client // nil unless the redis login backend is configured
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	gdb, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := store.New(gdb).Migrate(ctx); err != nil {
			_ = db.Close(gdb)
			return nil, err
		}
	}

	infra := &Infra{DB: gdb}
	if cfg.Login.Backend == "redis" {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			_ = db.Close(gdb)
			return nil, err
		}
		infra.Redis = client
		logger.Info("redis ready", map[string]any{"component": "redis", "addr": cfg.Redis.Addr})
	}

	return infra, nil
}

func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	errs = append(errs, db.Close(i.DB))
	return errors.Join(errs...)
}
