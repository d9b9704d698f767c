package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stock-service/internal/config"
	"stock-service/internal/logger"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open builds a gorm handle over a database/sql pool. Postgres goes through
// lib/pq; sqlite3 is meant for local runs and tests.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
		if cfg.MaxConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxConns)
			sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
		}
		sqlDB.SetConnMaxIdleTime(15 * time.Minute)
		sqlDB.SetConnMaxLifetime(time.Hour)
	case "sqlite3":
		dialector = sqlite.New(sqlite.Config{DriverName: "sqlite3", Conn: sqlDB})
		// sqlite serializes writers; one connection keeps transactions from
		// tripping over SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	default:
		_ = sqlDB.Close()
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("gorm open: %w", err)
	}

	logger.Info("database ready", map[string]any{
		"component": "db",
		"driver":    cfg.Driver,
	})
	return gdb, nil
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
