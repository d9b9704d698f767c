package db

import (
	"context"
	"fmt"

	"stock-service/internal/logger"

	"gorm.io/gorm"
)

// RunInventoryMigration creates or widens the tables for the given models.
// It never drops columns.
func RunInventoryMigration(ctx context.Context, gdb *gorm.DB, models ...any) error {
	if err := gdb.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("inventory migration: %w", err)
	}
	logger.Info("inventory migration applied", map[string]any{
		"component": "db",
		"tables":    len(models),
	})
	return nil
}
