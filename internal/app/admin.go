package app

import (
	"context"

	"stock-service/internal/auth"
	"stock-service/internal/auth/credentials"
	"stock-service/internal/config"
	"stock-service/internal/db"
	"stock-service/internal/domain"
	"stock-service/internal/logger"
	"stock-service/internal/store"
)

// Migrate applies the schema and exits, regardless of database.auto_migrate.
func Migrate(ctx context.Context, cfg config.Config) error {
	gdb, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	return store.New(gdb).Migrate(ctx)
}

// CreateAdmin registers an Admin account, migrating first so it works on an
// empty database.
func CreateAdmin(ctx context.Context, cfg config.Config, username, password string) (domain.User, error) {
	gdb, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return domain.User{}, err
	}
	defer db.Close(gdb)

	st := store.New(gdb)
	if err := st.Migrate(ctx); err != nil {
		return domain.User{}, err
	}

	user, err := credentials.NewService(st).Register(ctx, username, password, auth.RoleAdmin)
	if err != nil {
		return domain.User{}, err
	}
	logger.Info("admin account created", map[string]any{
		"component": "app",
		"user_id":   user.ID,
		"username":  user.Username,
	})
	return user, nil
}
