// Package storetest opens throwaway SQLite-backed stores for tests.
package storetest

import (
	"context"
	"testing"

	"stock-service/internal/config"
	"stock-service/internal/db"
	"stock-service/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// New returns a migrated store over a private in-memory database that is
// closed when the test ends.
func New(t testing.TB) *store.Store {
	t.Helper()

	ctx := context.Background()
	gdb, err := db.Open(ctx, config.DatabaseConfig{
		Driver: "sqlite3",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	s := store.New(gdb)
	require.NoError(t, s.Migrate(ctx))
	return s
}
