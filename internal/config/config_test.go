package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
  max_connections: 8
  idle_timeout: 30s
  send_greeting: false
database:
  driver: sqlite3
  dsn: file:test.db
login:
  failed_threshold: 3
  lockout_duration: 1m
ops:
  token: secret
`), 0o600))

	t.Setenv("STOCK_MAX_CONNECTIONS", "16")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.AppPort)
	assert.Equal(t, 16, cfg.Server.MaxConnections)
	assert.Equal(t, 30*time.Second, cfg.Server.IdleTimeout)
	assert.False(t, cfg.Server.SendGreeting)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Login.FailedThreshold)
	assert.Equal(t, time.Minute, cfg.Login.LockoutDuration)
	assert.Equal(t, "secret", cfg.Ops.Token)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://localhost/stock")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 50, cfg.Server.MaxConnections)
	assert.Equal(t, 5, cfg.Login.FailedThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Login.LockoutDuration)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cfg := defaults()
	assert.Error(t, cfg.Validate(), "dsn is required")

	cfg.Database.DSN = "x"
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "sqlite3"
	cfg.Login.Backend = "redis"
	assert.Error(t, cfg.Validate(), "redis backend without address")

	cfg.Redis.Addr = "localhost:6379"
	assert.NoError(t, cfg.Validate())
}

func TestInvalidDurationInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  idle_timeout: soon\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "server.idle_timeout")
}
