package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppPort  string
	LogLevel string

	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Login    LoginConfig
	Ops      OpsConfig
}

type ServerConfig struct {
	MaxConnections   int
	IdleTimeout      time.Duration
	WriteTimeout     time.Duration
	RequestTimeout   time.Duration
	MaxLineBytes     int
	RequestsPerSec   float64
	RequestBurst     int
	SendGreeting     bool
	ShutdownDeadline time.Duration
}

type DatabaseConfig struct {
	Driver      string // "postgres" or "sqlite3"
	DSN         string
	MaxConns    int
	AutoMigrate bool
}

type RedisConfig struct {
	Addr     string
	Password string
}

type LoginConfig struct {
	Backend         string // "memory" or "redis"
	FailedThreshold int
	LockoutDuration time.Duration
}

type OpsConfig struct {
	Addr  string
	Token string
}

type fileConfig struct {
	Server struct {
		Port             string  `yaml:"port"`
		MaxConnections   int     `yaml:"max_connections"`
		IdleTimeout      string  `yaml:"idle_timeout"`
		WriteTimeout     string  `yaml:"write_timeout"`
		RequestTimeout   string  `yaml:"request_timeout"`
		MaxLineBytes     int     `yaml:"max_line_bytes"`
		RequestsPerSec   float64 `yaml:"requests_per_second"`
		RequestBurst     int     `yaml:"request_burst"`
		SendGreeting     *bool   `yaml:"send_greeting"`
		ShutdownDeadline string  `yaml:"shutdown_deadline"`
	} `yaml:"server"`
	Database struct {
		Driver      string `yaml:"driver"`
		DSN         string `yaml:"dsn"`
		MaxConns    int    `yaml:"max_conns"`
		AutoMigrate *bool  `yaml:"auto_migrate"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	Login struct {
		Backend         string `yaml:"backend"`
		FailedThreshold int    `yaml:"failed_threshold"`
		LockoutDuration string `yaml:"lockout_duration"`
	} `yaml:"login"`
	Ops struct {
		Addr  string `yaml:"addr"`
		Token string `yaml:"token"`
	} `yaml:"ops"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func defaults() Config {
	return Config{
		AppPort:  "8080",
		LogLevel: "info",
		Server: ServerConfig{
			MaxConnections:   50,
			IdleTimeout:      5 * time.Minute,
			WriteTimeout:     10 * time.Second,
			RequestTimeout:   30 * time.Second,
			MaxLineBytes:     1 << 20,
			RequestsPerSec:   50,
			RequestBurst:     100,
			SendGreeting:     true,
			ShutdownDeadline: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:      "postgres",
			MaxConns:    10,
			AutoMigrate: true,
		},
		Login: LoginConfig{
			Backend:         "memory",
			FailedThreshold: 5,
			LockoutDuration: 5 * time.Minute,
		},
		Ops: OpsConfig{
			Addr: ":9090",
		},
	}
}

// Load resolves configuration as defaults, then the YAML file at path (if it
// exists), then environment variables.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if f.Server.Port != "" {
		cfg.AppPort = f.Server.Port
	}
	if f.Server.MaxConnections > 0 {
		cfg.Server.MaxConnections = f.Server.MaxConnections
	}
	if f.Server.MaxLineBytes > 0 {
		cfg.Server.MaxLineBytes = f.Server.MaxLineBytes
	}
	if f.Server.RequestsPerSec > 0 {
		cfg.Server.RequestsPerSec = f.Server.RequestsPerSec
	}
	if f.Server.RequestBurst > 0 {
		cfg.Server.RequestBurst = f.Server.RequestBurst
	}
	if f.Server.SendGreeting != nil {
		cfg.Server.SendGreeting = *f.Server.SendGreeting
	}

	durations := []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{f.Server.IdleTimeout, &cfg.Server.IdleTimeout, "server.idle_timeout"},
		{f.Server.WriteTimeout, &cfg.Server.WriteTimeout, "server.write_timeout"},
		{f.Server.RequestTimeout, &cfg.Server.RequestTimeout, "server.request_timeout"},
		{f.Server.ShutdownDeadline, &cfg.Server.ShutdownDeadline, "server.shutdown_deadline"},
		{f.Login.LockoutDuration, &cfg.Login.LockoutDuration, "login.lockout_duration"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if f.Database.Driver != "" {
		cfg.Database.Driver = f.Database.Driver
	}
	if f.Database.DSN != "" {
		cfg.Database.DSN = f.Database.DSN
	}
	if f.Database.MaxConns > 0 {
		cfg.Database.MaxConns = f.Database.MaxConns
	}
	if f.Database.AutoMigrate != nil {
		cfg.Database.AutoMigrate = *f.Database.AutoMigrate
	}

	if f.Redis.Addr != "" {
		cfg.Redis.Addr = f.Redis.Addr
	}
	if f.Redis.Password != "" {
		cfg.Redis.Password = f.Redis.Password
	}

	if f.Login.Backend != "" {
		cfg.Login.Backend = f.Login.Backend
	}
	if f.Login.FailedThreshold > 0 {
		cfg.Login.FailedThreshold = f.Login.FailedThreshold
	}

	if f.Ops.Addr != "" {
		cfg.Ops.Addr = f.Ops.Addr
	}
	if f.Ops.Token != "" {
		cfg.Ops.Token = f.Ops.Token
	}
	if f.Log.Level != "" {
		cfg.LogLevel = f.Log.Level
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.AppPort = envOrDefault("APP_PORT", cfg.AppPort)
	cfg.LogLevel = envOrDefault("STOCK_LOG_LEVEL", cfg.LogLevel)

	cfg.Database.Driver = envOrDefault("STOCK_DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envOrDefault("DATABASE_DSN", cfg.Database.DSN)
	cfg.Database.MaxConns = envInt("STOCK_DB_MAX_CONNS", cfg.Database.MaxConns)
	cfg.Database.AutoMigrate = envBool("STOCK_DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Redis.Addr = envOrDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envOrDefault("REDIS_PASSWORD", cfg.Redis.Password)

	cfg.Server.MaxConnections = envInt("STOCK_MAX_CONNECTIONS", cfg.Server.MaxConnections)
	cfg.Server.IdleTimeout = envDuration("STOCK_IDLE_TIMEOUT", cfg.Server.IdleTimeout)

	cfg.Login.Backend = envOrDefault("STOCK_LOGIN_BACKEND", cfg.Login.Backend)
	cfg.Login.FailedThreshold = envInt("STOCK_LOGIN_FAILED_THRESHOLD", cfg.Login.FailedThreshold)
	cfg.Login.LockoutDuration = envDuration("STOCK_LOGIN_LOCKOUT", cfg.Login.LockoutDuration)

	cfg.Ops.Addr = envOrDefault("STOCK_OPS_ADDR", cfg.Ops.Addr)
	cfg.Ops.Token = envOrDefault("STOCK_OPS_TOKEN", cfg.Ops.Token)
}

func (c Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("config: missing server port")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("config: missing DATABASE_DSN")
	}
	switch c.Login.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("config: redis login backend requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("config: unsupported login backend %q", c.Login.Backend)
	}
	if c.Server.MaxConnections <= 0 {
		return errors.New("config: max_connections must be positive")
	}
	if c.Server.IdleTimeout <= 0 {
		return errors.New("config: idle_timeout must be positive")
	}
	if c.Login.FailedThreshold <= 0 || c.Login.LockoutDuration <= 0 {
		return errors.New("config: login threshold and lockout duration must be positive")
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(name)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}
