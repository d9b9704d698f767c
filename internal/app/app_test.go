package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"stock-service/internal/auth"
	"stock-service/internal/config"
	"stock-service/internal/domain"
	"stock-service/internal/metrics"
	"stock-service/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func serve(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	up := setupHTTP(config.OpsConfig{}, fakePinger{}, metrics.New(), session.NewRegistry())
	w := serve(up, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)

	down := setupHTTP(config.OpsConfig{}, fakePinger{err: errors.New("refused")}, metrics.New(), session.NewRegistry())
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, "/health", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.ObserveRequest("login", "ok", 0)
	h := setupHTTP(config.OpsConfig{}, fakePinger{}, m, session.NewRegistry())

	w := serve(h, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `stock_requests_total{action="login",outcome="ok"} 1`)
}

func TestSessionsEndpointNeedsToken(t *testing.T) {
	reg := session.NewRegistry()
	session.New("10.0.0.1:4000", reg)
	h := setupHTTP(config.OpsConfig{Token: "ops-token"}, fakePinger{}, metrics.New(), reg)

	assert.Equal(t, http.StatusUnauthorized, serve(h, "/api/sessions", "").Code)

	w := serve(h, "/api/sessions", "ops-token")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count    int                `json:"count"`
		Sessions []session.Snapshot `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "10.0.0.1:4000", body.Sessions[0].Origin)
}

func sqliteConfig(t *testing.T) config.Config {
	return config.Config{
		Database: config.DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "file:" + filepath.Join(t.TempDir(), "stock.db") + "?_busy_timeout=5000",
		},
	}
}

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)

	u, err := CreateAdmin(ctx, cfg, "root", "rootpass")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, u.Role)

	_, err = CreateAdmin(ctx, cfg, "root ", "rootpass")
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, Migrate(ctx, cfg))
}
