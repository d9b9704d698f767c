package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"stock-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservations(t *testing.T) {
	m := New()

	m.ObserveRequest("login", "ok", 3*time.Millisecond)
	m.ObserveRequest("login", "ok", time.Millisecond)
	m.ObserveTransaction(domain.Sale, "insufficient_stock")
	m.ConnectionsActive.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("login", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transactions.WithLabelValues("Sale", "insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionsActive))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.LoginFailures.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "stock_login_failures_total 1")
}
