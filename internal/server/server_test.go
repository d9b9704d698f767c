package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"stock-service/internal/auth"
	"stock-service/internal/config"
	"stock-service/internal/metrics"
	"stock-service/internal/protocol"
	"stock-service/internal/session"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDispatcher understands a handful of actions that poke at the session.
type fakeDispatcher struct{}

func (fakeDispatcher) Dispatch(_ context.Context, sess *session.Session, line []byte) protocol.Response {
	req, err := protocol.ParseRequest(line)
	if err != nil {
		return protocol.Fail(protocol.CodeProtocolError, "Malformed request")
	}
	switch req.Action {
	case "login":
		p, _ := auth.NewPrincipal(1, "ann", auth.RoleCashier)
		if err := sess.Authenticate(p); err != nil {
			return protocol.Fail(protocol.CodeInternal, err.Error())
		}
		return protocol.OK("Login successful", nil)
	case "whoami":
		if !sess.IsAuthenticated() {
			return protocol.Fail(protocol.CodeAuthRequired, "Authentication required")
		}
		return protocol.OK(sess.Principal().Username, nil)
	case "slow":
		time.Sleep(200 * time.Millisecond)
		return protocol.OK("slow done", nil)
	case "panic":
		panic("dispatcher exploded")
	}
	return protocol.OK(req.Action, nil)
}

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		MaxConnections: 4,
		IdleTimeout:    5 * time.Second,
		WriteTimeout:   2 * time.Second,
		RequestTimeout: 2 * time.Second,
		MaxLineBytes:   1024,
		RequestsPerSec: 1000,
		RequestBurst:   1000,
		SendGreeting:   true,
	}
}

func start(t *testing.T, cfg config.ServerConfig, reg *session.Registry, obs Observer) *Server {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(cfg, fakeDispatcher{}, reg, obs)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(l) }()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, 5*time.Millisecond)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		<-served
	})
	return srv
}

type client struct {
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, srv *Server) *client {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &client{conn: conn, r: bufio.NewReader(conn)}
}

func (c *client) send(t *testing.T, line string) {
	t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

func (c *client) read(t *testing.T) protocol.Response {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	raw, err := c.r.ReadBytes('\n')
	require.NoError(t, err)
	var resp protocol.Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func (c *client) greeted(t *testing.T) *client {
	t.Helper()
	resp := c.read(t)
	require.True(t, resp.Success)
	require.Equal(t, GreetingMessage, resp.Message)
	return c
}

func (c *client) expectClosed(t *testing.T) {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, err := c.r.ReadBytes('\n')
	assert.ErrorIs(t, err, io.EOF)
}

func TestGreetingAndRoundTrip(t *testing.T) {
	srv := start(t, testConfig(), nil, nil)
	c := dial(t, srv).greeted(t)

	c.send(t, `{"action":"ping"}`)
	resp := c.read(t)
	assert.True(t, resp.Success)
	assert.Equal(t, "ping", resp.Message)
}

func TestNoGreetingWhenDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.SendGreeting = false
	srv := start(t, cfg, nil, nil)
	c := dial(t, srv)

	c.send(t, `{"action":"ping"}`)
	assert.Equal(t, "ping", c.read(t).Message)
}

func TestMalformedLineKeepsConnection(t *testing.T) {
	srv := start(t, testConfig(), nil, nil)
	c := dial(t, srv).greeted(t)

	c.send(t, `{{{ not json`)
	assert.Equal(t, protocol.CodeProtocolError, c.read(t).Code)

	c.send(t, "")
	c.send(t, `{"action":"ping"}`)
	assert.Equal(t, "ping", c.read(t).Message)
}

func TestOversizedLineIsRejectedAndSkipped(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLineBytes = 64
	srv := start(t, cfg, nil, nil)
	c := dial(t, srv).greeted(t)

	c.send(t, `{"action":"ping","pad":"`+strings.Repeat("x", 10000)+`"}`)
	resp := c.read(t)
	assert.Equal(t, protocol.CodeProtocolError, resp.Code)
	assert.Contains(t, resp.Message, "64 bytes")

	c.send(t, `{"action":"ping"}`)
	assert.Equal(t, "ping", c.read(t).Message)
}

func TestIdleTimeoutClosesConnection(t *testing.T) {
	cfg := testConfig()
	cfg.IdleTimeout = 100 * time.Millisecond
	reg := session.NewRegistry()
	srv := start(t, cfg, reg, nil)
	c := dial(t, srv).greeted(t)

	c.expectClosed(t)
	assert.Eventually(t, func() bool { return reg.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := start(t, testConfig(), nil, nil)
	a := dial(t, srv).greeted(t)
	b := dial(t, srv).greeted(t)

	a.send(t, `{"action":"login"}`)
	require.True(t, a.read(t).Success)

	b.send(t, `{"action":"whoami"}`)
	assert.Equal(t, protocol.CodeAuthRequired, b.read(t).Code)

	a.send(t, `{"action":"whoami"}`)
	assert.Equal(t, "ann", a.read(t).Message)
}

func TestOverflowGetsServerBusy(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConnections = 1
	m := metrics.New()
	srv := start(t, cfg, nil, m)

	first := dial(t, srv).greeted(t)

	second := dial(t, srv)
	resp := second.read(t)
	assert.Equal(t, protocol.CodeServerBusy, resp.Code)
	second.expectClosed(t)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ConnectionsTotal.WithLabelValues("rejected")))

	first.send(t, `{"action":"ping"}`)
	assert.Equal(t, "ping", first.read(t).Message)

	// The slot frees up once the first client leaves.
	require.NoError(t, first.conn.Close())
	require.Eventually(t, func() bool {
		if !srv.slots.TryAcquire(1) {
			return false
		}
		srv.slots.Release(1)
		return true
	}, time.Second, 10*time.Millisecond)
	dial(t, srv).greeted(t)
}

func TestPerConnectionThrottle(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSec = 0.5
	cfg.RequestBurst = 2
	srv := start(t, cfg, nil, nil)
	c := dial(t, srv).greeted(t)

	for i := 0; i < 2; i++ {
		c.send(t, `{"action":"ping"}`)
		require.True(t, c.read(t).Success)
	}
	c.send(t, `{"action":"ping"}`)
	assert.Equal(t, protocol.CodeRateLimited, c.read(t).Code)
}

func TestRegistryAndGaugeFollowConnections(t *testing.T) {
	reg := session.NewRegistry()
	m := metrics.New()
	srv := start(t, testConfig(), reg, m)

	c := dial(t, srv).greeted(t)
	assert.Equal(t, 1, reg.Count())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ConnectionsActive))

	require.NoError(t, c.conn.Close())
	require.Eventually(t, func() bool { return reg.Count() == 0 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return testutil.ToFloat64(m.ConnectionsActive) == 0 }, time.Second, 10*time.Millisecond)
}

func TestWorkerPanicClosesOnlyThatConnection(t *testing.T) {
	reg := session.NewRegistry()
	srv := start(t, testConfig(), reg, nil)
	bad := dial(t, srv).greeted(t)
	good := dial(t, srv).greeted(t)

	bad.send(t, `{"action":"panic"}`)
	bad.expectClosed(t)

	good.send(t, `{"action":"ping"}`)
	assert.Equal(t, "ping", good.read(t).Message)
	assert.Eventually(t, func() bool { return reg.Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestShutdownFinishesInFlightRequest(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := New(testConfig(), fakeDispatcher{}, nil, nil)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(l) }()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, 5*time.Millisecond)

	busy := dial(t, srv).greeted(t)
	idle := dial(t, srv).greeted(t)

	busy.send(t, `{"action":"slow"}`)
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	require.NoError(t, <-served)

	assert.Equal(t, "slow done", busy.read(t).Message)
	busy.expectClosed(t)
	idle.expectClosed(t)

	_, err = net.DialTimeout("tcp", l.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err)
}

func TestArmReadStopsOnceClosing(t *testing.T) {
	srv := New(testConfig(), fakeDispatcher{}, nil, nil)
	a, b := net.Pipe()
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })

	assert.True(t, srv.armRead(a))
	srv.closing.Store(true)
	assert.False(t, srv.armRead(a))
}

func TestShutdownDoesNotWaitForIdleTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.IdleTimeout = time.Minute
	cfg.MaxConnections = 32

	for round := 0; round < 5; round++ {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		srv := New(cfg, fakeDispatcher{}, nil, nil)
		served := make(chan error, 1)
		go func() { served <- srv.Serve(l) }()
		require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, 5*time.Millisecond)

		clients := make([]*client, 0, 8)
		for i := 0; i < 8; i++ {
			clients = append(clients, dial(t, srv).greeted(t))
		}
		// Keep workers cycling through the read loop while Shutdown runs.
		for _, c := range clients {
			c.send(t, `{"action":"ping"}`)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		start := time.Now()
		require.NoError(t, srv.Shutdown(ctx), "round %d", round)
		cancel()
		require.NoError(t, <-served)
		assert.Less(t, time.Since(start), 2*time.Second)
	}
}
