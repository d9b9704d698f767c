// Package server runs the TCP side: it accepts connections up to a fixed
// limit, gives each one a session and a worker goroutine, and feeds request
// lines to the dispatcher strictly in order.
package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"stock-service/internal/config"
	"stock-service/internal/logger"
	"stock-service/internal/protocol"
	"stock-service/internal/session"
	"stock-service/internal/shardmap"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const GreetingMessage = "Connected to stock server"

type Dispatcher interface {
	Dispatch(ctx context.Context, sess *session.Session, line []byte) protocol.Response
}

type Observer interface {
	ConnectionOpened()
	ConnectionClosed()
	ConnectionRejected()
}

type Server struct {
	cfg      config.ServerConfig
	dispatch Dispatcher
	sessions *session.Registry
	observer Observer

	slots *semaphore.Weighted
	conns *shardmap.Map[net.Conn]
	wg    sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
	closing  atomic.Bool
}

// New builds a server. sessions and observer may be nil.
func New(cfg config.ServerConfig, d Dispatcher, sessions *session.Registry, observer Observer) *Server {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 1
	}
	return &Server{
		cfg:      cfg,
		dispatch: d,
		sessions: sessions,
		observer: observer,
		slots:    semaphore.NewWeighted(int64(cfg.MaxConnections)),
		conns:    shardmap.New[net.Conn](shardmap.DefaultShards),
	}
}

func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(l)
}

// Serve accepts on l until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		return l.Close()
	}
	s.listener = l
	s.mu.Unlock()

	logger.Info("tcp server listening", map[string]any{
		"component":       "server",
		"addr":            l.Addr().String(),
		"max_connections": s.cfg.MaxConnections,
	})

	for {
		conn, err := l.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		if !s.slots.TryAcquire(1) {
			s.reject(conn)
			continue
		}

		s.mu.Lock()
		if s.closing.Load() {
			s.mu.Unlock()
			s.slots.Release(1)
			_ = conn.Close()
			return nil
		}
		s.wg.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.wg.Done()
			defer s.slots.Release(1)
			s.handle(conn)
		}()
	}
}

// Addr is the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting, wakes idle readers and waits for workers to finish
// the request they are on. Connections still open when ctx ends are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing.Store(true)
	l := s.listener
	s.mu.Unlock()

	if l != nil {
		_ = l.Close()
	}
	now := time.Now()
	s.conns.Range(func(_ string, c net.Conn) bool {
		_ = c.SetReadDeadline(now)
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("tcp server drained", map[string]any{"component": "server"})
		return nil
	case <-ctx.Done():
		logger.Warn("shutdown deadline reached, closing connections", map[string]any{
			"component": "server",
			"remaining": s.conns.Len(),
		})
		s.conns.Range(func(_ string, c net.Conn) bool {
			_ = c.Close()
			return true
		})
		<-done
		return ctx.Err()
	}
}

func (s *Server) reject(conn net.Conn) {
	defer conn.Close()
	if s.observer != nil {
		s.observer.ConnectionRejected()
	}
	logger.Warn("connection limit reached, rejecting", map[string]any{
		"component": "server",
		"origin":    conn.RemoteAddr().String(),
		"limit":     s.cfg.MaxConnections,
	})
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, _ = conn.Write(protocol.Encode(protocol.Fail(protocol.CodeServerBusy, "Server is busy, try again later")))
}

func (s *Server) handle(conn net.Conn) {
	origin := conn.RemoteAddr().String()
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(30 * time.Second)
		_ = tc.SetNoDelay(true)
	}

	sess := session.New(origin, s.sessions)
	key := strconv.FormatInt(sess.ID(), 10)
	s.conns.Set(key, conn)
	if s.observer != nil {
		s.observer.ConnectionOpened()
	}

	fields := map[string]any{
		"component":     "server",
		"connection_id": sess.ID(),
		"origin":        origin,
	}
	logger.Info("connection opened", fields)

	reason := "client disconnected"
	defer func() {
		if rec := recover(); rec != nil {
			reason = "worker panic"
			logger.Error("connection worker panic", map[string]any{
				"component":     "server",
				"connection_id": sess.ID(),
				"panic":         fmt.Sprint(rec),
			})
		}
		_ = conn.Close()
		s.conns.Delete(key)
		if s.sessions != nil {
			s.sessions.Remove(sess.ID())
		}
		if s.observer != nil {
			s.observer.ConnectionClosed()
		}
		logger.Info("connection closed", map[string]any{
			"component":     "server",
			"connection_id": sess.ID(),
			"origin":        origin,
			"reason":        reason,
		})
	}()

	w := bufio.NewWriter(conn)
	r := bufio.NewReaderSize(conn, 4096)

	if s.cfg.SendGreeting {
		if err := s.write(conn, w, protocol.OK(GreetingMessage, nil)); err != nil {
			reason = "write failed"
			return
		}
	}

	throttle := rate.NewLimiter(rate.Inf, 0)
	if s.cfg.RequestsPerSec > 0 {
		throttle = rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSec), max(s.cfg.RequestBurst, 1))
	}

	for {
		if !s.armRead(conn) {
			reason = "server shutting down"
			return
		}

		line, err := readLine(r, s.cfg.MaxLineBytes)
		if errors.Is(err, errLineTooLong) {
			logger.Warn("request line too long", fields)
			resp := protocol.Fail(protocol.CodeProtocolError,
				fmt.Sprintf("Request line exceeds %d bytes", s.cfg.MaxLineBytes))
			if err := s.write(conn, w, resp); err != nil {
				reason = "write failed"
				return
			}
			continue
		}
		if err != nil {
			reason = readFailure(err, s.closing.Load())
			return
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		sess.Touch()
		var resp protocol.Response
		if throttle.Allow() {
			resp = s.serveOne(sess, line)
		} else {
			resp = protocol.Fail(protocol.CodeRateLimited, "Too many requests, slow down")
		}
		if err := s.write(conn, w, resp); err != nil {
			logger.Warn("response write failed", withErr(fields, err))
			reason = "write failed"
			return
		}
	}
}

// armRead pushes the idle deadline forward and reports whether the worker
// may block on the next read. closing is checked after the deadline moves:
// Shutdown stores closing before it wakes readers, so a worker that overwrote
// the wake-up deadline always sees the flag here.
func (s *Server) armRead(conn net.Conn) bool {
	if s.closing.Load() {
		return false
	}
	if s.cfg.IdleTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
	}
	return !s.closing.Load()
}

// serveOne runs a request on a context detached from shutdown so an in-flight
// request always completes, bounded by the request timeout.
func (s *Server) serveOne(sess *session.Session, line []byte) protocol.Response {
	ctx := context.Background()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}
	return s.dispatch.Dispatch(ctx, sess, line)
}

func (s *Server) write(conn net.Conn, w *bufio.Writer, resp protocol.Response) error {
	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := w.Write(protocol.Encode(resp)); err != nil {
		return err
	}
	return w.Flush()
}

func readFailure(err error, closing bool) string {
	var ne net.Error
	switch {
	case closing:
		return "server shutting down"
	case errors.Is(err, io.EOF):
		return "client disconnected"
	case errors.As(err, &ne) && ne.Timeout():
		return "idle timeout"
	default:
		return "read error: " + err.Error()
	}
}

func withErr(fields map[string]any, err error) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err
	return out
}
