package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"stock-service/internal/auth/credentials"
	"stock-service/internal/config"
	"stock-service/internal/ledger"
	"stock-service/internal/logger"
	"stock-service/internal/metrics"
	"stock-service/internal/ratelimit"
	"stock-service/internal/router"
	"stock-service/internal/server"
	"stock-service/internal/session"
	"stock-service/internal/store"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        config.Config
	tcpServer  *server.Server
	httpServer *http.Server // nil when ops.addr is empty
	cleanup    func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	m := metrics.New()
	st := store.New(infra.DB)
	sessions := session.NewRegistry()

	if n, err := st.CountUsers(ctx); err == nil && n == 0 {
		logger.Warn("no users exist yet; run create-admin to bootstrap an account", map[string]any{"component": "app"})
	}

	policy := ratelimit.Policy{
		Threshold: cfg.Login.FailedThreshold,
		Lockout:   cfg.Login.LockoutDuration,
	}
	var limiter ratelimit.Limiter = ratelimit.NewMemory(policy)
	if infra.Redis != nil {
		limiter = ratelimit.NewRedis(infra.Redis.Client, policy)
	}

	rt := router.New(router.Deps{
		Store:       st,
		Credentials: credentials.NewService(st),
		Ledger:      ledger.New(st, m),
		Limiter:     limiter,
		Sessions:    sessions,
		Observer:    m,
	})

	a := &App{
		cfg:       cfg,
		tcpServer: server.New(cfg.Server, rt, sessions, m),
		cleanup:   infra.Close,
	}

	if cfg.Ops.Addr != "" {
		a.httpServer = &http.Server{
			Addr:              cfg.Ops.Addr,
			Handler:           setupHTTP(cfg.Ops, st, m, sessions),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return a, nil
}

// Run serves TCP clients and the ops endpoints until Shutdown. If either
// listener fails the other is stopped too, so Run returns promptly.
func (a *App) Run() error {
	var g errgroup.Group

	g.Go(func() error {
		err := a.tcpServer.ListenAndServe(":" + a.cfg.AppPort)
		if err != nil && a.httpServer != nil {
			_ = a.httpServer.Close()
		}
		return err
	})

	if a.httpServer != nil {
		g.Go(func() error {
			logger.Info("ops http listening", map[string]any{"component": "app", "addr": a.httpServer.Addr})
			err := a.httpServer.ListenAndServe()
			if err == nil || errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownDeadline)
			defer cancel()
			_ = a.tcpServer.Shutdown(ctx)
			return err
		})
	}

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.tcpServer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
