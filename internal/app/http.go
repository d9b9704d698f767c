package app

import (
	"context"
	"net/http"
	"time"

	"stock-service/internal/config"
	"stock-service/internal/metrics"
	"stock-service/internal/middleware"
	"stock-service/internal/session"

	"github.com/gin-gonic/gin"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func setupHTTP(cfg config.OpsConfig, db pinger, m *metrics.Metrics, sessions *session.Registry) *gin.Engine {

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	})

	router.GET("/metrics", gin.WrapH(m.Handler()))

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireToken(middleware.NewTokenAuth(cfg.Token)))

	api.GET("/sessions", func(c *gin.Context) {
		snaps := sessions.List()
		if snaps == nil {
			snaps = []session.Snapshot{}
		}
		c.JSON(http.StatusOK, gin.H{
			"count":    len(snaps),
			"sessions": snaps,
		})
	})

	return router
}
