// Package server exposes a local HTTP status surface for a running client:
// health, readiness, connection snapshot, metrics and command submission.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/telectl/internal/client"
	"github.com/danmuck/telectl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

// Controller is the slice of *client.Client the status server drives.
type Controller interface {
	Snapshot() client.Snapshot
	SendCommand(name string, args ...string) error
}

type Config struct {
	Name        string
	Addr        string
	CorsOrigins []string
}

type StatusServer struct {
	cfg     Config
	ctl     Controller
	router  *gin.Engine
	started time.Time
}

func New(cfg Config, ctl Controller) *StatusServer {
	if cfg.Name == "" {
		cfg.Name = "telectl"
	}
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger, "/health", "/ready", "/state", "/metrics"))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &StatusServer{
		cfg:     cfg,
		ctl:     ctl,
		router:  r,
		started: time.Now(),
	}
	s.registerRoutes()
	return s
}

func (s *StatusServer) Handler() http.Handler {
	return s.router
}

// Serve listens on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *StatusServer) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info().Str("addr", s.cfg.Addr).Msg("status server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
