package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/five82/waypoint/internal/metrics"
	"github.com/five82/waypoint/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Pinger is implemented by dependencies that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Repo    store.Repository
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// Checks run on /healthz in addition to the repository ping.
	Checks map[string]Pinger
}

// Server serves the features API over HTTP.
type Server struct {
	repo    store.Repository
	log     zerolog.Logger
	metrics *metrics.Metrics
	checks  map[string]Pinger
	engine  *gin.Engine
}

// New builds the router. Repo is required.
func New(opts Options) (*Server, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("repository is nil")
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	s := &Server{
		repo:    opts.Repo,
		log:     opts.Logger.With().Str("component", "server").Logger(),
		metrics: m,
		checks:  opts.Checks,
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(
		s.recovery(),
		requestID(),
		s.accessLog(),
		s.instrument(),
		cors(),
	)

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api/features")
	{
		api.GET("/", s.listFeatures)
		api.POST("/", s.createFeature)
		api.GET("/:id", s.getFeature)
		api.PUT("/:id", s.updateFeature)
		api.DELETE("/:id", s.deleteFeature)
	}
	return r
}
