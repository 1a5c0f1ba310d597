package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tasklist/internal/logger"
	"tasklist/internal/metrics"
	"tasklist/internal/render"
	"tasklist/internal/storage"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	store    *storage.Store
	renderer *render.Renderer
	log      logger.Logger
	metrics  *metrics.Metrics
	engine   *gin.Engine
}

func New(st *storage.Store, r *render.Renderer, log logger.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = logger.FromContext(context.Background())
	}
	if m == nil {
		m = metrics.New()
	}
	s := &Server{store: st, renderer: r, log: log, metrics: m}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(
		s.recoverMiddleware(),
		s.requestIDMiddleware(),
		s.accessLogMiddleware(),
		s.metricsMiddleware(),
		s.sessionMiddleware(),
	)

	engine.GET("/", s.handleIndex)
	engine.POST("/add", s.handleAdd)
	engine.POST("/complete/:id", s.handleComplete)
	engine.POST("/delete/:id", s.handleDelete)
	engine.POST("/init-db", s.handleInitDB)
	return engine
}

func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves the app on addr, and metrics on metricsAddr when it is
// non-empty, until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr, metricsAddr string) error {
	servers := []*http.Server{{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}}
	if metricsAddr != "" {
		servers = append(servers, &http.Server{Addr: metricsAddr, Handler: s.metrics.Handler(), ReadHeaderTimeout: 10 * time.Second})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		s.log.Info("listening", "addr", srv.Addr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if shutErr := srv.Shutdown(shutdownCtx); shutErr != nil {
			s.log.Warn("shutdown failed", "addr", srv.Addr, "error", shutErr)
		}
	}
	s.log.Info("server stopped")
	return err
}
