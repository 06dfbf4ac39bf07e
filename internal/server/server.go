package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/KaramelBytes/propdash-cli/internal/logger"
	"github.com/KaramelBytes/propdash-cli/internal/metrics"
	"github.com/KaramelBytes/propdash-cli/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxUpload caps the request body accepted by the upload endpoint. It is
// also the in-memory threshold before multipart parts spill to disk.
const maxUpload = 32 << 20

// Server exposes one session over HTTP.
type Server struct {
	sess    *session.Session
	metrics *metrics.Registry
	router  *gin.Engine
}

// New builds the router for sess. A nil registry gets a fresh one.
func New(sess *session.Session, reg *metrics.Registry) *Server {
	if reg == nil {
		reg = metrics.New()
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{sess: sess, metrics: reg, router: gin.New()}
	s.router.MaxMultipartMemory = maxUpload
	s.router.Use(gin.Recovery(), requestID(), s.observe())
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	api.POST("/upload", s.handleUpload)
	api.GET("/quality", s.handleQuality)
	api.GET("/overview", s.handleOverview)
	api.GET("/segments", s.handleSegments)
	api.GET("/competitiveness", s.handleCompetitiveness)
	api.GET("/records", s.handleRecords)
	api.GET("/facets", s.handleFacets)
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
