package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/harvester/internal/controller"
	"github.com/nao1215/harvester/internal/database"
	"github.com/nao1215/harvester/internal/metrics"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Server is the HTTP API in front of a Controller.
type Server struct {
	router  *gin.Engine
	ctrl    *controller.Controller
	hub     *Hub
	history database.History
	metrics *metrics.Metrics
	cors    CORSConfig
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHub sets the push hub. Pass the same Hub to controller.WithNotifier.
func WithHub(h *Hub) Option {
	return func(s *Server) {
		s.hub = h
	}
}

// WithHistory serves recent scans at GET /api/history.
func WithHistory(h database.History) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithMetrics instruments requests and serves GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithCORS replaces DefaultCORSConfig.
func WithCORS(cfg CORSConfig) Option {
	return func(s *Server) {
		s.cors = cfg
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server for ctrl and registers its routes.
func New(ctrl *controller.Controller, opts ...Option) *Server {
	s := &Server{
		ctrl: ctrl,
		cors: DefaultCORSConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.hub == nil {
		s.hub = NewHub(WithHubLogger(s.logger), WithHubMetrics(s.metrics))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))
	if s.metrics != nil {
		router.Use(metrics.Middleware(s.metrics))
	}
	router.Use(CORS(s.cors))

	router.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := router.Group("/api")
	api.POST("/message", s.handleMessage)
	api.POST("/start", s.handleStart)
	api.POST("/stop", s.handleStop)
	api.POST("/rules", s.handleSaveRules)
	api.POST("/clear", s.handleClear)
	api.GET("/state", s.handleState)
	api.POST("/navigation", s.handleNavigation)
	api.GET("/history", s.handleHistory)
	api.GET("/ws", s.hub.ServeWS)

	s.router = router
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the push hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Serve serves the API on l until ctx is done, then shuts down gracefully
// and closes every push session.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	s.logger.Info("api listening", "address", l.Addr().String())

	select {
	case err := <-errCh:
		s.hub.Close()
		return fmt.Errorf("api server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()

	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down api server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server stopped: %w", err)
	}
	s.logger.Info("api stopped")
	return nil
}

// Run listens on addr and calls Serve.
func (s *Server) Run(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, l)
}

// requestLogger logs each request at debug level.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("api request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
