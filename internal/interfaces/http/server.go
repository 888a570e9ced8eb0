// Package http provides the HTTP adapter for the application layer.
// It translates HTTP requests into application service calls.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-desk/internal/application/service"
	"github.com/garyjia/expense-desk/internal/container"
	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RequestMetrics records served requests
type RequestMetrics interface {
	RecordAPIRequest(method, path string, status int, duration time.Duration)
}

// HealthReporter reports dependency health
type HealthReporter interface {
	Health(ctx context.Context) *container.HealthStatus
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	// Mode is the gin mode: release, debug or test
	Mode string

	UploadDir      string
	PublicPrefix   string
	MaxUploadBytes int64

	AnalyzeRPS   float64
	AnalyzeBurst int
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            3000,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    90 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		Mode:            gin.ReleaseMode,
		UploadDir:       "uploads",
		PublicPrefix:    "/uploads",
		MaxUploadBytes:  5 << 20,
		AnalyzeRPS:      1,
		AnalyzeBurst:    5,
	}
}

// Deps are the collaborators the HTTP adapter calls into
type Deps struct {
	Expenses service.ExpenseService
	Auth     service.AuthService
	History  service.HistoryService
	Receipts service.ReceiptService
	Health   HealthReporter
	Metrics  RequestMetrics
	// MetricsHandler serves GET /metrics; nil disables the route
	MetricsHandler http.Handler
	Logger         Logger
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Deps
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Deps) *Server {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	if config.PublicPrefix == "" {
		config.PublicPrefix = "/uploads"
	}
	gin.SetMode(config.Mode)

	router := gin.New()
	// Multipart bodies beyond this spill to temp files
	router.MaxMultipartMemory = config.MaxUploadBytes + 1<<20

	server := &Server{
		config: config,
		router: router,
		deps:   deps,
		logger: deps.Logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	if s.deps.Metrics != nil {
		s.router.Use(s.metricsMiddleware())
	}
	s.router.Use(corsMiddleware(s.config.CORSOrigins))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps, s.config.MaxUploadBytes)

	s.router.GET("/health", h.HealthCheck)
	if s.deps.MetricsHandler != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.MetricsHandler))
	}
	if s.config.UploadDir != "" {
		s.router.Static(s.config.PublicPrefix, s.config.UploadDir)
	}

	auth := s.router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.GET("/me", s.authMiddleware(), h.Me)
	}

	admin := requireRole(entity.RoleAdmin)
	expenses := s.router.Group("/expenses", s.authMiddleware())
	{
		expenses.GET("", h.ListExpenses)
		expenses.POST("", h.CreateExpense)
		expenses.GET("/all", admin, h.ListAllExpenses)
		expenses.GET("/export", admin, h.ExportExpenses)
		expenses.POST("/analyze", rateLimitMiddleware(s.config.AnalyzeRPS, s.config.AnalyzeBurst), h.AnalyzeReceipt)

		expenses.GET("/:id", h.GetExpense)
		expenses.PATCH("/:id", h.UpdateExpense)
		expenses.DELETE("/:id", h.DeleteExpense)
		expenses.POST("/:id/submit", h.SubmitExpense)
		expenses.POST("/:id/request-revision", admin, h.RequestRevision)
		expenses.POST("/:id/approve", admin, h.ApproveExpense)
		expenses.POST("/:id/reject", admin, h.RejectExpense)
		expenses.GET("/:id/history", h.ExpenseHistory)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "route not found"})
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
