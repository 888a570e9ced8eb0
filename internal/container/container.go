package container

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/dispatcher"
	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/application/service"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-desk/internal/infrastructure/storage"
	"github.com/garyjia/expense-desk/internal/metrics"
	"github.com/garyjia/expense-desk/pkg/database"
)

// healthProbeTimeout bounds each dependency probe in Health
const healthProbeTimeout = 3 * time.Second

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database     *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - External
	external *ExternalBundle

	// Infrastructure - Storage
	fileStorage *storage.LocalFileStorage

	// Observability
	metrics *metrics.Metrics

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Expense port.ExpenseRepository
	User    port.UserRepository
	History port.HistoryRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Expense service.ExpenseService
	Auth    service.AuthService
	History service.HistoryService
	Receipt service.ReceiptService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
	}, nil
}

// Start initializes all components.
// Components are initialized in dependency order:
// 1. Database and repositories
// 2. External clients (vision model, Lark)
// 3. Storage
// 4. Event dispatcher and its handlers
// 5. Application services
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	// Step 2: Initialize external clients
	external, err := ProvideExternalClients(&c.config.Vision, &c.config.Lark, c.logger)
	if err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.external = external
	c.logger.Info("External clients initialized")

	// Step 3: Initialize storage
	fileStorage, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.fileStorage = fileStorage
	c.logger.Info("Storage initialized", zap.String("dir", fileStorage.BaseDir()))

	// Step 4: Initialize dispatcher
	disp, err := ProvideDispatcher(c.repositories, c.external.Notifier, c.metrics, c.logger)
	if err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp
	c.logger.Info("Dispatcher initialized")

	// Step 5: Initialize application services
	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		External:   c.external,
		Storage:    c.fileStorage,
		Dispatcher: c.dispatcher,
		Metrics:    c.metrics,
		Config:     c.config,
		Logger:     c.logger,
	})
	if err != nil {
		_ = c.dispatcher.Close()
		c.closeDatabase()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Application services initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	c.ready.Store(false)

	var errs []error

	// Dispatcher first so queued side effects finish while the database is still open
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
// The vision model is reported but does not fail overall health, since expenses work without it.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	// Check database
	if c.database != nil {
		probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		err := c.database.Healthy(probeCtx)
		cancel()
		if err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check vision model
	if c.services != nil {
		probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		healthy := c.services.Receipt.Healthy(probeCtx)
		cancel()
		vision := ComponentHealth{Healthy: healthy}
		if !healthy {
			vision.Message = "vision endpoint unreachable"
		}
		status.Components["vision"] = vision
	}

	// Check dispatcher
	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	return status
}

// initDatabase initializes the database and all repositories using providers.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = dbBundle.DB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.closeDatabase()
		return err
	}

	c.repositories = repos
	return nil
}

func (c *Container) closeDatabase() {
	if c.database == nil {
		return
	}
	if err := c.database.Close(); err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
	}
	c.database = nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// FileStorage returns the receipt file storage.
func (c *Container) FileStorage() *storage.LocalFileStorage {
	return c.fileStorage
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Metrics returns the Prometheus collectors.
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// MetricsHandler serves Prometheus metrics, refreshing connection pool gauges per scrape.
func (c *Container) MetricsHandler() http.Handler {
	inner := c.metrics.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.database != nil {
			if err := c.metrics.UpdateDatabaseConnections(c.database.DB); err != nil {
				c.logger.Warn("Failed to update connection metrics", zap.Error(err))
			}
		}
		inner.ServeHTTP(w, r)
	})
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// ServiceLogger returns the key/value logger handed to services and adapters.
func (c *Container) ServiceLogger() service.Logger {
	return &zapLoggerAdapter{logger: c.logger}
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the key/value Logger interfaces
// used by application services and the dispatcher.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
