package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/dispatcher"
	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/application/service"
	"github.com/garyjia/expense-desk/internal/domain/event"
	infraLark "github.com/garyjia/expense-desk/internal/infrastructure/external/lark"
	"github.com/garyjia/expense-desk/internal/infrastructure/external/openai"
	"github.com/garyjia/expense-desk/internal/infrastructure/imaging"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-desk/internal/infrastructure/storage"
	"github.com/garyjia/expense-desk/internal/metrics"
	"github.com/garyjia/expense-desk/migrations"
	"github.com/garyjia/expense-desk/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ExternalBundle holds clients of services outside the process.
type ExternalBundle struct {
	Analyzer port.ReceiptAnalyzer
	Preparer port.ImagePreparer
	Notifier port.Notifier
}

// ProvideDatabase opens the database and applies pending migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).RunMigrations(migrations.FS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if applied > 0 {
		logger.Info("Migrations applied", zap.Int("count", applied))
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories on top of the transaction manager.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Expense: repository.NewExpenseRepository(db, logger),
		User:    repository.NewUserRepository(db, logger),
		History: repository.NewHistoryRepository(db, logger),
	}, nil
}

// ProvideExternalClients creates the vision analyzer, image preparer and notifier.
// Without Lark credentials notifications only go to the log.
func ProvideExternalClients(visionCfg *VisionConfig, larkCfg *LarkConfig, logger *zap.Logger) (*ExternalBundle, error) {
	if visionCfg == nil || larkCfg == nil {
		return nil, fmt.Errorf("vision and lark config are required")
	}

	prompts, err := openai.LoadPrompts(visionCfg.PromptsPath)
	if err != nil {
		return nil, err
	}
	analyzer, err := openai.NewAnalyzer(openai.AnalyzerConfig{
		APIKey:  visionCfg.APIKey,
		BaseURL: visionCfg.BaseURL,
		Model:   visionCfg.Model,
		Prompts: prompts,
	}, logger.Named("vision"))
	if err != nil {
		return nil, fmt.Errorf("failed to create receipt analyzer: %w", err)
	}

	var notifier port.Notifier
	if larkCfg.Enabled {
		n, err := infraLark.NewNotifier(infraLark.Config{
			AppID:     larkCfg.AppID,
			AppSecret: larkCfg.AppSecret,
			ChatID:    larkCfg.ChatID,
			Timeout:   larkCfg.APITimeout,
		}, logger.Named("lark"))
		if err != nil {
			return nil, fmt.Errorf("failed to create lark notifier: %w", err)
		}
		notifier = n
	} else {
		logger.Info("Lark notifications disabled, logging them instead")
		notifier = infraLark.NewLogNotifier(logger.Named("notify"))
	}

	return &ExternalBundle{
		Analyzer: analyzer,
		Preparer: imaging.NewPreparer(visionCfg.MaxImageDimension, logger.Named("imaging")),
		Notifier: notifier,
	}, nil
}

// ProvideStorage creates the receipt file storage.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (*storage.LocalFileStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	return storage.NewLocalFileStorage(cfg.UploadDir, logger.Named("storage"))
}

// ProvideDispatcher creates the event dispatcher and registers the side-effect handlers.
func ProvideDispatcher(repos *RepositoryBundle, notifier port.Notifier, m *metrics.Metrics, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}

	adapter := &zapLoggerAdapter{logger: logger.Named("events")}
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(adapter))

	allTypes := []event.Type{
		event.TypeExpenseCreated,
		event.TypeExpenseUpdated,
		event.TypeExpenseSubmitted,
		event.TypeExpenseRevisionRequested,
		event.TypeExpenseApproved,
		event.TypeExpenseRejected,
		event.TypeExpenseDeleted,
	}
	d.SubscribeAll(allTypes, "history", dispatcher.Handler(service.NewHistoryHandler(repos.History, adapter)))
	d.SubscribeAll(allTypes, "metrics", m.HandleEvent)
	d.SubscribeAll([]event.Type{
		event.TypeExpenseSubmitted,
		event.TypeExpenseRevisionRequested,
		event.TypeExpenseApproved,
		event.TypeExpenseRejected,
	}, "notify", dispatcher.Handler(service.NewNotificationHandler(notifier, adapter)))

	return d, nil
}

// ServiceDeps holds everything the application services are built from.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	External   *ExternalBundle
	Storage    port.FileStorage
	Dispatcher dispatcher.Dispatcher
	Metrics    *metrics.Metrics
	Config     *Config
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil || deps.External == nil || deps.Config == nil {
		return nil, fmt.Errorf("service dependencies are incomplete")
	}
	adapter := &zapLoggerAdapter{logger: deps.Logger}

	return &ServiceBundle{
		Expense: service.NewExpenseService(
			deps.Repos.Expense,
			deps.TxManager,
			deps.Dispatcher,
			adapter,
			service.ExpenseServiceConfig{SeedDemoExpenses: deps.Config.Workflow.SeedDemoExpenses},
		),
		Auth:    service.NewAuthService(deps.Repos.User, adapter),
		History: service.NewHistoryService(deps.Repos.History, deps.Repos.Expense, adapter),
		Receipt: service.NewReceiptService(
			deps.Storage,
			deps.External.Preparer,
			deps.External.Analyzer,
			deps.Metrics,
			adapter,
			service.ReceiptServiceConfig{
				MaxBytes:       deps.Config.Storage.MaxUploadBytes,
				PublicPrefix:   deps.Config.Storage.PublicPrefix,
				AnalyzeTimeout: deps.Config.Vision.Timeout,
			},
		),
	}, nil
}
