// Package container provides dependency injection and lifecycle management
// for the purchase order service.
package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/dispatcher"
	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/application/service"
	"github.com/hyeunung/hanslwebapp-sub000/internal/config"
	infraLark "github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/external/lark"
	"github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/persistence/repository"
	"github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/persistence/sqldb"
	"github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/spreadsheet"
	"github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/storage"
	"github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/worker"
	httpapi "github.com/hyeunung/hanslwebapp-sub000/internal/interfaces/http"
	"github.com/hyeunung/hanslwebapp-sub000/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB        *database.DB
	TxManager *sqldb.TxManager
}

// StorageBundle holds the spreadsheet renderer and file storage.
type StorageBundle struct {
	Renderer    port.SheetRenderer
	FileStorage port.FileStorage
}

// ProvideDatabase opens the configured database and applies pending
// migrations for its dialect.
func ProvideDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if cfg.Driver == string(database.DialectSQLite) && cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.New(database.Config{
		Driver:          cfg.Driver,
		Path:            cfg.Path,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.NewMigrator(db, logger).Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:        db,
		TxManager: sqldb.NewTxManager(db, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &RepositoryBundle{
		Lines:         repository.NewPurchaseLineRepository(db, logger),
		Vendors:       repository.NewVendorRepository(db, logger),
		Employees:     repository.NewEmployeeRepository(db, logger),
		Notifications: repository.NewNotificationRepository(db, logger),
	}, nil
}

// ProvideMessenger creates the Lark message sender. Without credentials
// messages are only logged so the rest of the system keeps working.
func ProvideMessenger(cfg *config.LarkConfig, logger *zap.Logger) port.MessageSender {
	if cfg == nil || !cfg.Enabled() {
		logger.Info("Lark credentials not configured, notifications will only be logged")
		return &logSender{logger: logger.Named("notify")}
	}

	sdk := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		BaseURL:   cfg.BaseURL,
	}, logger)
	return infraLark.NewMessenger(sdk, logger)
}

// logSender is the MessageSender used when Lark is not configured.
type logSender struct {
	logger *zap.Logger
}

func (s *logSender) SendText(_ context.Context, recipient, text string) error {
	if recipient == "" {
		return fmt.Errorf("recipient cannot be empty")
	}
	s.logger.Info("Notification (not delivered)", zap.String("recipient", recipient), zap.String("text", text))
	return nil
}

// ProvideStorage creates the spreadsheet renderer and the file store.
func ProvideStorage(cfg *config.StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil || cfg.BaseDir == "" {
		return nil, fmt.Errorf("storage base directory is required")
	}
	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &StorageBundle{
		Renderer:    spreadsheet.NewRenderer(logger),
		FileStorage: storage.NewLocalFileStorage(cfg.BaseDir, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}))
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Sender     port.MessageSender
	Storage    *StorageBundle
	Clock      service.Clock
	App        config.AppConfig
	Logger     *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification handlers to the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil || deps.Storage == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("service dependencies are incomplete")
	}

	log := &zapLoggerAdapter{logger: deps.Logger.Named("service")}
	repos := deps.Repos

	board := service.NewBoardService(repos.Lines, deps.Clock, log)
	notifications := service.NewNotificationService(repos.Employees, repos.Notifications, deps.Sender, deps.Clock, log)
	notifications.Register(deps.Dispatcher)

	return &ServiceBundle{
		Approval:     service.NewApprovalService(repos.Lines, deps.Dispatcher, deps.Clock, log),
		Order:        service.NewOrderService(repos.Lines, repos.Vendors, repos.Notifications, deps.TxManager, deps.Dispatcher, deps.Clock, deps.App.OrderPrefix, log),
		Board:        board,
		Export:       service.NewExportService(repos.Lines, repos.Vendors, board, deps.Storage.Renderer, deps.Storage.FileStorage, deps.App.CompanyName, log),
		Vendor:       service.NewVendorService(repos.Vendors, repos.Lines, log),
		Notification: notifications,
	}, nil
}

// ProvideWorkers creates the worker manager with the notification retry
// worker registered.
func ProvideWorkers(cfg *config.WorkerConfig, repos *RepositoryBundle, sender port.MessageSender, logger *zap.Logger) *worker.WorkerManager {
	manager := worker.NewWorkerManager(logger)
	manager.Register(worker.NewNotificationWorker(worker.NotificationWorkerConfig{
		PollInterval: cfg.RetryInterval,
		BatchSize:    cfg.BatchSize,
		MaxAttempts:  cfg.MaxAttempts,
		SendTimeout:  cfg.SendTimeout,
	}, repos.Notifications, sender, logger))
	return manager
}

// ProvideServer creates the HTTP server over the services.
func ProvideServer(cfg *config.ServerConfig, services *ServiceBundle, repos *RepositoryBundle, clock service.Clock, logger *zap.Logger) *httpapi.Server {
	return httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Location:     clock.Location,
	}, httpapi.Services{
		Approvals:     services.Approval,
		Orders:        services.Order,
		Board:         services.Board,
		Exports:       services.Export,
		Vendors:       services.Vendor,
		Notifications: services.Notification,
		Employees:     repos.Employees,
	}, &zapLoggerAdapter{logger: logger.Named("http")})
}
