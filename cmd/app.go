package cmd

import (
	"context"
	"fmt"

	"catalog-sync/core/config"
	"catalog-sync/core/database"
	"catalog-sync/core/lock"
	"catalog-sync/core/logger"
	"catalog-sync/core/redis"
	"catalog-sync/core/secret"
	"catalog-sync/core/storage"
	"catalog-sync/core/worker"
	"catalog-sync/feature/pos"
	"catalog-sync/feature/pos/archive"
	"catalog-sync/feature/pos/credentials"
	"catalog-sync/feature/pos/square"
	"catalog-sync/feature/pos/store"
	"catalog-sync/feature/pos/toast"
	"catalog-sync/feature/possync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application holds the wired components shared by the commands.
type application struct {
	cfg          *config.Config
	logger       *zap.Logger
	db           *gorm.DB
	store        *store.Store
	archive      *archive.Archive
	dispatcher   *worker.Dispatcher
	orchestrator *possync.Orchestrator
	service      *possync.Service
	closers      []func()
}

// bootstrap loads configuration and wires the sync engine.
func bootstrap(ctx context.Context) (*application, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cipher, err := secret.NewCipher(cfg.Security)
	if err != nil {
		return nil, err
	}

	app := &application{cfg: cfg, logger: logg, db: db, store: store.New(db)}
	creds := credentials.NewStore(db, cipher)
	timeout := cfg.Sync.RequestTimeout()

	squareAdapter := square.NewAdapter(cfg.Square, creds, timeout, logg)
	registry := pos.NewRegistry()
	registry.Register(squareAdapter, square.NewWebhookVerifier(squareNotificationURL(cfg)))
	registry.Register(toast.NewAdapter(cfg.Toast, creds, timeout, logg), toast.NewWebhookVerifier())

	locker, err := app.locker(ctx)
	if err != nil {
		return nil, err
	}

	var archiver possync.Archiver
	if cfg.Storage.SnapshotsEnabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		app.archive = archive.New(client, cfg.Storage.Bucket)
		archiver = app.archive
	}

	app.dispatcher = worker.NewDispatcher(worker.Config{Workers: cfg.Sync.Workers, QueueSize: cfg.Sync.QueueSize}, logg)
	app.orchestrator = possync.NewOrchestrator(app.store, registry, locker, archiver, logg)
	app.service = possync.NewService(app.orchestrator, creds, app.dispatcher, possync.ServiceOptions{
		Authorizer:  squareAdapter,
		RedirectURL: cfg.Square.RedirectURL,
		WebhookSecrets: map[pos.Provider]string{
			pos.ProviderSquare: cfg.Square.WebhookSignatureKey,
			pos.ProviderToast:  cfg.Toast.WebhookSecret,
		},
	}, logg)

	return app, nil
}

func (a *application) locker(ctx context.Context) (lock.Locker, error) {
	switch a.cfg.Sync.Locker {
	case "", "memory":
		return lock.NewMemoryLocker(), nil
	case "redis":
		rdb, err := redis.Connect(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		a.logger.Info("Using redis tenant lock", zap.String("addr", a.cfg.Redis.Addr))
		return lock.NewRedisLocker(rdb, a.cfg.Sync.LockTTL(), a.logger), nil
	default:
		return nil, fmt.Errorf("unknown sync.locker %q", a.cfg.Sync.Locker)
	}
}

// squareNotificationURL is the URL Square signs; it defaults to this service's webhook route.
func squareNotificationURL(cfg *config.Config) string {
	if cfg.Square.WebhookNotificationURL != "" {
		return cfg.Square.WebhookNotificationURL
	}
	return cfg.Server.WebhookURL("square")
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}
