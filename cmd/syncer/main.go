package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"post_syncer/internal/admin"
	"post_syncer/internal/config"
	"post_syncer/internal/domain"
	"post_syncer/internal/media"
	"post_syncer/internal/publisher"
	"post_syncer/internal/scheduler"
	"post_syncer/internal/service"
	"post_syncer/internal/source/wordpress"
	"post_syncer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	version, err := postgres.Migrate(db)
	if err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrated", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	postStore := postgres.NewPostStore(db)
	authorStore := postgres.NewAuthorStore(db)
	termStore := postgres.NewTermStore(db)
	attachmentStore := postgres.NewAttachmentStore(db)
	settingsStore := postgres.NewSettingsStore(db)
	txManager := postgres.NewTransactionManager(db)

	if err := settingsStore.SeedSyncConfig(ctx, domain.SyncConfig{
		ExternalSiteURL: cfg.Sync.Defaults.ExternalSiteURL,
		ContentTypeName: cfg.Sync.Defaults.ContentTypeName,
		CategoryFilter:  cfg.Sync.Defaults.CategoryFilter,
		TagFilter:       cfg.Sync.Defaults.TagFilter,
	}); err != nil {
		logger.Error("failed to seed settings", "error", err)
		os.Exit(1)
	}

	uploads, err := media.NewUploads(cfg.Sync.UploadDir)
	if err != nil {
		logger.Error("failed to prepare upload dir", "error", err)
		os.Exit(1)
	}

	source := wordpress.New(wordpress.Config{
		ListingTimeout: cfg.HTTP.ListingTimeout,
		DefaultTimeout: cfg.HTTP.DefaultTimeout,
		UserAgent:      cfg.HTTP.UserAgent,
	}, logger)

	// The publisher is optional; keep the interface nil when disabled.
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	syncService := service.NewSyncService(
		source,
		service.Stores{
			Posts:       postStore,
			Authors:     authorStore,
			Terms:       termStore,
			Attachments: attachmentStore,
			Settings:    settingsStore,
		},
		uploads,
		txManager,
		pub,
		logger,
		cfg.Sync,
	)

	sched := scheduler.NewScheduler(syncService, scheduler.Config{
		Interval:   cfg.Sync.Interval,
		RunTimeout: cfg.Sync.RunTimeout,
		RunOnStart: cfg.Sync.ShouldRunOnStart(),
	}, logger)

	gin.SetMode(gin.ReleaseMode)
	router := admin.NewServer(
		admin.NewHandler(settingsStore, syncService, db, logger),
		admin.Credentials{Username: cfg.Admin.Username, APIKey: cfg.Admin.APIKey},
		logger,
	)
	srv := &http.Server{
		Addr:              cfg.Admin.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go func() {
		logger.Info("admin server listening", "addr", cfg.Admin.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server error", "error", err)
			cancel()
		}
	}()

	logger.Info("starting post syncer",
		"interval", cfg.Sync.Interval,
		"upload_dir", uploads.Root(),
		"publisher_enabled", cfg.RabbitMQ.Enabled,
	)

	schedErr := sched.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown error", "error", err)
	}

	if schedErr != nil && !errors.Is(schedErr, context.Canceled) {
		logger.Error("scheduler error", "error", schedErr)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
