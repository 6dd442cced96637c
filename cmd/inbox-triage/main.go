package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inbox-triage-go/internal/approval"
	"inbox-triage-go/internal/config"
	"inbox-triage-go/internal/engine"
	"inbox-triage-go/internal/metrics"
	"inbox-triage-go/internal/notify"
	"inbox-triage-go/internal/poll"
	"inbox-triage-go/internal/scheduler"
	"inbox-triage-go/internal/server"
	"inbox-triage-go/internal/store"
)

func main() {
	// Configure logging
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Inbox Triage Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration before any side effect
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	// Initialize persistence
	st, err := initStore(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize store: %v", err)
	}

	// Initialize metrics
	m := metrics.NewMetrics()

	// Initialize the approval notifier
	notifier := notify.NewSlackNotifier(cfg.Notifier.SlackWebhookURL)
	if cfg.Notifier.SlackWebhookURL == "" {
		logrus.Warn("No Slack webhook configured; approval notifications will fail per draft")
	}

	// Initialize the triage engine
	eng := engine.New(st, notifier, m)

	// Initialize the poll source
	source, err := initSource(cfg)
	if err != nil {
		logrus.Fatalf("Failed to create poll source: %v", err)
	}

	// Initialize scheduler
	sched := scheduler.NewScheduler(&cfg.Scheduler, source, eng, cfg.Guidance.SnapshotPath)

	// Initialize HTTP handlers
	handlers := server.NewHandlers(st, sched, approval.NewHandler(st))

	// Setup HTTP server
	router := server.SetupRouter(handlers)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start scheduler
	if err := sched.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduler
	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}

	// Wait for in-flight runs to finish
	sched.Wait()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	// Close poll source
	if err := source.Close(); err != nil {
		logrus.Errorf("Failed to close poll source: %v", err)
	}

	logrus.Info("Server stopped gracefully")
}

// initStore opens the configured persistence backend and runs migrations.
func initStore(cfg config.DatabaseConfig) (store.Store, error) {
	if cfg.Driver == "memory" {
		logrus.Info("Using in-memory store")
		return store.NewMemoryStore(), nil
	}

	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	gs := store.NewGormStore(db)
	logrus.Info("Running database migrations...")
	if err := gs.Migrate(); err != nil {
		return nil, err
	}
	logrus.Info("Database initialized successfully")
	return gs, nil
}

// initSource creates the configured mail poll source.
func initSource(cfg *config.Config) (poll.Source, error) {
	lookback := time.Duration(cfg.Poller.LookbackHours) * time.Hour

	switch cfg.Mail.Provider {
	case "gmail":
		logrus.Info("Using Gmail API for message polling")
		return poll.NewGmailSource(&cfg.Mail, lookback)
	case "imap":
		logrus.Info("Using IMAP for message polling")
		return poll.NewIMAPSource(&cfg.Mail, cfg.Poller.Mailboxes, lookback)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.Mail.Provider)
	}
}
