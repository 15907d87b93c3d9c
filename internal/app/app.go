package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bumpbot/internal/bot"
	"bumpbot/internal/bumper"
	"bumpbot/internal/config"
	"bumpbot/internal/forum"
	"bumpbot/internal/metrics"
	"bumpbot/internal/scheduler"
	"bumpbot/internal/storage"
	"bumpbot/internal/storage/ch"
	"bumpbot/internal/storage/sqlite"
	"bumpbot/internal/storage/stubs"
)

// App represents the application
type App struct {
	config    *config.Config
	logger    *zap.Logger
	db        storage.Storage
	threads   *bumper.Service
	bot       *bot.Bot
	scheduler *scheduler.Scheduler
	server    *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	app := &App{config: cfg, logger: logger}
	logger.Info("Starting bump bot...", zap.String("storage_driver", cfg.StorageDriver))

	metrics.MustRegister()

	if err := app.initStorage(); err != nil {
		return nil, err
	}

	forumClient := forum.New(cfg.ForumBaseURL, cfg.ForumToken, cfg.ForumTimeout, logger)
	app.threads = bumper.New(app.db, forumClient, logger)

	if err := app.initBot(); err != nil {
		app.db.Close()
		return nil, err
	}

	// Scheduled results go to the report chat only when one is configured
	var reporter scheduler.Reporter
	if cfg.ReportChatID != 0 {
		reporter = app.bot
	}
	app.scheduler = scheduler.New(cfg.BumpInterval, app.threads, reporter, logger)

	app.initHTTPServer()

	return app, nil
}

// initStorage opens and prepares the configured store
func (a *App) initStorage() error {
	db, err := openStorage(a.config, a.logger)
	if err != nil {
		return err
	}

	if err := db.Initialize(context.Background()); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.logger.Info("Database initialized successfully")

	a.db = db
	return nil
}

// openStorage picks the backend named by STORAGE_DRIVER
func openStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Info("Using in-memory storage")
		return stubs.NewMockDB(), nil
	case config.DriverSQLite:
		logger.Info("Opening SQLite database", zap.String("path", cfg.DatabasePath))
		db, err := sqlite.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		return db, nil
	case config.DriverClickHouse:
		logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		db, err := ch.NewClickHouseDB(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownDriver, cfg.StorageDriver)
	}
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.threads, a.config.AllowedUserIDs, bot.Options{
		ThreadLinkBase: a.config.ThreadLinkBase,
		MenuImageURL:   a.config.MenuImageURL,
		AuthorURL:      a.config.AuthorURL,
		ReportChatID:   a.config.ReportChatID,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("allowed_users", a.config.AllowedUserIDs))

	a.bot = telegramBot
	return nil
}

func (a *App) mode() string {
	if a.config.WebhookMode {
		return "webhook"
	}
	return "polling"
}

// initHTTPServer prepares the ops server; Run starts it
func (a *App) initHTTPServer() {
	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      newRouter(a.mode(), a.bot.HandleWebhookUpdate, a.logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is cancelled
func (a *App) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	if a.config.WebhookMode {
		a.logger.Info("Starting bot in WEBHOOK mode", zap.String("webhook_url", a.config.WebhookURL))
		if err := a.bot.StartWebhook(ctx, a.config.WebhookURL); err != nil {
			a.Shutdown()
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
	} else {
		go func() {
			if err := a.bot.Start(ctx); err != nil {
				a.logger.Error("Polling stopped with error", zap.Error(err))
				cancel()
			}
		}()
	}

	go func() {
		if err := a.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("Scheduler stopped with error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	a.logger.Info("Shutting down...")

	// Handlers see the cancelled context; let them stop before the store closes
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer waitCancel()
	if err := a.bot.Wait(waitCtx); err != nil {
		a.logger.Warn("Updates still in flight at shutdown", zap.Error(err))
	}
	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	defer a.logger.Sync() //nolint:errcheck

	// Shutdown HTTP server gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	return nil
}
