package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/cuongbtq/redditlink/internal/api/handler"
	"github.com/cuongbtq/redditlink/internal/api/router"
	"github.com/cuongbtq/redditlink/internal/config"
	"github.com/cuongbtq/redditlink/internal/events"
	"github.com/cuongbtq/redditlink/internal/history"
	"github.com/cuongbtq/redditlink/internal/job"
	"github.com/cuongbtq/redditlink/internal/media"
	"github.com/cuongbtq/redditlink/shared/logger"
	"github.com/cuongbtq/redditlink/shared/postgresql"
	"github.com/cuongbtq/redditlink/shared/rabbitmq"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Media.AutoInstall {
		appLogger.Info("Installing yt-dlp")
		if err := media.Install(rootCtx); err != nil {
			return fmt.Errorf("failed to install yt-dlp: %w", err)
		}
	}

	// Prepare the downloads directory
	if err := job.PrepareStorage(cfg.Storage.DownloadsDir); err != nil {
		return fmt.Errorf("failed to prepare downloads directory: %w", err)
	}
	if cfg.Storage.PurgeOnStart {
		if _, err := job.PurgeStorage(cfg.Storage.DownloadsDir, appLogger.Component("storage")); err != nil {
			return fmt.Errorf("failed to purge downloads directory: %w", err)
		}
	}

	var observers []job.Observer
	healthChecks := make(map[string]func(context.Context) error)

	// Initialize PostgreSQL history journal
	var (
		dbClient     *postgresql.Client
		historyStore *history.Storage
	)
	if cfg.History.Enabled {
		dbClient, err = initPostgreSQL(rootCtx, &cfg.History.Database, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer dbClient.Close()

		historyStore = history.NewStorage(dbClient)
		if err := historyStore.EnsureSchema(rootCtx); err != nil {
			return fmt.Errorf("failed to create history schema: %w", err)
		}
		observers = append(observers, history.NewJournal(historyStore, appLogger.Component("history")))
		healthChecks["database"] = dbClient.HealthCheck

		appLogger.Info("Database connection established")
	}

	// Initialize RabbitMQ event publisher
	if cfg.Events.Enabled {
		rabbitClient, err := initRabbitMQ(rootCtx, &cfg.Events.RabbitMQ, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		defer rabbitClient.Close()

		observers = append(observers, events.NewNotifier(rabbitClient, appLogger.Component("events")))
		healthChecks["events"] = func(context.Context) error {
			if !rabbitClient.IsConnected() {
				return rabbitmq.ErrNotConnected
			}
			return nil
		}

		appLogger.Info("RabbitMQ connection established")
	}

	// Initialize the fetch engine and job service
	engine := media.NewYTDLP(&media.YTDLPConfig{
		Logger:         appLogger.Component("ytdlp"),
		FFmpegLocation: cfg.Media.FFmpegLocation,
		AudioQuality:   cfg.Media.AudioQuality,
	})
	validator := media.NewValidator(cfg.Media.AllowedDomains)

	svc := job.NewService(&job.Config{
		Logger:       appLogger.Component("jobs"),
		Engine:       engine,
		Validator:    validator,
		Observers:    observers,
		DownloadsDir: cfg.Storage.DownloadsDir,
		Concurrency:  cfg.Worker.Concurrency,
		QueueSize:    cfg.Worker.QueueSize,
		JobTimeout:   cfg.Worker.JobTimeout,
		PollInterval: cfg.Worker.PollInterval,
	})
	svc.Start(rootCtx)

	janitor := job.NewJanitor(svc.Registry(), cfg.Storage.Retention, cfg.Storage.SweepInterval, appLogger.Component("janitor"))
	go janitor.Run(rootCtx)

	appLogger.Info("Job service started",
		slog.Int("concurrency", cfg.Worker.Concurrency),
		slog.Int("queue_size", cfg.Worker.QueueSize),
		slog.String("downloads_dir", cfg.Storage.DownloadsDir),
	)

	// Initialize router
	deps := &handler.Dependencies{
		Logger:    appLogger.Logger,
		Jobs:      svc,
		Media:     engine,
		Validator: validator,
	}
	if historyStore != nil {
		deps.History = historyStore
	}
	r := initRouter(cfg, deps, healthChecks)

	// Create HTTP server
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case runErr = <-serverErr:
		appLogger.Error("Server failed", slog.Any("error", runErr))
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown(ctx, srv, stop, svc, appLogger.Logger); err != nil {
		runErr = errors.Join(runErr, err)
	}

	if cfg.Storage.PurgeOnStop {
		if _, err := job.PurgeStorage(cfg.Storage.DownloadsDir, appLogger.Component("storage")); err != nil {
			appLogger.Warn("Failed to purge downloads directory", slog.Any("error", err))
		}
	}

	appLogger.Info("Server shutdown complete")
	return runErr
}

// jobStopper is the part of the job service needed at shutdown
type jobStopper interface {
	Stop(ctx context.Context)
}

// shutdown stops the workers before the HTTP server. Running jobs are
// canceled and queued ones failed, so every open progress stream reaches a
// terminal snapshot and the server can drain within the timeout.
func shutdown(ctx context.Context, srv *http.Server, cancelJobs context.CancelFunc, jobs jobStopper, logger *slog.Logger) error {
	cancelJobs()
	jobs.Stop(ctx)

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(ctx, dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(ctx context.Context, cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(ctx, rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, deps *handler.Dependencies, healthChecks map[string]func(context.Context) error) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(deps, &router.Options{
		ServiceName:  cfg.App.Name,
		Version:      cfg.App.Version,
		CORSOrigin:   regexp.MustCompile(cfg.Server.CORSOriginPattern),
		StaticDir:    cfg.Server.StaticDir,
		HealthChecks: healthChecks,
	})
}
