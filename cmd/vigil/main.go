// Package main is the entry point for the VigilGo alerting service.
// It initializes all components and starts the HTTP server and the
// sample processor.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vigil-go/internal/api"
	"vigil-go/internal/banner"
	"vigil-go/internal/clock"
	"vigil-go/internal/config"
	"vigil-go/internal/ingest"
	"vigil-go/internal/notification"
	"vigil-go/internal/processor"
	"vigil-go/internal/queue"
	kafkaqueue "vigil-go/internal/queue/kafka"
	memoryqueue "vigil-go/internal/queue/memory"
	"vigil-go/internal/store"
	memorystor "vigil-go/internal/store/memory"
	postgresstor "vigil-go/internal/store/postgres"
	redisstor "vigil-go/internal/store/redis"
)

// memoryCounterRetention bounds how far back the in-memory alert counter
// remembers emissions. The hourly cap only ever looks back one hour.
const memoryCounterRetention = 2 * time.Hour

func main() {
	banner.Print()

	// Parse command line flags
	configPath := flag.String("config", "", "path to configuration file (defaults apply when unset)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(&cfg.Logger)

	logger.Info("configuration loaded",
		"path", *configPath,
		"storage_mode", cfg.Storage.Mode,
	)

	// Initialize dependencies based on storage mode
	deps, cleanup, err := initDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create context that listens for shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start processor in background
	go func() {
		if err := deps.processor.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("processor error", "error", err)
			cancel()
		}
	}()

	// Start HTTP server
	go func() {
		if err := deps.server.Start(); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	logger.Info("VigilGo started",
		"address", cfg.Server.Address(),
		"storage_mode", cfg.Storage.Mode,
	)

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := deps.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := deps.processor.Stop(); err != nil {
		logger.Error("processor shutdown error", "error", err)
	}

	logger.Info("VigilGo stopped")
}

// loadConfig reads the config file when a path is given, otherwise falls
// back to built-in defaults (memory storage, port 8080).
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// dependencies holds all initialized service dependencies.
type dependencies struct {
	server    *api.Server
	processor *processor.Service
}

// initDependencies creates and wires all service dependencies based on config.
// Returns the dependencies and a cleanup function.
func initDependencies(cfg *config.Config, logger *slog.Logger) (*dependencies, func(), error) {
	var (
		ruleRepo        store.RuleRepository
		alertRepo       store.AlertRepository
		maintenanceRepo store.MaintenanceWindowRepository
		serverRepo      store.ServerRepository
		counter         store.RecentAlertCounter
		producer        queue.Producer
		consumer        queue.Consumer
		cleanupFuncs    []func()
	)

	if cfg.Storage.UseMemory() {
		// Initialize in-memory implementations
		logger.Info("initializing in-memory storage")

		ruleRepo = memorystor.NewRuleRepository()
		alertRepo = memorystor.NewAlertRepository()
		maintenanceRepo = memorystor.NewMaintenanceWindowRepository()
		serverRepo = memorystor.NewServerRepository()

		memCounter := memorystor.NewRecentAlertCounter(memoryCounterRetention)
		counter = memCounter
		cleanupFuncs = append(cleanupFuncs, func() { _ = memCounter.Close() })

		memQueue := memoryqueue.NewQueue(cfg.Engine.QueueBufferSize)
		producer = memQueue
		consumer = memQueue
		cleanupFuncs = append(cleanupFuncs, func() { _ = memQueue.Close() })
	} else {
		// Initialize real storage implementations
		logger.Info("initializing production storage (Kafka, Redis, PostgreSQL)")

		// Initialize PostgreSQL
		ctx := context.Background()
		db, err := postgresstor.NewDB(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cleanupFuncs = append(cleanupFuncs, db.Close)

		// Run migrations
		if err := db.RunMigrations(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations completed")

		ruleRepo = postgresstor.NewRuleRepository(db)
		alertRepo = postgresstor.NewAlertRepository(db)
		maintenanceRepo = postgresstor.NewMaintenanceWindowRepository(db)
		serverRepo = postgresstor.NewServerRepository(db)

		// Initialize Redis
		redisCounter, err := redisstor.NewRecentAlertCounter(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		counter = redisCounter
		cleanupFuncs = append(cleanupFuncs, func() { _ = redisCounter.Close() })

		// Initialize Kafka
		kafkaProducer := kafkaqueue.NewProducer(&cfg.Kafka)
		producer = kafkaProducer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaProducer.Close() })

		kafkaConsumer := kafkaqueue.NewConsumer(&cfg.Kafka, logger)
		consumer = kafkaConsumer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaConsumer.Close() })
	}

	// Initialize notification service (stubbed for now)
	notifier := notification.NewStubNotifier(logger)

	// Initialize ingest service
	ingestService := ingest.NewService(producer, logger)

	// Initialize processor service
	processorService := processor.NewService(
		consumer,
		ruleRepo,
		alertRepo,
		maintenanceRepo,
		serverRepo,
		counter,
		notifier,
		cfg.Engine,
		clock.Real{},
		logger,
	)

	// Initialize API handlers
	ruleHandler := api.NewRuleHandler(ruleRepo, processorService, logger)
	maintenanceHandler := api.NewMaintenanceWindowHandler(maintenanceRepo, logger)
	serverHandler := api.NewServerHandler(serverRepo, logger)
	alertHandler := api.NewAlertHandler(alertRepo, logger)
	ingestHandler := api.NewIngestHandler(ingestService, logger)

	// Initialize HTTP server
	server := api.NewServer(api.ServerDeps{
		Config:             &cfg.Server,
		Logger:             logger,
		RuleHandler:        ruleHandler,
		MaintenanceHandler: maintenanceHandler,
		ServerHandler:      serverHandler,
		AlertHandler:       alertHandler,
		IngestHandler:      ingestHandler,
	})

	// Build cleanup function
	cleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	return &dependencies{
		server:    server,
		processor: processorService,
	}, cleanup, nil
}

// initLogger creates and configures the application logger.
func initLogger(cfg *config.LoggerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// parseLevel maps a config level string to a slog level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
