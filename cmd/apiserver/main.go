// API server entry point for DentEMG-Intelligence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/DentEMG-Intelligence/internal/application/ingest"
	"github.com/turtacn/DentEMG-Intelligence/internal/application/model"
	"github.com/turtacn/DentEMG-Intelligence/internal/application/recommendation"
	"github.com/turtacn/DentEMG-Intelligence/internal/config"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/composite"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/pubmed"
	"github.com/turtacn/DentEMG-Intelligence/internal/intelligence/extraction"
	"github.com/turtacn/DentEMG-Intelligence/internal/intelligence/training"
	httpserver "github.com/turtacn/DentEMG-Intelligence/internal/interfaces/http"
	"github.com/turtacn/DentEMG-Intelligence/internal/interfaces/http/handlers"
)

var version = "dev"

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	watchLogLevel(*configPath, cfg.Log.Level, logger)

	logger.Info("starting DentEMG-Intelligence API server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	catalog, err := composite.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load composite catalog: %w", err)
	}
	logger.Info("composite catalog loaded",
		logging.String("path", cfg.Catalog.Path),
		logging.Int("materials", catalog.Size()),
	)

	// Storage.
	if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Database), cfg.Database.MigrationPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, logger)

	producer, err := kafka.NewProducer(cfg.Kafka, "apiserver", logger)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	defer producer.Close()

	// Observability.
	collector := prometheus.NewMetricsCollector(prometheus.CollectorConfig{}, logger)
	metrics := prometheus.NewAppMetrics(collector)

	// Repositories.
	articleRepo := repositories.NewArticleRepository(pool.Pool(), logger)
	pairRepo := repositories.NewPairRepository(pool.Pool(), logger)
	modelRepo := repositories.NewModelRepository(pool.Pool(), logger)

	// Application services.
	trainer := training.NewTrainer(training.Config{Seed: cfg.Training.Seed}, logger)
	modelSvc := model.NewService(trainer, nil, pairRepo, modelRepo, producer, metrics, cfg.Training, logger)
	if err := modelSvc.LoadArtifact(ctx); err != nil {
		return fmt.Errorf("load model artifact: %w", err)
	}

	recommendSvc := recommendation.NewService(catalog, modelSvc.Slot(), cache, metrics, logger)

	extractor := extraction.NewExtractor(extraction.DefaultConfig(), metrics, logger)
	harvester := pubmed.NewClient(cfg.PubMed, logger)
	ingestSvc := ingest.NewService(articleRepo, pairRepo, extractor, nil, harvester, producer, metrics, logger)

	if err := ingestSvc.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap curated corpus: %w", err)
	}

	// HTTP surface.
	healthHandler := handlers.NewHealthHandler(version,
		postgresChecker{pool},
		redisChecker{redisClient},
	)
	router := httpserver.NewRouter(httpserver.RouterConfig{
		RecommendationHandler: handlers.NewRecommendationHandler(recommendSvc, logger),
		ModelHandler:          handlers.NewModelHandler(modelSvc, logger),
		CorpusHandler:         handlers.NewCorpusHandler(ingestSvc, logger),
		HealthHandler:         healthHandler,
		Metrics:               metrics,
		MetricsCollector:      collector,
		Logger:                logger,
		Mode:                  cfg.Server.Mode,
	})

	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// loadConfig prefers the file at path, falling back to DENTEMG_* environment
// variables when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "config file %s not found, using environment\n", path)
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

// watchLogLevel hot-reloads log.level from the config file.  Other settings
// require a restart; env-only deployments have no file to watch.
func watchLogLevel(path, current string, logger logging.Logger) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	config.Watch(path, func(updated *config.Config) {
		if updated.Log.Level == current {
			return
		}
		if logging.SetLevel(logger, updated.Log.Level) {
			current = updated.Log.Level
			logger.Info("log level updated from config file",
				logging.String("level", current))
		}
	})
}
