// Auto-train worker entry point for DentEMG-Intelligence.
//
// The worker harvests PubMed on a schedule, reacts to article-ingested
// events from the API server, and retrains the classifier once enough new
// labeled pairs have accumulated.  A Redis mutex keeps concurrent workers
// from training the same corpus twice.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/DentEMG-Intelligence/internal/application/ingest"
	"github.com/turtacn/DentEMG-Intelligence/internal/application/model"
	"github.com/turtacn/DentEMG-Intelligence/internal/config"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/pubmed"
	"github.com/turtacn/DentEMG-Intelligence/internal/intelligence/extraction"
	"github.com/turtacn/DentEMG-Intelligence/internal/intelligence/training"
)

var version = "dev"

const (
	defaultConfigPath = "configs/config.yaml"
	trainLockName     = "retrain"
	trainLockTTL      = 10 * time.Minute
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
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

	logger.Info("starting DentEMG-Intelligence worker",
		logging.String("version", version),
		logging.Duration("harvest_interval", cfg.Worker.PollInterval),
		logging.Int("min_new_pairs", cfg.Training.MinPairs),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && ctx.Err() == nil {
		logger.Error("worker exited with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
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
	trainLock := redis.NewMutex(redisClient, trainLockName, trainLockTTL)

	producer, err := kafka.NewProducer(cfg.Kafka, "worker", logger)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	defer producer.Close()

	collector := prometheus.NewMetricsCollector(prometheus.CollectorConfig{}, logger)
	metrics := prometheus.NewAppMetrics(collector)

	articleRepo := repositories.NewArticleRepository(pool.Pool(), logger)
	pairRepo := repositories.NewPairRepository(pool.Pool(), logger)
	modelRepo := repositories.NewModelRepository(pool.Pool(), logger)

	trainer := training.NewTrainer(training.Config{Seed: cfg.Training.Seed}, logger)
	modelSvc := model.NewService(trainer, nil, pairRepo, modelRepo, producer, metrics, cfg.Training, logger)

	extractor := extraction.NewExtractor(extraction.DefaultConfig(), metrics, logger)
	harvester := pubmed.NewClient(cfg.PubMed, logger)
	ingestSvc := ingest.NewService(articleRepo, pairRepo, extractor, nil, harvester, producer, metrics, logger)

	pipeline := ingest.NewPipeline(ingestSvc, modelSvc, pairRepo, trainLock, ingest.PipelineConfig{
		MinNewPairs:     cfg.Training.MinPairs,
		HarvestInterval: cfg.Worker.PollInterval,
	}, logger)

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.TopicArticleIngested, pipeline.HandleEvent, logger)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer consumer.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		return pipeline.RunLoop(gctx)
	})

	return g.Wait()
}

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
