// The worker binary consumes asynchronous ChEMBL fetch jobs from Kafka and
// ingests the resulting datasets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	datasetapp "github.com/moleculab/sarscope/internal/application/dataset"
	ingestapp "github.com/moleculab/sarscope/internal/application/ingest"
	"github.com/moleculab/sarscope/internal/config"
	"github.com/moleculab/sarscope/internal/domain/compound"
	"github.com/moleculab/sarscope/internal/infrastructure/chembl"
	"github.com/moleculab/sarscope/internal/infrastructure/database/postgres"
	"github.com/moleculab/sarscope/internal/infrastructure/database/postgres/repositories"
	redisinfra "github.com/moleculab/sarscope/internal/infrastructure/database/redis"
	"github.com/moleculab/sarscope/internal/infrastructure/messaging/kafka"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/prometheus"
	miniostorage "github.com/moleculab/sarscope/internal/infrastructure/storage/minio"
)

func main() {
	configPath := flag.String("config", "", "config file path (environment only when empty)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		return err
	}
	logger = logger.Named("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()

	metrics := prometheus.NewMetrics()

	redisClient, err := redisinfra.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redisinfra.NewCache(redisClient, cfg.Redis, metrics, logger)

	store, err := miniostorage.NewObjectStorage(ctx, cfg.MinIO, logger)
	if err != nil {
		return fmt.Errorf("connecting to minio: %w", err)
	}

	producer := kafka.NewProducer(cfg.Kafka, logger)
	defer producer.Close()

	policy := compound.RuleOfFive{MaxViolations: cfg.Analysis.LipinskiMaxViolations}
	repo := repositories.NewDatasetRepository(pool, logger)
	datasetSvc := datasetapp.NewService(repo, store, cache, producer, metrics, policy, cfg.Analysis.CacheTTL, logger)

	chemblClient := chembl.NewClient(cfg.ChEMBL, logger)
	ingestSvc := ingestapp.NewService(chemblClient, datasetSvc, nil, metrics, logger)

	consumer := kafka.NewConsumer(cfg.Kafka, kafka.TopicFetchJobs, logger)
	defer consumer.Close()

	logger.Info("worker starting",
		logging.String("topic", kafka.TopicFetchJobs),
		logging.String("group", cfg.Kafka.GroupID))
	return consumer.Run(ctx, ingestSvc.HandleJob)
}
