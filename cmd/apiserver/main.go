// The apiserver binary runs the SARScope HTTP API with its full
// infrastructure: PostgreSQL, Redis, Kafka, MinIO, Prometheus metrics and
// the optional CSV drop-directory watcher.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	analysisapp "github.com/moleculab/sarscope/internal/application/analysis"
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
	"github.com/moleculab/sarscope/internal/infrastructure/watcher"
	apihttp "github.com/moleculab/sarscope/internal/interfaces/http"
	"github.com/moleculab/sarscope/internal/interfaces/http/handlers"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

func main() {
	configPath := flag.String("config", "", "config file path (environment only when empty)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────
	// Infrastructure
	// ─────────────────────────────────────────────────────────────────────

	if err := postgres.Migrate(cfg.Database, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
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

	// ─────────────────────────────────────────────────────────────────────
	// Application services
	// ─────────────────────────────────────────────────────────────────────

	policy := compound.RuleOfFive{MaxViolations: cfg.Analysis.LipinskiMaxViolations}
	repo := repositories.NewDatasetRepository(pool, logger)

	datasetSvc := datasetapp.NewService(repo, store, cache, producer, metrics, policy, cfg.Analysis.CacheTTL, logger)
	analysisSvc := analysisapp.NewService(repo, cache, store, metrics, cfg.Analysis.NeighborDefaultK, cfg.Analysis.CacheTTL, logger)

	chemblClient := chembl.NewClient(cfg.ChEMBL, logger)
	ingestSvc := ingestapp.NewService(chemblClient, datasetSvc, producer, metrics, logger)

	if configPath != "" {
		// Hot reload of the tunable analysis settings; infrastructure
		// endpoints stay fixed for the process lifetime.
		if _, err := config.Watch(configPath, func(next *config.Config) {
			datasetSvc.UpdateSettings(
				compound.RuleOfFive{MaxViolations: next.Analysis.LipinskiMaxViolations},
				next.Analysis.CacheTTL,
			)
			analysisSvc.UpdateSettings(next.Analysis.NeighborDefaultK, next.Analysis.CacheTTL)
			logger.Info("configuration reloaded",
				logging.Int("lipinski_max_violations", next.Analysis.LipinskiMaxViolations),
				logging.Int("neighbor_default_k", next.Analysis.NeighborDefaultK),
				logging.Duration("analysis_cache_ttl", next.Analysis.CacheTTL))
		}, func(err error) {
			logger.Warn("config reload rejected", logging.Err(err))
		}); err != nil {
			return fmt.Errorf("watching config: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────
	// HTTP interface
	// ─────────────────────────────────────────────────────────────────────

	health := handlers.NewHealthHandler(
		handlers.CheckFunc{CheckName: "postgres", Fn: pool.Ping},
		handlers.CheckFunc{CheckName: "redis", Fn: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
	)

	router := apihttp.NewRouter(cfg.Server, apihttp.RouterDeps{
		Datasets: handlers.NewDatasetHandler(datasetSvc, cfg.Server.MaxUploadBytes),
		Analysis: handlers.NewAnalysisHandler(analysisSvc),
		Ingest:   handlers.NewIngestHandler(ingestSvc),
		Health:   health,
		Metrics:  metrics,
		Logger:   logger,
	})
	server := apihttp.NewServer(cfg.Server, router, logger)

	if cfg.Watch.Enabled {
		w := watcher.New(cfg.Watch, func(ctx context.Context, name string, data []byte) error {
			_, err := datasetSvc.IngestCSV(ctx, name, data, compoundtypes.SourceWatch)
			return err
		}, logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("watcher stopped", logging.Err(err))
			}
		}()
	}

	logger.Info("apiserver starting",
		logging.Int("port", cfg.Server.Port),
		logging.Bool("watch_enabled", cfg.Watch.Enabled))
	return server.Run(ctx)
}
