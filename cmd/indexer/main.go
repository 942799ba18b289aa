// Index builder for placesense. Reads the eligible place corpus from
// Postgres, embeds each description via the configured OpenAI-compatible
// endpoint, and replaces the snapshot wholesale. Run out-of-band (CLI or
// scheduled task); one build at a time.
//
// Usage:
//
//	ENV=prod indexer [-dsn postgres://...]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wandervn/placesense/internal/config"
	dbRedis "github.com/wandervn/placesense/internal/db/redis"
	logpkg "github.com/wandervn/placesense/internal/logger"
	"github.com/wandervn/placesense/internal/repository/corpus"
	"github.com/wandervn/placesense/internal/repository/snapshot"
	openaiEmb "github.com/wandervn/placesense/internal/transport/openai"
	indexuc "github.com/wandervn/placesense/internal/usecase/index"
	"github.com/wandervn/placesense/internal/version"
)

func main() {
	dsnFlag := flag.String("dsn", "", "corpus database DSN (overrides config corpus.dsn)")
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if *dsnFlag != "" {
		cfg.Corpus.DSN = *dsnFlag
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("build failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	start := time.Now()

	logger.Info("Starting index build",
		zap.String("version", version.Version),
		zap.String("snapshot_driver", cfg.Snapshot.Driver),
		zap.String("model", cfg.Embedding.Model),
	)

	if cfg.Corpus.DSN == "" {
		return fmt.Errorf("corpus.dsn is required (config or -dsn flag)")
	}

	reader, err := corpus.NewPostgresReader(cfg.Corpus.DSN)
	if err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	defer func() { _ = reader.Close() }()

	store, cleanup, err := newSnapshotWriter(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	builder := indexuc.New(reader, store, embedder)

	report, err := builder.Build(ctx)
	if err != nil {
		if indexuc.IsEmptyBuild(err) {
			logger.Error("every item failed to embed, previous snapshot preserved",
				zap.Int("failed", report.Failed))
		}
		return fmt.Errorf("build: %w", err)
	}

	logger.Info("Build complete",
		zap.Int("written", report.Written),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Duration("elapsed", time.Since(start).Round(time.Second)),
	)
	return nil
}

// newSnapshotWriter creates the snapshot store for the configured driver.
func newSnapshotWriter(ctx context.Context, cfg config.Config) (indexuc.SnapshotWriter, func(), error) {
	switch cfg.Snapshot.Driver {
	case "file":
		return snapshot.NewFileStore(cfg.Snapshot.Path), func() {}, nil
	case "redis":
		kv, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Snapshot.Addrs,
			Password: cfg.Snapshot.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		readiness := time.Duration(cfg.Snapshot.ReadinessTimeout) * time.Second
		if err := kv.WaitForReady(ctx, readiness); err != nil {
			kv.Close()
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		return snapshot.NewRedisStore(kv, cfg.Snapshot.Key), kv.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot driver %q", cfg.Snapshot.Driver)
	}
}
