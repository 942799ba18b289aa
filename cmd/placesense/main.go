package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/wandervn/placesense/internal/config"
	dbRedis "github.com/wandervn/placesense/internal/db/redis"
	logpkg "github.com/wandervn/placesense/internal/logger"
	"github.com/wandervn/placesense/internal/metrics"
	"github.com/wandervn/placesense/internal/repository/snapshot"
	chiTransport "github.com/wandervn/placesense/internal/transport/chi"
	openaiEmb "github.com/wandervn/placesense/internal/transport/openai"
	healthuc "github.com/wandervn/placesense/internal/usecase/health"
	searchuc "github.com/wandervn/placesense/internal/usecase/search"
	"github.com/wandervn/placesense/internal/version"
)

// snapshotStore is what the serving path needs from snapshot storage.
type snapshotStore interface {
	searchuc.SnapshotLoader
	healthuc.StorePinger
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting placesense search server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("snapshot_driver", cfg.Snapshot.Driver),
	)

	ctx := context.Background()

	store, cleanup, err := newSnapshotStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create snapshot store", zap.Error(err))
	}
	defer cleanup()

	metrics.Register()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	searchSvc := searchuc.New(store, embedder, searchuc.NewBruteForceRanker()).
		WithDefaultTopK(cfg.Search.DefaultTopK)
	healthSvc := healthuc.New(store, embedder)

	server := chiTransport.NewServer(searchSvc, embedder, healthSvc, cfg.Search.MaxTopK, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newSnapshotStore creates the snapshot store for the configured driver.
func newSnapshotStore(ctx context.Context, cfg config.Config) (snapshotStore, func(), error) {
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
		return &redisSnapshotStore{
			RedisStore: snapshot.NewRedisStore(kv, cfg.Snapshot.Key),
			pinger:     kv,
		}, kv.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot driver %q", cfg.Snapshot.Driver)
	}
}

// redisSnapshotStore pairs the snapshot repo with the connection's pinger.
type redisSnapshotStore struct {
	*snapshot.RedisStore
	pinger healthuc.StorePinger
}

func (s *redisSnapshotStore) Ping(ctx context.Context) error {
	return s.pinger.Ping(ctx) //nolint:wrapcheck // delegating
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
