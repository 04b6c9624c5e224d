package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"satu-amo-bridge/internal/amocrm"
	"satu-amo-bridge/internal/api"
	"satu-amo-bridge/internal/common/config"
	"satu-amo-bridge/internal/common/database"
	"satu-amo-bridge/internal/common/logger"
	"satu-amo-bridge/internal/common/observability"
	"satu-amo-bridge/internal/credentials"
	"satu-amo-bridge/internal/satu"
	syncsvc "satu-amo-bridge/internal/sync"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting sync manager...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Clients and components ---
	amoClient := amocrm.NewClient(time.Duration(cfg.Amo.RequestTimeoutSeconds) * time.Second)
	satuClient := satu.NewClient(time.Duration(cfg.Satu.RequestTimeoutSeconds) * time.Second)

	store := credentials.NewStore(pg.DB, amoClient, log)
	if err := store.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("schema bootstrap failed", zap.Error(err))
	}

	checkpoint := syncsvc.NewTracker(rdb.Client, cfg.Sync.CheckpointKey)
	events := syncsvc.NewEventLog(cfg.Sync.EventLogPath)

	task := syncsvc.NewTask(syncsvc.TaskDependencies{
		Store:      store,
		Source:     satuClient,
		Dest:       amoClient,
		Checkpoint: checkpoint,
		Events:     events,
		Logger:     log,
	})

	scheduler := syncsvc.NewScheduler(
		task,
		time.Duration(cfg.Sync.IntervalMinutes)*time.Minute,
		time.Duration(cfg.Sync.CycleTimeoutSeconds)*time.Second,
		log,
		obs,
	)
	scheduler.Start()

	// --- Metrics endpoint ---
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		zapLog.Info("metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	// --- Administrative API ---
	handler := api.NewHandler(store, events, log)
	router := api.NewRouter(handler)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}
	go func() {
		zapLog.Info("admin API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("admin API failed", zap.Error(err))
		}
	}()

	// --- Wait for shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("Shutting down...")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("admin API shutdown failed", zap.Error(err))
	}

	zapLog.Info("Sync manager stopped")
}
