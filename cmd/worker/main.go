package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/vetclinic-api/internal/config"
	"github.com/jwalitptl/vetclinic-api/internal/email"
	"github.com/jwalitptl/vetclinic-api/internal/handler/health"
	"github.com/jwalitptl/vetclinic-api/internal/repository/postgres"
	"github.com/jwalitptl/vetclinic-api/internal/service/notification"
	"github.com/jwalitptl/vetclinic-api/internal/worker"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
	"github.com/jwalitptl/vetclinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/vetclinic-api/pkg/metrics"
	pkgworker "github.com/jwalitptl/vetclinic-api/pkg/worker"
)

func main() {
	cmd := &cobra.Command{
		Use:   "vetclinic-worker",
		Short: "Relay outbox events to Redis, send booking notices and purge delivered events",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, _ := cmd.Flags().GetStringSlice("config-path")
			port, _ := cmd.Flags().GetInt("health-port")
			cfg, err := config.LoadConfig(paths...)
			if err != nil {
				return err
			}
			return run(cfg, port)
		},
	}
	cmd.Flags().StringSlice("config-path", nil, "Directories searched for config.yaml")
	cmd.Flags().Int("health-port", 8081, "Port for health and metrics endpoints")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, healthPort int) error {
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		Format:     cfg.Log.Format,
		TimeFormat: time.RFC3339,
	})
	logger.SetGlobal(log)

	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("the worker needs the postgres driver, got %q", cfg.Database.Driver)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Zerolog())
	if err != nil {
		return err
	}
	defer broker.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("vetclinic_worker", reg)

	repos := postgres.NewSet(db)
	processor, err := pkgworker.NewOutboxProcessor(repos.Tx, repos.Outbox, broker, pkgworker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
	}, log, m)
	if err != nil {
		return err
	}
	notifier := notification.NewService(repos, email.NewService(cfg.SMTP, log), broker, log)
	cleanup := worker.NewOutboxCleanupWorker(repos.Outbox, cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, log, m)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(health.PingFunc(func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		return broker.Ping(ctx)
	}), reg).RegisterRoutes(&engine.RouterGroup)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", healthPort),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "health server failed")
			stop()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := notifier.Start(ctx); err != nil {
			log.Error(err, "notification service stopped")
		}
	}()
	if cfg.Outbox.Retention > 0 && cfg.Outbox.CleanupInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cleanup.Start(ctx)
		}()
	}

	log.Info("worker started", "health_port", healthPort, "batch_size", cfg.Outbox.BatchSize)
	<-ctx.Done()
	log.Info("shutting down worker")
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
