package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/vetclinic-api/internal/app"
	"github.com/jwalitptl/vetclinic-api/internal/config"
	"github.com/jwalitptl/vetclinic-api/internal/email"
	"github.com/jwalitptl/vetclinic-api/internal/handler/health"
	"github.com/jwalitptl/vetclinic-api/internal/repository"
	"github.com/jwalitptl/vetclinic-api/internal/repository/memory"
	"github.com/jwalitptl/vetclinic-api/internal/repository/postgres"
	"github.com/jwalitptl/vetclinic-api/internal/service/notification"
	"github.com/jwalitptl/vetclinic-api/internal/worker"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
	"github.com/jwalitptl/vetclinic-api/pkg/messaging"
	"github.com/jwalitptl/vetclinic-api/pkg/tracer"
	pkgworker "github.com/jwalitptl/vetclinic-api/pkg/worker"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, _ := cmd.Flags().GetStringSlice("config-path")
			cfg, err := config.LoadConfig(paths...)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func newLogger(cfg config.LogConfig) *logger.Logger {
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		Format:     cfg.Format,
		TimeFormat: time.RFC3339,
	})
	logger.SetGlobal(log)
	return log
}

func runServer(cfg *config.Config) error {
	log := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error(err, "failed to shut down tracer")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var (
		repos *repository.Set
		db    health.Pinger
	)
	switch cfg.Database.Driver {
	case "memory":
		repos = memory.NewSet()
		log.Warn("using in-memory storage, data is lost on restart")
	default:
		sqlDB, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		repos = postgres.NewSet(sqlDB)
		db = sqlDB
	}

	a := app.New(cfg, app.Deps{
		Repos:    repos,
		DB:       db,
		Registry: reg,
		Logger:   log,
	})

	// Without a database there is no separate relay process, so the outbox
	// is drained in-process onto the log broker.
	if cfg.Database.Driver == "memory" {
		broker := messaging.NewLogBroker(log)
		defer broker.Close()

		processor, err := pkgworker.NewOutboxProcessor(repos.Tx, repos.Outbox, broker, pkgworker.OutboxProcessorConfig{
			BatchSize:    cfg.Outbox.BatchSize,
			PollInterval: cfg.Outbox.PollInterval,
			MaxAttempts:  cfg.Outbox.MaxAttempts,
		}, log, a.Metrics)
		if err != nil {
			return err
		}
		go processor.Start(ctx)

		notifier := notification.NewService(repos, email.NewService(cfg.SMTP, log), broker, log)
		go func() {
			if err := notifier.Start(ctx); err != nil {
				log.Error(err, "notification service stopped")
			}
		}()

		if cfg.Outbox.Retention > 0 && cfg.Outbox.CleanupInterval > 0 {
			cleanup := worker.NewOutboxCleanupWorker(repos.Outbox, cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, log, a.Metrics)
			go cleanup.Start(ctx)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           a.Router.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}
