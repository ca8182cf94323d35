package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"registro/internal/amqp"
	"registro/internal/config"
	"registro/internal/ingest"
	"registro/internal/ledger"
	"registro/internal/log"
	"registro/internal/mail/gmail"
	"registro/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: "registro-sync",
	})
	log.SetDefault(logger)

	logger.Info("Starting registro-sync")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := ledger.Open(ledger.Config{
		Backend:    cfg.LedgerBackend,
		CSVPath:    cfg.CSVPath,
		SQLitePath: cfg.SQLiteDBPath,
	})
	if err != nil {
		logger.Error("Failed to open ledger", "error", err, "backend", cfg.LedgerBackend)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, err := gmail.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Gmail client", "error", err)
		os.Exit(1)
	}

	// AMQP events are optional; an empty URL disables them.
	var events ingest.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		events = amqpClient
		logger.Info("AMQP events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP events disabled - no AMQP_URL provided")
	}

	syncer := ingest.NewSyncer(source, store, events, ingest.Config{
		Sender:           cfg.SyncSender,
		SubjectMarker:    cfg.SyncSubjectMarker,
		DescriptionLabel: cfg.SyncDescription,
		SyncLabel:        cfg.SyncLabel,
		FetchConcurrency: cfg.FetchConcurrency,
	})

	runner := worker.NewRunner(syncer, worker.Config{
		Interval:     cfg.SyncInterval,
		PollInterval: cfg.SyncPollInterval,
	})
	if err := runner.Start(ctx); err != nil {
		logger.Error("Failed to start sync runner", "error", err)
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("Received shutdown signal", "signal", sig)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := runner.Stop(stopCtx); err != nil {
		logger.Error("Sync runner shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("registro-sync stopped")
}
