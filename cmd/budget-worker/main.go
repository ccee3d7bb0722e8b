package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"budget/internal/cli"
	"budget/internal/config"
	applog "budget/internal/log"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg).WithComponent(applog.ComponentWorker)
	cli.MustValidate(logger, cfg.ValidateWorker)

	logger.Info("Starting budget-worker")
	if err := run(cfg, logger); err != nil {
		logger.Error("Worker error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()
	if be.Queue == nil {
		return errors.New("AMQP broker unreachable, nothing to consume")
	}

	provider, err := cli.NewBankProvider(cfg)
	if err != nil {
		return fmt.Errorf("init bank provider: %w", err)
	}

	svc := cli.BuildServices(cfg, be.Store, provider)
	defer svc.Close()

	w := worker.NewImportWorker(svc.BankSync, cfg.ImportTimeout)

	logger.Info("Consuming import requests", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	err = be.Queue.ConsumeImportRequests(ctx, w.HandleImportRequest)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume import requests: %w", err)
	}
	return nil
}
