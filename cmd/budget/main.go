package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"budget/internal/cli"
	"budget/internal/config"
	apphttp "budget/internal/http"
	applog "budget/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg)
	cli.MustValidate(logger, cfg.Validate)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
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

	provider, err := cli.NewBankProvider(cfg)
	if err != nil {
		return fmt.Errorf("init bank provider: %w", err)
	}
	if provider == nil {
		logger.Info("Bank provider disabled - no PLAID_CLIENT_ID provided")
	}

	svc := cli.BuildServices(cfg, be.Store, provider)
	defer svc.Close()

	deps := apphttp.Services{
		Store:        be.Store,
		Matcher:      svc.Matcher,
		Learner:      svc.Learner,
		Rules:        svc.Rules,
		Filters:      svc.Filters,
		Planning:     svc.Planning,
		Rare:         svc.Rare,
		Transactions: svc.Transactions,
		Importer:     svc.Importer,
		BankSync:     svc.BankSync,
	}
	// a nil *amqp.Client must not become a non-nil interface
	if be.Queue != nil {
		deps.Queue = be.Queue
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:      ":" + cfg.Port,
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	}, deps)
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting budget server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"queue", be.Queue != nil,
			"bank", provider != nil)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
