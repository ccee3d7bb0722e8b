// Package cli holds the startup steps shared by cmd/budget and cmd/budget-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budget/internal/backend"
	"budget/internal/bank"
	"budget/internal/bank/plaid"
	"budget/internal/cache"
	"budget/internal/config"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/ports"
	"budget/internal/services"
)

// LoadEnvFile loads .env for local development. A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from cfg and makes it the slog default
func SetupLogger(cfg *config.Config) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger
}

// MustValidate exits the process when validate reports a problem
func MustValidate(logger *applog.Logger, validate func() error) {
	if err := validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
}

// OpenBackend opens the configured store and, when configured, the import queue.
// It exits the process on failure.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// NewBankProvider returns the Plaid provider, or nil when no credentials are configured
func NewBankProvider(cfg *config.Config) (bank.Provider, error) {
	if !cfg.BankEnabled() {
		return nil, nil
	}
	client, err := plaid.NewClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv)
	if err != nil {
		return nil, fmt.Errorf("plaid client: %w", err)
	}
	return plaid.New(client), nil
}

// Services is the wired service layer. BankSync is nil without a bank provider.
type Services struct {
	Rules        *services.RuleStore
	Matcher      *services.Matcher
	Learner      *services.Learner
	Filters      *services.FilterService
	Planning     *services.PlanningService
	Rare         *services.RareExpenseService
	Transactions *services.TransactionService
	Importer     *services.Importer
	BankSync     *services.BankSync

	// Caches is non-nil when summary caching is enabled; call Stop on shutdown
	Caches *cache.Manager
}

// BuildServices wires every service on top of store. provider may be nil.
func BuildServices(cfg *config.Config, store ports.Store, provider bank.Provider) *Services {
	var (
		summaries cache.Cache[core.RareExpensesSummary]
		manager   *cache.Manager
	)
	if cfg.SummaryCacheSize > 0 {
		lru := cache.NewLRUCache[core.RareExpensesSummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
		manager = cache.NewManager()
		manager.Register(lru)
		manager.StartCleanup(cfg.SummaryCacheTTL)
		summaries = lru
	}

	rules := services.NewRuleStore()
	matcher := services.NewMatcher()
	rare := services.NewRareExpenseService(store, summaries)
	importer := services.NewImporter(store, matcher, rules, services.ImportOptions{
		SkipIncome:       cfg.ImportSkipIncome,
		CreateCategories: cfg.ImportCreateCategories,
	})
	importer.OnCategoriesChanged(rare.Invalidate)

	s := &Services{
		Rules:        rules,
		Matcher:      matcher,
		Learner:      services.NewLearner(store, rules),
		Filters:      services.NewFilterService(store),
		Planning:     services.NewPlanningService(store, rare),
		Rare:         rare,
		Transactions: services.NewTransactionService(store),
		Importer:     importer,
		Caches:       manager,
	}
	if provider != nil {
		s.BankSync = services.NewBankSync(store, provider, importer, cfg.SyncConcurrency)
	}
	return s
}

// Close stops background cache cleanup
func (s *Services) Close() {
	if s.Caches != nil {
		s.Caches.Stop()
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
