// Package http exposes the budget services as a JSON API under /api.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"budget/internal/amqp"
	applog "budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/ports"
	"budget/internal/services"
)

// ImportQueue accepts bank import jobs for the worker
type ImportQueue interface {
	PublishImportRequest(ctx context.Context, msg *amqp.ImportRequestMessage) error
}

// Services bundles what the handlers call. BankSync and Queue are optional;
// leave them nil when bank access or the queue is not configured.
type Services struct {
	Store        ports.Store
	Matcher      *services.Matcher
	Learner      *services.Learner
	Rules        *services.RuleStore
	Filters      *services.FilterService
	Planning     *services.PlanningService
	Rare         *services.RareExpenseService
	Transactions *services.TransactionService
	Importer     *services.Importer
	BankSync     *services.BankSync
	Queue        ImportQueue
}

type Config struct {
	Addr              string
	JWTSecret         string
	RequestsPerMinute int
	Logger            *applog.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

type Server struct {
	http.Server
	svc     Services
	now     func() time.Time
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run http.Server
func NewServer(cfg Config, svc Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ips, err := security.NewIPResolver()
	if err != nil {
		panic(err)
	}

	s := &Server{
		svc:     svc,
		now:     now,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RequestsPerMinute}),
		tracer:  trace.NewMiddleware(logger.WithComponent(applog.ComponentHTTP), ips.ClientIP),
	}
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(logger, []byte(cfg.JWTSecret), ips),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(logger *applog.Logger, secret []byte, ips *security.IPResolver) http.Handler {
	r := chi.NewRouter()
	r.Use(applog.Middleware(logger))
	r.Use(s.tracer.Middleware)
	r.Use(trace.RequestLogger)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(secret))
			r.Use(s.limiter.Middleware(func(r *http.Request) string {
				return ips.ClientIP(r)
			}, func(w http.ResponseWriter, r *http.Request) {
				ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
			}))

			// Transactions
			r.Get("/transactions", s.handleListTransactions)
			r.Get("/transactions/summary", s.handleTransactionSummary)

			// Categorization
			r.Post("/transactions/categorize", s.handleCategorizePreview)
			r.Post("/transactions/{id}/category", s.handleLearnCategory)
			r.Get("/rules", s.handleListRules)
			r.Put("/rules", s.handleUpsertRule)

			// Filters
			r.Get("/filter-rules", s.handleListFilterRules)
			r.Post("/filter-rules", s.handleCreateFilterRule)
			r.Post("/filter-rules/check", s.handleCheckFilter)
			r.Patch("/filter-rules/{id}", s.handleUpdateFilterRule)
			r.Delete("/filter-rules/{id}", s.handleDeleteFilterRule)

			// Planning
			r.Get("/categories", s.handleListCategories)
			r.Post("/categories", s.handleCreateCategory)
			r.Get("/main-categories", s.handleListMainCategories)
			r.Post("/main-categories", s.handleCreateMainCategory)
			r.Get("/main-categories/{id}", s.handleGetMainCategory)
			r.Post("/main-categories/{id}/categories/{categoryID}", s.handleAddToMainCategory)
			r.Delete("/main-categories/{id}/categories/{categoryID}", s.handleRemoveFromMainCategory)
			r.Get("/plans", s.handleListPlans)
			r.Post("/plans", s.handleEnsurePlan)
			r.Get("/plans/rare-expenses-summary", s.handleRareExpensesSummary)
			r.Get("/plans/{id}/category-limits", s.handleListCategoryLimits)
			r.Put("/plans/{id}/category-limits", s.handleSetCategoryLimit)
			r.Delete("/plans/{id}/categories/{categoryID}", s.handleDeleteCategoryLimit)

			// Imports
			r.Post("/imports/csv", s.handleImportCSV)
			r.Get("/bank/connections", s.handleListBankConnections)
			r.Post("/bank/connections", s.handleConnectBank)
			r.Post("/bank/connections/{id}/refresh", s.handleRefreshConnection)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

// Metrics returns request counters collected by the trace middleware
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// Shutdown stops background goroutines and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
