package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/ports"
)

// RareMainCategory is the main category grouping irregular expenses
const RareMainCategory = "rare"

type RareExpenseRepository interface {
	FindMainCategoryByName(ctx context.Context, userID int64, name string) (core.MainCategory, error)
	ListGroupLimits(ctx context.Context, userID, mainCategoryID int64, from, to core.YearMonth) ([]core.RareExpense, error)
}

// RareExpenseService projects rare expenses over the next twelve months
type RareExpenseService struct {
	repo  RareExpenseRepository
	cache cache.Cache[core.RareExpensesSummary]
}

var _ RareExpenseRepository = (ports.Repository)(nil)

// NewRareExpenseService creates the service. summaries may be nil to disable caching.
func NewRareExpenseService(repo RareExpenseRepository, summaries cache.Cache[core.RareExpensesSummary]) *RareExpenseService {
	return &RareExpenseService{repo: repo, cache: summaries}
}

func cacheUserPrefix(userID int64) string {
	return fmt.Sprintf("rare:%d:", userID)
}

// Summary returns the rare expenses due in the window starting at asOf's month
// and the monthly savings that cover each of them by its due month
func (s *RareExpenseService) Summary(ctx context.Context, userID int64, asOf time.Time) (core.RareExpensesSummary, error) {
	window := core.NewWindow(asOf, core.WindowMonths)
	key := cacheUserPrefix(userID) + window[0].String()

	if s.cache != nil {
		if summary, ok := s.cache.Get(key); ok {
			return summary.Clone(), nil
		}
	}

	var summary core.RareExpensesSummary
	group, err := s.repo.FindMainCategoryByName(ctx, userID, RareMainCategory)
	switch {
	case errors.Is(err, core.ErrNotFound):
		summary = core.RareExpensesSummary{Expenses: []core.RareExpense{}, Suggestions: []core.SavingsSuggestion{}}
	case err != nil:
		return core.RareExpensesSummary{}, fmt.Errorf("find rare main category: %w", err)
	default:
		items, err := s.repo.ListGroupLimits(ctx, userID, group.ID, window[0], window[len(window)-1])
		if err != nil {
			return core.RareExpensesSummary{}, fmt.Errorf("list rare limits: %w", err)
		}
		summary = core.ProjectRareExpenses(window, items)
	}

	if s.cache != nil {
		s.cache.Set(key, summary.Clone())
	}
	return summary, nil
}

// Invalidate drops every cached summary of the user
func (s *RareExpenseService) Invalidate(userID int64) {
	if s.cache != nil {
		s.cache.DeletePrefix(cacheUserPrefix(userID))
	}
}
