package services

import (
	"context"
	"fmt"
	"time"

	"budget/internal/core"
	"budget/internal/ports"
)

const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 500
)

type TransactionReader interface {
	ListTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error)
	SumByCategory(ctx context.Context, userID int64, from, to core.Date) ([]core.CategoryAmount, error)
}

var _ TransactionReader = (ports.Repository)(nil)

// TransactionService answers read-side queries over stored transactions
type TransactionService struct {
	repo TransactionReader
}

func NewTransactionService(repo TransactionReader) *TransactionService {
	return &TransactionService{repo: repo}
}

// List returns the newest transactions first. A non-positive limit means
// DefaultTransactionLimit; larger limits are capped at MaxTransactionLimit.
func (s *TransactionService) List(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	switch {
	case limit <= 0:
		limit = DefaultTransactionLimit
	case limit > MaxTransactionLimit:
		limit = MaxTransactionLimit
	}
	txs, err := s.repo.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Summary totals the user's transactions per category over the period
// containing asOf, keeping the top categories when top is positive
func (s *TransactionService) Summary(ctx context.Context, userID int64, period core.Period, asOf time.Time, top int) (core.SpendingSummary, error) {
	if top < 0 {
		return core.SpendingSummary{}, fmt.Errorf("%w: top must not be negative", core.ErrValidation)
	}
	from, to := period.Range(asOf)
	byCategory, err := s.repo.SumByCategory(ctx, userID, from, to)
	if err != nil {
		return core.SpendingSummary{}, fmt.Errorf("summarize transactions: %w", err)
	}
	return core.Summarize(period, from, to, byCategory, top), nil
}
