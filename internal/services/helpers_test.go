package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/ports"
	"budget/internal/storage/memory"
)

const testUser int64 = 7

func str(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCategory(t *testing.T, s ports.Store, userID int64, name string) core.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), core.Category{UserID: userID, Name: name})
	if err != nil {
		t.Fatalf("CreateCategory(%q) error = %v", name, err)
	}
	return c
}

func mustRule(t *testing.T, s ports.Store, userID, categoryID int64, merchant, pattern *string) core.CategorizationRule {
	t.Helper()
	r, err := s.CreateRule(context.Background(), core.CategorizationRule{
		UserID:             userID,
		MerchantName:       merchant,
		DescriptionPattern: pattern,
		CategoryID:         categoryID,
	})
	if err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}
	return r
}

func mustTransaction(t *testing.T, s ports.Store, tx core.Transaction) core.Transaction {
	t.Helper()
	if tx.UserID == 0 {
		tx.UserID = testUser
	}
	if tx.OperationDate.IsZero() {
		tx.OperationDate = core.NewDate(2024, 3, 15)
	}
	created, err := s.CreateTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	return created
}

// failingStore wraps a store so that writes of one kind fail inside transactions
type failingStore struct {
	ports.Store
	failCreateRule bool
	failUpdateRule bool
	failCreateTx   error
}

type failingRepo struct {
	ports.Repository
	s *failingStore
}

var errBoom = errors.New("boom")

func (f *failingStore) InTx(ctx context.Context, fn func(repo ports.Repository) error) error {
	return f.Store.InTx(ctx, func(repo ports.Repository) error {
		return fn(&failingRepo{Repository: repo, s: f})
	})
}

func (r *failingRepo) Savepoint(ctx context.Context, fn func(repo ports.Repository) error) error {
	return r.Repository.Savepoint(ctx, func(repo ports.Repository) error {
		return fn(&failingRepo{Repository: repo, s: r.s})
	})
}

func (r *failingRepo) CreateRule(ctx context.Context, rule core.CategorizationRule) (core.CategorizationRule, error) {
	if r.s.failCreateRule {
		return core.CategorizationRule{}, errBoom
	}
	return r.Repository.CreateRule(ctx, rule)
}

func (r *failingRepo) UpdateRuleCategory(ctx context.Context, userID, ruleID, categoryID int64) (core.CategorizationRule, error) {
	if r.s.failUpdateRule {
		return core.CategorizationRule{}, errBoom
	}
	return r.Repository.UpdateRuleCategory(ctx, userID, ruleID, categoryID)
}

func (r *failingRepo) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if r.s.failCreateTx != nil {
		return core.Transaction{}, r.s.failCreateTx
	}
	return r.Repository.CreateTransaction(ctx, tx)
}
