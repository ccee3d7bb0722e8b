package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/ports"
)

// Learner turns manual categorizations into rules for future imports
type Learner struct {
	tx    ports.Transactor
	rules *RuleStore
}

func NewLearner(tx ports.Transactor, rules *RuleStore) *Learner {
	return &Learner{tx: tx, rules: rules}
}

// Learn sets the transaction's category and upserts a rule keyed on its
// merchant name, or on its full description when there is no merchant.
// Everything happens in one transaction.
func (l *Learner) Learn(ctx context.Context, transactionID, categoryID, userID int64) error {
	var learned *core.CategorizationRule

	err := l.tx.InTx(ctx, func(repo ports.Repository) error {
		t, err := repo.GetTransaction(ctx, userID, transactionID)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", transactionID, err)
		}

		if _, err := repo.GetCategory(ctx, userID, categoryID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("category %d: %w", categoryID, core.ErrInvalidCategory)
			}
			return fmt.Errorf("check category: %w", err)
		}

		if err := repo.UpdateTransactionCategory(ctx, userID, transactionID, &categoryID); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		var merchant, pattern *string
		switch {
		case core.Present(t.MerchantName):
			merchant = t.MerchantName
		case strings.TrimSpace(t.Description) != "":
			pattern = &t.Description
		default:
			return nil
		}

		r, err := l.rules.Upsert(ctx, repo, userID, categoryID, merchant, pattern)
		if err != nil {
			return fmt.Errorf("upsert rule: %w", err)
		}
		learned = &r
		return nil
	})
	if err != nil {
		return fmt.Errorf("learn category: %w", err)
	}

	if learned != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogRuleLearned(ctx,
			userID, learned.ID, categoryID, core.Deref(learned.MerchantName), core.Deref(learned.DescriptionPattern))
	}
	return nil
}
