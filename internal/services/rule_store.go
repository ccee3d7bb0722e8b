package services

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"
	"budget/internal/ports"
)

// RuleRepository is what the rule store needs from storage
type RuleRepository interface {
	ports.RuleRepository
	GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
}

// RuleStore implements find and create-or-update of categorization rules.
// It works on whatever repository it is given so callers choose the
// transaction boundary.
type RuleStore struct{}

func NewRuleStore() *RuleStore {
	return &RuleStore{}
}

// presentKey drops blank keys. Non-blank keys are kept byte for byte so
// the matcher compares against exactly what was stored.
func presentKey(s *string) *string {
	if !core.Present(s) {
		return nil
	}
	return s
}

// Find returns the rule keyed by merchant if one exists, else the rule keyed by
// description pattern. A nil rule with a nil error means no rule matched.
func (s *RuleStore) Find(ctx context.Context, repo ports.RuleRepository, userID int64, merchant, pattern *string) (*core.CategorizationRule, error) {
	merchant, pattern = presentKey(merchant), presentKey(pattern)

	if merchant != nil {
		r, err := repo.FindRuleByMerchant(ctx, userID, *merchant)
		switch {
		case err == nil:
			return &r, nil
		case !errors.Is(err, core.ErrNotFound):
			return nil, fmt.Errorf("find rule: %w", err)
		}
	}

	if pattern != nil {
		r, err := repo.FindRuleByDescription(ctx, userID, *pattern)
		switch {
		case err == nil:
			return &r, nil
		case !errors.Is(err, core.ErrNotFound):
			return nil, fmt.Errorf("find rule: %w", err)
		}
	}

	return nil, nil
}

// Upsert points the rule for merchant or pattern at categoryID, creating the
// rule when neither key is known yet.
func (s *RuleStore) Upsert(ctx context.Context, repo RuleRepository, userID, categoryID int64, merchant, pattern *string) (core.CategorizationRule, error) {
	merchant, pattern = presentKey(merchant), presentKey(pattern)
	if merchant == nil && pattern == nil {
		return core.CategorizationRule{}, core.ErrMissingCriterion
	}

	if _, err := repo.GetCategory(ctx, userID, categoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.CategorizationRule{}, fmt.Errorf("category %d: %w", categoryID, core.ErrInvalidCategory)
		}
		return core.CategorizationRule{}, fmt.Errorf("check category: %w", err)
	}

	existing, err := s.Find(ctx, repo, userID, merchant, pattern)
	if err != nil {
		return core.CategorizationRule{}, err
	}
	if existing != nil {
		if existing.CategoryID == categoryID {
			return *existing, nil
		}
		r, err := repo.UpdateRuleCategory(ctx, userID, existing.ID, categoryID)
		if err != nil {
			return core.CategorizationRule{}, fmt.Errorf("update rule: %w", err)
		}
		return r, nil
	}

	r, err := repo.CreateRule(ctx, core.CategorizationRule{
		UserID:             userID,
		MerchantName:       merchant,
		DescriptionPattern: pattern,
		CategoryID:         categoryID,
	})
	if err != nil {
		return core.CategorizationRule{}, fmt.Errorf("create rule: %w", err)
	}
	return r, nil
}
