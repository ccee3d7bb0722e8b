package services

import (
	"context"
	"fmt"

	"budget/internal/core"
	"budget/internal/ports"
)

// FilterService evaluates and manages transaction filter rules
type FilterService struct {
	store ports.Store
}

func NewFilterService(store ports.Store) *FilterService {
	return &FilterService{store: store}
}

// ShouldSkip reports whether any active rule of the user matches the candidate
func (s *FilterService) ShouldSkip(ctx context.Context, userID int64, c core.FilterCandidate) (bool, error) {
	rules, err := s.store.ListFilterRules(ctx, userID, true)
	if err != nil {
		return false, fmt.Errorf("load filter rules: %w", err)
	}
	return shouldSkip(rules, c), nil
}

func shouldSkip(rules []core.FilterRule, c core.FilterCandidate) bool {
	for _, r := range rules {
		if r.IsActive && r.Matches(c) {
			return true
		}
	}
	return false
}

func (s *FilterService) ListRules(ctx context.Context, userID int64) ([]core.FilterRule, error) {
	rules, err := s.store.ListFilterRules(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("list filter rules: %w", err)
	}
	return rules, nil
}

// CreateRule stores a new active rule. Blank text criteria count as absent.
func (s *FilterService) CreateRule(ctx context.Context, userID int64, r core.FilterRule) (core.FilterRule, error) {
	r.ID = 0
	r.UserID = userID
	r.IsActive = true
	r.DescriptionPattern = core.StrPtr(core.Deref(r.DescriptionPattern))
	r.MerchantName = core.StrPtr(core.Deref(r.MerchantName))
	if err := r.Validate(); err != nil {
		return core.FilterRule{}, err
	}

	created, err := s.store.CreateFilterRule(ctx, r)
	if err != nil {
		return core.FilterRule{}, fmt.Errorf("create filter rule: %w", err)
	}
	return created, nil
}

// UpdateRule applies a partial update and re-validates the result
func (s *FilterService) UpdateRule(ctx context.Context, userID, id int64, patch core.FilterRulePatch) (core.FilterRule, error) {
	var updated core.FilterRule
	err := s.store.InTx(ctx, func(repo ports.Repository) error {
		current, err := repo.GetFilterRule(ctx, userID, id)
		if err != nil {
			return err
		}
		next := current.Apply(patch)
		if err := next.Validate(); err != nil {
			return err
		}
		updated, err = repo.UpdateFilterRule(ctx, next)
		return err
	})
	if err != nil {
		return core.FilterRule{}, fmt.Errorf("update filter rule %d: %w", id, err)
	}
	return updated, nil
}

func (s *FilterService) DeleteRule(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteFilterRule(ctx, userID, id); err != nil {
		return fmt.Errorf("delete filter rule %d: %w", id, err)
	}
	return nil
}
