// Package services provides the business logic on top of the storage ports.
//
// This file implements the rule lookups used by the categorization matcher.
// Each lookup encapsulates one way of finding a rule for a transaction; the
// matcher tries them in priority order and the first hit wins.

package services

import (
	"context"
	"errors"
	"strings"

	"budget/internal/core"
	"budget/internal/ports"
)

// MatchKind tells which lookup produced a match
type MatchKind string

const (
	MatchNone                 MatchKind = "none"
	MatchMerchant             MatchKind = "merchant"
	MatchDescriptionExact     MatchKind = "description_exact"
	MatchDescriptionSubstring MatchKind = "description_substring"
)

// RuleLookup is the strategy interface for finding a categorization rule.
type RuleLookup interface {
	Kind() MatchKind
	// Lookup returns the matching rule, or ok=false when none applies.
	Lookup(ctx context.Context, repo ports.RuleRepository, draft *core.Transaction) (rule core.CategorizationRule, ok bool, err error)
}

// MerchantLookup matches the stored merchant name exactly, case-sensitive.
type MerchantLookup struct{}

func (MerchantLookup) Kind() MatchKind { return MatchMerchant }

func (MerchantLookup) Lookup(ctx context.Context, repo ports.RuleRepository, draft *core.Transaction) (core.CategorizationRule, bool, error) {
	if !core.Present(draft.MerchantName) {
		return core.CategorizationRule{}, false, nil
	}
	return found(repo.FindRuleByMerchant(ctx, draft.UserID, *draft.MerchantName))
}

// ExactDescriptionLookup matches a pattern equal to the whole description.
type ExactDescriptionLookup struct{}

func (ExactDescriptionLookup) Kind() MatchKind { return MatchDescriptionExact }

func (ExactDescriptionLookup) Lookup(ctx context.Context, repo ports.RuleRepository, draft *core.Transaction) (core.CategorizationRule, bool, error) {
	if strings.TrimSpace(draft.Description) == "" {
		return core.CategorizationRule{}, false, nil
	}
	return found(repo.FindRuleByDescription(ctx, draft.UserID, draft.Description))
}

// SubstringDescriptionLookup returns the oldest rule whose pattern occurs in the description.
type SubstringDescriptionLookup struct{}

func (SubstringDescriptionLookup) Kind() MatchKind { return MatchDescriptionSubstring }

func (SubstringDescriptionLookup) Lookup(ctx context.Context, repo ports.RuleRepository, draft *core.Transaction) (core.CategorizationRule, bool, error) {
	if draft.Description == "" {
		return core.CategorizationRule{}, false, nil
	}
	rules, err := repo.ListDescriptionRules(ctx, draft.UserID)
	if err != nil {
		return core.CategorizationRule{}, false, err
	}
	for _, r := range rules {
		if core.Present(r.DescriptionPattern) && strings.Contains(draft.Description, *r.DescriptionPattern) {
			return r, true, nil
		}
	}
	return core.CategorizationRule{}, false, nil
}

func found(r core.CategorizationRule, err error) (core.CategorizationRule, bool, error) {
	switch {
	case err == nil:
		return r, true, nil
	case errors.Is(err, core.ErrNotFound):
		return core.CategorizationRule{}, false, nil
	default:
		return core.CategorizationRule{}, false, err
	}
}

// DefaultLookups is the matching priority order
func DefaultLookups() []RuleLookup {
	return []RuleLookup{
		MerchantLookup{},
		ExactDescriptionLookup{},
		SubstringDescriptionLookup{},
	}
}
