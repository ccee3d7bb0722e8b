package services

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/core"
	"budget/internal/ports"
)

// MatchResult reports the outcome of categorizing one transaction
type MatchResult struct {
	CategoryID *int64
	RuleID     int64
	Kind       MatchKind
}

func (r MatchResult) Matched() bool {
	return r.Kind != MatchNone
}

var noMatch = MatchResult{Kind: MatchNone}

// Matcher assigns categories to transaction drafts from the user's rules
type Matcher struct {
	lookups []RuleLookup
}

func NewMatcher(lookups ...RuleLookup) *Matcher {
	if len(lookups) == 0 {
		lookups = DefaultLookups()
	}
	return &Matcher{lookups: lookups}
}

// Match sets draft.CategoryID from the first matching rule of draft's user.
// Nothing else on the draft is touched and nothing is persisted. A draft
// without a user is left alone.
func (m *Matcher) Match(ctx context.Context, repo ports.RuleRepository, draft *core.Transaction) (MatchResult, error) {
	if draft == nil || draft.UserID == 0 {
		return noMatch, nil
	}

	for _, l := range m.lookups {
		rule, ok, err := l.Lookup(ctx, repo, draft)
		if err != nil {
			return noMatch, fmt.Errorf("match %s: %w", l.Kind(), err)
		}
		if !ok {
			continue
		}

		categoryID := rule.CategoryID
		draft.CategoryID = &categoryID
		slog.DebugContext(ctx, "Transaction categorized",
			"user_id", draft.UserID,
			"rule_id", rule.ID,
			"category_id", categoryID,
			"match_kind", l.Kind())
		return MatchResult{CategoryID: &categoryID, RuleID: rule.ID, Kind: l.Kind()}, nil
	}

	return noMatch, nil
}
