package services

import (
	"context"
	"errors"
	"testing"

	"budget/internal/core"
)

func TestRuleStore_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a merchant rule", func(t *testing.T) {
		s := newStore(t)
		c := mustCategory(t, s, testUser, "Food")

		r, err := NewRuleStore().Upsert(ctx, s, testUser, c.ID, str(" Esselunga "), nil)
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if core.Deref(r.MerchantName) != " Esselunga " || r.DescriptionPattern != nil || r.CategoryID != c.ID {
			t.Errorf("Upsert() = %+v, want merchant rule stored as given for category %d", r, c.ID)
		}
	})

	t.Run("repoints an existing rule", func(t *testing.T) {
		s := newStore(t)
		food := mustCategory(t, s, testUser, "Food")
		home := mustCategory(t, s, testUser, "Home")
		existing := mustRule(t, s, testUser, food.ID, nil, str("IKEA"))

		r, err := NewRuleStore().Upsert(ctx, s, testUser, home.ID, nil, str("IKEA"))
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if r.ID != existing.ID || r.CategoryID != home.ID {
			t.Errorf("Upsert() = %+v, want rule %d pointing at %d", r, existing.ID, home.ID)
		}

		rules, _ := s.ListRules(ctx, testUser)
		if len(rules) != 1 {
			t.Errorf("ListRules() returned %d rules, want 1", len(rules))
		}
	})

	t.Run("same category is a no-op", func(t *testing.T) {
		s := newStore(t)
		c := mustCategory(t, s, testUser, "Food")
		existing := mustRule(t, s, testUser, c.ID, str("Coop"), nil)

		r, err := NewRuleStore().Upsert(ctx, s, testUser, c.ID, str("Coop"), nil)
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if !r.UpdatedAt.Equal(existing.UpdatedAt) {
			t.Errorf("Upsert() touched UpdatedAt: %v, want %v", r.UpdatedAt, existing.UpdatedAt)
		}
	})

	t.Run("merchant key is checked first", func(t *testing.T) {
		s := newStore(t)
		food := mustCategory(t, s, testUser, "Food")
		home := mustCategory(t, s, testUser, "Home")
		byMerchant := mustRule(t, s, testUser, food.ID, str("Coop"), nil)
		mustRule(t, s, testUser, food.ID, nil, str("COOP ITALIA"))

		r, err := NewRuleStore().Upsert(ctx, s, testUser, home.ID, str("Coop"), str("COOP ITALIA"))
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if r.ID != byMerchant.ID {
			t.Errorf("Upsert() updated rule %d, want merchant rule %d", r.ID, byMerchant.ID)
		}
	})

	errTests := []struct {
		name     string
		merchant *string
		pattern  *string
		category func(own, foreign int64) int64
		wantErr  error
	}{
		{
			name:     "no criterion",
			category: func(own, _ int64) int64 { return own },
			wantErr:  core.ErrMissingCriterion,
		},
		{
			name:     "blank criteria",
			merchant: str(""),
			pattern:  str("   "),
			category: func(own, _ int64) int64 { return own },
			wantErr:  core.ErrMissingCriterion,
		},
		{
			name:     "category of another user",
			merchant: str("Coop"),
			category: func(_, foreign int64) int64 { return foreign },
			wantErr:  core.ErrInvalidCategory,
		},
		{
			name:     "unknown category",
			merchant: str("Coop"),
			category: func(_, _ int64) int64 { return 4242 },
			wantErr:  core.ErrInvalidCategory,
		},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			own := mustCategory(t, s, testUser, "Food")
			foreign := mustCategory(t, s, 99, "Food")

			_, err := NewRuleStore().Upsert(ctx, s, testUser, tt.category(own.ID, foreign.ID), tt.merchant, tt.pattern)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Upsert() error = %v, want %v", err, tt.wantErr)
			}
			rules, _ := s.ListRules(ctx, testUser)
			if len(rules) != 0 {
				t.Errorf("Upsert() stored %d rules on error", len(rules))
			}
		})
	}
}

func TestRuleStore_Find(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := mustCategory(t, s, testUser, "Food")
	merchant := mustRule(t, s, testUser, c.ID, str("Coop"), nil)
	pattern := mustRule(t, s, testUser, c.ID, nil, str("COOP ITALIA"))

	tests := []struct {
		name     string
		merchant *string
		pattern  *string
		wantID   int64
	}{
		{"merchant only", str("Coop"), nil, merchant.ID},
		{"pattern only", nil, str("COOP ITALIA"), pattern.ID},
		{"both keys prefer merchant", str("Coop"), str("COOP ITALIA"), merchant.ID},
		{"unknown merchant falls back to pattern", str("Conad"), str("COOP ITALIA"), pattern.ID},
		{"pattern is not a substring search", nil, str("COOP"), 0},
		{"nothing", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRuleStore().Find(ctx, s, testUser, tt.merchant, tt.pattern)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			var gotID int64
			if got != nil {
				gotID = got.ID
			}
			if gotID != tt.wantID {
				t.Errorf("Find() rule = %d, want %d", gotID, tt.wantID)
			}
		})
	}
}
