package services

import (
	"context"
	"testing"
	"time"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/storage/memory"
)

var rareAsOf = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

// setupRare creates a "Rare" group with the named categories and returns the
// planning service bound to a cached rare-expense service
func setupRare(t *testing.T) (*memory.Store, *PlanningService, *RareExpenseService, core.MainCategory) {
	t.Helper()
	s := newStore(t)
	rare := NewRareExpenseService(s, cache.NewLRUCache[core.RareExpensesSummary](16, time.Hour))
	planning := NewPlanningService(s, rare)
	group, err := planning.CreateMainCategory(context.Background(), testUser, "Rare")
	if err != nil {
		t.Fatalf("CreateMainCategory() error = %v", err)
	}
	return s, planning, rare, group
}

func addRareLimit(t *testing.T, planning *PlanningService, group core.MainCategory, name string, year, month int, amount string) core.Category {
	t.Helper()
	ctx := context.Background()
	c, err := planning.CreateCategory(ctx, testUser, name)
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if err := planning.AddCategoryToMainCategory(ctx, testUser, group.ID, c.ID); err != nil {
		t.Fatalf("AddCategoryToMainCategory() error = %v", err)
	}
	p, err := planning.EnsurePlan(ctx, testUser, year, month)
	if err != nil {
		t.Fatalf("EnsurePlan() error = %v", err)
	}
	if _, err := planning.SetCategoryLimit(ctx, testUser, p.ID, c.ID, dec(amount)); err != nil {
		t.Fatalf("SetCategoryLimit() error = %v", err)
	}
	return c
}

func wantSuggestions(t *testing.T, got core.RareExpensesSummary, want []string) {
	t.Helper()
	if len(got.Suggestions) != len(want) {
		t.Fatalf("suggestions = %d months, want %d", len(got.Suggestions), len(want))
	}
	for i, w := range want {
		if !got.Suggestions[i].Amount.Equal(dec(w)) {
			t.Errorf("suggestion[%d] (%s) = %s, want %s", i, got.Suggestions[i].YearMonth, got.Suggestions[i].Amount, w)
		}
	}
}

func TestRareExpenseService_Summary(t *testing.T) {
	ctx := context.Background()

	t.Run("single expense spread up to its due month", func(t *testing.T) {
		_, planning, rare, group := setupRare(t)
		addRareLimit(t, planning, group, "Car Insurance", 2024, 6, "1200.00")

		got, err := rare.Summary(ctx, testUser, rareAsOf)
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if len(got.Expenses) != 1 || got.Expenses[0].CategoryName != "Car Insurance" {
			t.Fatalf("expenses = %+v, want Car Insurance", got.Expenses)
		}
		if got.Expenses[0].Due != (core.YearMonth{Year: 2024, Month: 6}) {
			t.Errorf("due = %v, want 2024-06", got.Expenses[0].Due)
		}
		wantSuggestions(t, got, []string{
			"200", "200", "200", "200", "200", "200",
			"0", "0", "0", "0", "0", "0",
		})
		if got.Suggestions[0].YearMonth != (core.YearMonth{Year: 2024, Month: 1}) {
			t.Errorf("first month = %v, want 2024-01", got.Suggestions[0].YearMonth)
		}
	})

	t.Run("overlapping expenses add up", func(t *testing.T) {
		_, planning, rare, group := setupRare(t)
		addRareLimit(t, planning, group, "Car Insurance", 2024, 6, "1200.00")
		addRareLimit(t, planning, group, "Dentist", 2024, 3, "100.00")

		got, err := rare.Summary(ctx, testUser, rareAsOf)
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if len(got.Expenses) != 2 || got.Expenses[0].CategoryName != "Dentist" {
			t.Errorf("expenses = %+v, want Dentist first", got.Expenses)
		}
		wantSuggestions(t, got, []string{
			"233.33", "233.33", "233.33", "200", "200", "200",
			"0", "0", "0", "0", "0", "0",
		})
	})

	t.Run("window wraps the year and excludes the past", func(t *testing.T) {
		_, planning, rare, group := setupRare(t)
		addRareLimit(t, planning, group, "Old", 2023, 12, "999")
		addRareLimit(t, planning, group, "Tyres", 2024, 12, "1200")
		addRareLimit(t, planning, group, "Too late", 2025, 1, "500")

		got, err := rare.Summary(ctx, testUser, rareAsOf)
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if len(got.Expenses) != 1 || got.Expenses[0].CategoryName != "Tyres" {
			t.Fatalf("expenses = %+v, want only Tyres", got.Expenses)
		}
		for i, s := range got.Suggestions {
			if !s.Amount.Equal(dec("100")) {
				t.Errorf("suggestion[%d] = %s, want 100", i, s.Amount)
			}
		}
	})

	t.Run("no rare group yields empty lists", func(t *testing.T) {
		rare := NewRareExpenseService(newStore(t), nil)
		got, err := rare.Summary(ctx, testUser, rareAsOf)
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if got.Expenses == nil || len(got.Expenses) != 0 {
			t.Errorf("expenses = %#v, want empty non-nil", got.Expenses)
		}
		if got.Suggestions == nil || len(got.Suggestions) != 0 {
			t.Errorf("suggestions = %#v, want empty non-nil", got.Suggestions)
		}
	})

	t.Run("empty rare group yields zero suggestions", func(t *testing.T) {
		_, _, rare, _ := setupRare(t)
		got, err := rare.Summary(ctx, testUser, rareAsOf)
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if len(got.Expenses) != 0 {
			t.Errorf("expenses = %+v, want none", got.Expenses)
		}
		wantSuggestions(t, got, []string{"0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0"})
	})

	t.Run("categories outside the group are ignored", func(t *testing.T) {
		s, planning, rare, group := setupRare(t)
		addRareLimit(t, planning, group, "Car Insurance", 2024, 6, "1200.00")
		groceries := mustCategory(t, s, testUser, "Groceries")
		p, _ := planning.EnsurePlan(ctx, testUser, 2024, 2)
		if _, err := planning.SetCategoryLimit(ctx, testUser, p.ID, groceries.ID, dec("400")); err != nil {
			t.Fatalf("SetCategoryLimit() error = %v", err)
		}

		got, err := rare.Summary(ctx, testUser, rareAsOf)
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if len(got.Expenses) != 1 {
			t.Errorf("expenses = %+v, want only the grouped category", got.Expenses)
		}
	})
}

func TestRareExpenseService_SummaryCache(t *testing.T) {
	ctx := context.Background()
	_, planning, rare, group := setupRare(t)
	c := addRareLimit(t, planning, group, "Car Insurance", 2024, 6, "1200.00")

	first, err := rare.Summary(ctx, testUser, rareAsOf)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !first.Suggestions[0].Amount.Equal(dec("200")) {
		t.Fatalf("suggestion[0] = %s, want 200", first.Suggestions[0].Amount)
	}

	p, _ := planning.EnsurePlan(ctx, testUser, 2024, 6)
	if _, err := planning.SetCategoryLimit(ctx, testUser, p.ID, c.ID, dec("600")); err != nil {
		t.Fatalf("SetCategoryLimit() error = %v", err)
	}

	second, err := rare.Summary(ctx, testUser, rareAsOf)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !second.Suggestions[0].Amount.Equal(dec("100")) {
		t.Errorf("suggestion[0] after limit change = %s, want 100", second.Suggestions[0].Amount)
	}

	if err := planning.RemoveCategoryFromMainCategory(ctx, testUser, group.ID, c.ID); err != nil {
		t.Fatalf("RemoveCategoryFromMainCategory() error = %v", err)
	}
	third, err := rare.Summary(ctx, testUser, rareAsOf)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if len(third.Expenses) != 0 {
		t.Errorf("expenses after removal = %+v, want none", third.Expenses)
	}
}

func TestRareExpenseService_CachedSummaryIsolatedFromCallers(t *testing.T) {
	ctx := context.Background()
	_, planning, rare, group := setupRare(t)
	addRareLimit(t, planning, group, "Car Insurance", 2024, 6, "1200.00")

	first, err := rare.Summary(ctx, testUser, rareAsOf)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	first.Expenses[0].CategoryName = "changed"
	first.Suggestions[0].Amount = dec("1")

	second, err := rare.Summary(ctx, testUser, rareAsOf)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	second.Expenses[0].Amount = dec("5")
	second.Suggestions[1].Amount = dec("2")

	third, err := rare.Summary(ctx, testUser, rareAsOf)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if third.Expenses[0].CategoryName != "Car Insurance" || !third.Expenses[0].Amount.Equal(dec("1200")) {
		t.Errorf("cached expense = %+v, want untouched Car Insurance 1200", third.Expenses[0])
	}
	wantSuggestions(t, third, []string{
		"200", "200", "200", "200", "200", "200",
		"0", "0", "0", "0", "0", "0",
	})
}
