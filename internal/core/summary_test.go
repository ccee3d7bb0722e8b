package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestProjectRareExpenses(t *testing.T) {
	window := NewWindow(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), WindowMonths)

	t.Run("single item spread until due month", func(t *testing.T) {
		items := []RareExpense{
			{CategoryName: "Car Insurance", Amount: decimal.RequireFromString("1200.00"), Due: window[5]},
		}
		got := ProjectRareExpenses(window, items)

		if len(got.Suggestions) != 12 {
			t.Fatalf("len(Suggestions) = %d, want 12", len(got.Suggestions))
		}
		for i, s := range got.Suggestions {
			want := "0"
			if i <= 5 {
				want = "200"
			}
			if s.Amount.String() != want {
				t.Errorf("Suggestions[%d] = %s, want %s", i, s.Amount, want)
			}
			if s.YearMonth != window[i] {
				t.Errorf("Suggestions[%d] month = %v, want %v", i, s.YearMonth, window[i])
			}
		}
	})

	t.Run("overlapping items accumulate and sort", func(t *testing.T) {
		items := []RareExpense{
			{CategoryName: "Vacation", Amount: decimal.RequireFromString("300"), Due: window[2]},
			{CategoryName: "Gifts", Amount: decimal.RequireFromString("100"), Due: window[0]},
		}
		got := ProjectRareExpenses(window, items)

		if got.Expenses[0].CategoryName != "Gifts" || got.Expenses[1].CategoryName != "Vacation" {
			t.Fatalf("Expenses not sorted by due month: %+v", got.Expenses)
		}
		want := []string{"200", "100", "100", "0"}
		for i, w := range want {
			if got.Suggestions[i].Amount.String() != w {
				t.Errorf("Suggestions[%d] = %s, want %s", i, got.Suggestions[i].Amount, w)
			}
		}
	})

	t.Run("rounding happens after summation", func(t *testing.T) {
		items := []RareExpense{
			{CategoryName: "A", Amount: decimal.RequireFromString("100"), Due: window[2]},
			{CategoryName: "B", Amount: decimal.RequireFromString("100"), Due: window[2]},
		}
		got := ProjectRareExpenses(window, items)
		// 33.333.. + 33.333.. = 66.666.. -> 66.67, not 33.33 + 33.33
		if got.Suggestions[0].Amount.String() != "66.67" {
			t.Errorf("Suggestions[0] = %s, want 66.67", got.Suggestions[0].Amount)
		}
	})

	t.Run("items outside window and non-positive amounts", func(t *testing.T) {
		items := []RareExpense{
			{CategoryName: "Old", Amount: decimal.RequireFromString("500"), Due: YearMonth{2025, 2}},
			{CategoryName: "Zero", Amount: decimal.Zero, Due: window[1]},
		}
		got := ProjectRareExpenses(window, items)
		if len(got.Expenses) != 1 || got.Expenses[0].CategoryName != "Zero" {
			t.Fatalf("Expenses = %+v, want only Zero", got.Expenses)
		}
		for i, s := range got.Suggestions {
			if !s.Amount.IsZero() {
				t.Errorf("Suggestions[%d] = %s, want 0", i, s.Amount)
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		got := ProjectRareExpenses(window, nil)
		if len(got.Expenses) != 0 || len(got.Suggestions) != 12 {
			t.Fatalf("got %d expenses and %d suggestions", len(got.Expenses), len(got.Suggestions))
		}
	})
}
