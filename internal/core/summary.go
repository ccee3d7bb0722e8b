package core

import (
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// RareExpense is a budgeted irregular expense due in a given month
type RareExpense struct {
	CategoryID   int64
	CategoryName string
	Amount       decimal.Decimal
	Due          YearMonth
}

// SavingsSuggestion is how much to put aside in a month
type SavingsSuggestion struct {
	YearMonth
	Amount decimal.Decimal
}

// RareExpensesSummary is the 12-month projection for one user
type RareExpensesSummary struct {
	Expenses    []RareExpense
	Suggestions []SavingsSuggestion
}

// Clone returns a copy that shares no backing arrays with s
func (s RareExpensesSummary) Clone() RareExpensesSummary {
	return RareExpensesSummary{
		Expenses:    slices.Clone(s.Expenses),
		Suggestions: slices.Clone(s.Suggestions),
	}
}

// ProjectRareExpenses sorts the items inside the window by due month and
// spreads each amount evenly over the months from the window start up to and
// including its due month. Buckets are rounded only after all contributions
// are summed. Items outside the window and non-positive amounts do not
// contribute to the schedule.
func ProjectRareExpenses(window Window, items []RareExpense) RareExpensesSummary {
	expenses := make([]RareExpense, 0, len(items))
	for _, it := range items {
		if window.Contains(it.Due) {
			expenses = append(expenses, it)
		}
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if a.Due != b.Due {
			return a.Due.Before(b.Due)
		}
		return a.CategoryName < b.CategoryName
	})

	buckets := make([]decimal.Decimal, len(window))
	for i := range buckets {
		buckets[i] = decimal.Zero
	}
	for _, e := range expenses {
		if !e.Amount.IsPositive() {
			continue
		}
		k := window.Index(e.Due)
		share := e.Amount.Div(decimal.NewFromInt(int64(k + 1)))
		for i := 0; i <= k; i++ {
			buckets[i] = buckets[i].Add(share)
		}
	}

	suggestions := make([]SavingsSuggestion, len(window))
	for i, ym := range window {
		suggestions[i] = SavingsSuggestion{YearMonth: ym, Amount: RoundAmount(buckets[i])}
	}

	return RareExpensesSummary{Expenses: expenses, Suggestions: suggestions}
}
