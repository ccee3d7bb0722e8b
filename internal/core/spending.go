package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Period selects the date range of a spending summary
type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParsePeriod defaults to PeriodMonth when s is blank
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodMonth, nil
	case PeriodMonth, PeriodYear, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", ErrValidation, s)
	}
}

// Range returns the first and last day of the period containing asOf
func (p Period) Range(asOf time.Time) (from, to Date) {
	switch p {
	case PeriodYear:
		return NewDate(asOf.Year(), 1, 1), NewDate(asOf.Year(), 12, 31)
	case PeriodAll:
		return NewDate(1, 1, 1), NewDate(9999, 12, 31)
	default:
		first := NewDate(asOf.Year(), int(asOf.Month()), 1)
		return first, Date{Time: first.AddDate(0, 1, -1)}
	}
}

// CategoryAmount is the sum of one category's transactions. A nil CategoryID
// collects uncategorized transactions.
type CategoryAmount struct {
	CategoryID *int64
	Name       string
	Amount     decimal.Decimal
	Count      int
}

// SpendingSummary totals a user's transactions per category over a period
type SpendingSummary struct {
	Period     Period
	From       Date
	To         Date
	Total      decimal.Decimal
	ByCategory []CategoryAmount
}

// SumByCategory folds per-transaction entries into one entry per category,
// ordered by amount descending, then name
func SumByCategory(entries []CategoryAmount) []CategoryAmount {
	const uncategorized = int64(0)
	index := make(map[int64]int)
	out := make([]CategoryAmount, 0)
	for _, e := range entries {
		key := uncategorized
		if e.CategoryID != nil {
			key = *e.CategoryID
		}
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, CategoryAmount{CategoryID: e.CategoryID, Name: e.Name, Amount: decimal.Zero})
			i = len(out) - 1
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
		out[i].Count += max(e.Count, 1)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Amount = RoundAmount(out[i].Amount)
	}
	return out
}

// Summarize builds the summary of a period from folded category amounts,
// keeping only the top entries when top is positive. Total covers every
// category, not just the kept ones.
func Summarize(p Period, from, to Date, byCategory []CategoryAmount, top int) SpendingSummary {
	total := decimal.Zero
	for _, c := range byCategory {
		total = total.Add(c.Amount)
	}
	if top > 0 && len(byCategory) > top {
		byCategory = byCategory[:top]
	}
	return SpendingSummary{Period: p, From: from, To: to, Total: RoundAmount(total), ByCategory: byCategory}
}
