package http

import (
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/services"
)

// JSON views of domain values. Amounts are encoded as decimal strings.

type categoryView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newCategoryView(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name}
}

type ruleView struct {
	ID                 int64     `json:"id"`
	MerchantName       *string   `json:"merchant_name"`
	DescriptionPattern *string   `json:"description_pattern"`
	CategoryID         int64     `json:"category_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func newRuleView(r core.CategorizationRule) ruleView {
	return ruleView{
		ID:                 r.ID,
		MerchantName:       r.MerchantName,
		DescriptionPattern: r.DescriptionPattern,
		CategoryID:         r.CategoryID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type filterRuleView struct {
	ID                 int64            `json:"id"`
	DescriptionPattern *string          `json:"description_pattern"`
	MerchantName       *string          `json:"merchant_name"`
	MinAmount          *decimal.Decimal `json:"min_amount"`
	MaxAmount          *decimal.Decimal `json:"max_amount"`
	IsActive           bool             `json:"is_active"`
	CreatedAt          time.Time        `json:"created_at"`
}

func newFilterRuleView(r core.FilterRule) filterRuleView {
	return filterRuleView{
		ID:                 r.ID,
		DescriptionPattern: r.DescriptionPattern,
		MerchantName:       r.MerchantName,
		MinAmount:          r.MinAmount,
		MaxAmount:          r.MaxAmount,
		IsActive:           r.IsActive,
		CreatedAt:          r.CreatedAt,
	}
}

type planView struct {
	ID    int64 `json:"id"`
	Year  int   `json:"year"`
	Month int   `json:"month"`
}

type categoryLimitView struct {
	ID         int64           `json:"id"`
	PlanID     int64           `json:"plan_id"`
	CategoryID int64           `json:"category_id"`
	Limit      decimal.Decimal `json:"limit"`
}

func newCategoryLimitView(l core.CategoryLimit) categoryLimitView {
	return categoryLimitView{ID: l.ID, PlanID: l.PlanID, CategoryID: l.CategoryID, Limit: l.Limit}
}

type matchView struct {
	CategoryID *int64             `json:"category_id"`
	RuleID     *int64             `json:"rule_id,omitempty"`
	MatchKind  services.MatchKind `json:"match_kind"`
}

func newMatchView(m services.MatchResult) matchView {
	v := matchView{CategoryID: m.CategoryID, MatchKind: m.Kind}
	if m.Matched() {
		v.RuleID = &m.RuleID
	}
	return v
}

type rareExpenseView struct {
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Amount       decimal.Decimal `json:"amount"`
}

type savingsSuggestionView struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

type rareSummaryView struct {
	Expenses    []rareExpenseView       `json:"expenses"`
	Suggestions []savingsSuggestionView `json:"suggestions"`
}

func newRareSummaryView(s core.RareExpensesSummary) rareSummaryView {
	v := rareSummaryView{
		Expenses:    make([]rareExpenseView, 0, len(s.Expenses)),
		Suggestions: make([]savingsSuggestionView, 0, len(s.Suggestions)),
	}
	for _, e := range s.Expenses {
		v.Expenses = append(v.Expenses, rareExpenseView{
			CategoryID:   e.CategoryID,
			CategoryName: e.CategoryName,
			Year:         e.Due.Year,
			Month:        e.Due.Month,
			Amount:       e.Amount,
		})
	}
	for _, sg := range s.Suggestions {
		v.Suggestions = append(v.Suggestions, savingsSuggestionView{Year: sg.Year, Month: sg.Month, Amount: sg.Amount})
	}
	return v
}

type bankConnectionView struct {
	ID           int64     `json:"id"`
	ProviderName string    `json:"provider_name"`
	Synced       bool      `json:"synced"`
	CreatedAt    time.Time `json:"created_at"`
}

func newBankConnectionView(c core.BankConnection) bankConnectionView {
	return bankConnectionView{ID: c.ID, ProviderName: c.ProviderName, Synced: c.SyncCursor != "", CreatedAt: c.CreatedAt}
}

type transactionView struct {
	ID               int64           `json:"id"`
	OperationDate    string          `json:"operation_date"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	CategoryID       *int64          `json:"category_id"`
	MerchantName     *string         `json:"merchant_name"`
	BankConnectionID *int64          `json:"bank_connection_id,omitempty"`
	AccountName      string          `json:"account_name,omitempty"`
}

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:               t.ID,
		OperationDate:    t.OperationDate.String(),
		Description:      t.Description,
		Amount:           t.Amount,
		CategoryID:       t.CategoryID,
		MerchantName:     t.MerchantName,
		BankConnectionID: t.BankConnectionID,
		AccountName:      t.AccountName,
	}
}

type categoryAmountView struct {
	CategoryID *int64          `json:"category_id"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
}

type spendingSummaryView struct {
	Period     core.Period          `json:"period"`
	FromDate   string               `json:"from_date"`
	ToDate     string               `json:"to_date"`
	Total      decimal.Decimal      `json:"total"`
	Categories []categoryAmountView `json:"categories"`
}

func newSpendingSummaryView(s core.SpendingSummary) spendingSummaryView {
	return spendingSummaryView{
		Period:   s.Period,
		FromDate: s.From.String(),
		ToDate:   s.To.String(),
		Total:    s.Total,
		Categories: mapSlice(s.ByCategory, func(c core.CategoryAmount) categoryAmountView {
			return categoryAmountView{CategoryID: c.CategoryID, Category: c.Name, Amount: c.Amount, Count: c.Count}
		}),
	}
}

type mainCategoryView struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Categories []categoryView `json:"categories,omitempty"`
}

func newPlanView(p core.Plan) planView {
	return planView{ID: p.ID, Year: p.Year, Month: p.Month}
}

func mapSlice[T, V any](items []T, f func(T) V) []V {
	out := make([]V, 0, len(items))
	for _, it := range items {
		out = append(out, f(it))
	}
	return out
}
