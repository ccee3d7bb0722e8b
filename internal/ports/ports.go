// Package ports declares the storage boundary used by the services.
//
// Every lookup is scoped by user id. Lookups that find nothing return an
// error wrapping core.ErrNotFound; uniqueness violations wrap core.ErrConflict.
package ports

import (
	"context"

	"budget/internal/core"
)

type (
	CategoryRepository interface {
		GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
		FindCategoryByName(ctx context.Context, userID int64, name string) (core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
	}

	MainCategoryRepository interface {
		GetMainCategory(ctx context.Context, userID, id int64) (core.MainCategory, error)
		// FindMainCategoryByName matches the name case-insensitively
		FindMainCategoryByName(ctx context.Context, userID int64, name string) (core.MainCategory, error)
		CreateMainCategory(ctx context.Context, m core.MainCategory) (core.MainCategory, error)
		ListMainCategories(ctx context.Context, userID int64) ([]core.MainCategory, error)
		// ListMainCategoryMembers returns the categories of a group ordered by name
		ListMainCategoryMembers(ctx context.Context, userID, mainCategoryID int64) ([]core.Category, error)
		AddCategoryToMainCategory(ctx context.Context, mainCategoryID, categoryID int64) error
		RemoveCategoryFromMainCategory(ctx context.Context, mainCategoryID, categoryID int64) error
	}

	RuleRepository interface {
		FindRuleByMerchant(ctx context.Context, userID int64, merchant string) (core.CategorizationRule, error)
		FindRuleByDescription(ctx context.Context, userID int64, pattern string) (core.CategorizationRule, error)
		// ListDescriptionRules returns rules with a description pattern in creation order
		ListDescriptionRules(ctx context.Context, userID int64) ([]core.CategorizationRule, error)
		ListRules(ctx context.Context, userID int64) ([]core.CategorizationRule, error)
		CreateRule(ctx context.Context, r core.CategorizationRule) (core.CategorizationRule, error)
		UpdateRuleCategory(ctx context.Context, userID, ruleID, categoryID int64) (core.CategorizationRule, error)
	}

	TransactionRepository interface {
		GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
		// ListTransactions returns the newest transactions first; limit <= 0 means no limit
		ListTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error)
		// CreateTransaction returns core.ErrConflict when the bank transaction id is already stored
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransactionCategory(ctx context.Context, userID, id int64, categoryID *int64) error
		BankTransactionExists(ctx context.Context, bankTransactionID string) (bool, error)
		// SumByCategory totals transactions dated between from and to inclusive,
		// folded with core.SumByCategory
		SumByCategory(ctx context.Context, userID int64, from, to core.Date) ([]core.CategoryAmount, error)
	}

	FilterRuleRepository interface {
		ListFilterRules(ctx context.Context, userID int64, activeOnly bool) ([]core.FilterRule, error)
		GetFilterRule(ctx context.Context, userID, id int64) (core.FilterRule, error)
		CreateFilterRule(ctx context.Context, r core.FilterRule) (core.FilterRule, error)
		UpdateFilterRule(ctx context.Context, r core.FilterRule) (core.FilterRule, error)
		DeleteFilterRule(ctx context.Context, userID, id int64) error
	}

	PlanRepository interface {
		GetPlan(ctx context.Context, userID, id int64) (core.Plan, error)
		FindPlan(ctx context.Context, userID int64, year, month int) (core.Plan, error)
		CreatePlan(ctx context.Context, p core.Plan) (core.Plan, error)
		// ListPlans orders by year and month; year 0 lists every year
		ListPlans(ctx context.Context, userID int64, year int) ([]core.Plan, error)
		// UpsertCategoryLimit keeps one limit per (category, plan)
		UpsertCategoryLimit(ctx context.Context, l core.CategoryLimit) (core.CategoryLimit, error)
		ListCategoryLimits(ctx context.Context, userID, planID int64) ([]core.CategoryLimit, error)
		DeleteCategoryLimit(ctx context.Context, userID, planID, categoryID int64) error
		// ListGroupLimits joins limits, plans and categories of one main category
		// for plans falling between from and to inclusive
		ListGroupLimits(ctx context.Context, userID, mainCategoryID int64, from, to core.YearMonth) ([]core.RareExpense, error)
	}

	BankConnectionRepository interface {
		GetBankConnection(ctx context.Context, userID, id int64) (core.BankConnection, error)
		CreateBankConnection(ctx context.Context, c core.BankConnection) (core.BankConnection, error)
		ListBankConnections(ctx context.Context, userID int64) ([]core.BankConnection, error)
		UpdateSyncCursor(ctx context.Context, userID, id int64, cursor string) error
	}

	// Savepointer isolates part of a transaction. When fn fails, only its
	// writes are undone and the surrounding transaction stays usable. Outside a
	// transaction fn runs directly.
	Savepointer interface {
		Savepoint(ctx context.Context, fn func(repo Repository) error) error
	}

	// Repository is the full set of operations available inside and outside a transaction
	Repository interface {
		CategoryRepository
		MainCategoryRepository
		RuleRepository
		TransactionRepository
		FilterRuleRepository
		PlanRepository
		BankConnectionRepository
		Savepointer
	}

	// Transactor runs fn atomically. Writes made through the repository passed
	// to fn are visible to later reads through it and are rolled back if fn
	// returns an error.
	Transactor interface {
		InTx(ctx context.Context, fn func(repo Repository) error) error
	}

	Store interface {
		Repository
		Transactor
		Close() error
	}
)
