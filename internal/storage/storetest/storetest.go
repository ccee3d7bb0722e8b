// Package storetest checks a ports.Store implementation against the
// behavior the services rely on. Both the SQL repository and the memory
// store run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/ports"
)

const (
	alice int64 = 1
	bob   int64 = 2
)

// Run executes every store check. open must return an empty store; it is
// called once per subtest.
func Run(t *testing.T, open func(t *testing.T) ports.Store) {
	checks := []struct {
		name string
		fn   func(t *testing.T, s ports.Store)
	}{
		{"categories", testCategories},
		{"main categories", testMainCategories},
		{"rules", testRules},
		{"transactions", testTransactions},
		{"filter rules", testFilterRules},
		{"plans and limits", testPlans},
		{"group limits", testGroupLimits},
		{"bank connections", testBankConnections},
		{"sum by category", testSumByCategory},
		{"transaction rollback", testInTxRollback},
		{"transaction commit", testInTxCommit},
		{"savepoint", testSavepoint},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			c.fn(t, s)
		})
	}
}

func mustCategory(t *testing.T, s ports.Repository, userID int64, name string) core.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), core.Category{UserID: userID, Name: name})
	require.NoError(t, err)
	require.NotZero(t, c.ID)
	return c
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "amount = %s, want %s", got, want)
}

func testCategories(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, alice, "Food")
	mustCategory(t, s, alice, "Bills")
	mustCategory(t, s, bob, "Food")

	_, err := s.CreateCategory(ctx, core.Category{UserID: alice, Name: "Food"})
	assert.ErrorIs(t, err, core.ErrConflict)

	got, err := s.GetCategory(ctx, alice, food.ID)
	require.NoError(t, err)
	assert.Equal(t, food, got)

	_, err = s.GetCategory(ctx, bob, food.ID)
	assert.ErrorIs(t, err, core.ErrNotFound, "categories are scoped by user")

	found, err := s.FindCategoryByName(ctx, alice, "Food")
	require.NoError(t, err)
	assert.Equal(t, food.ID, found.ID)

	_, err = s.FindCategoryByName(ctx, alice, "Travel")
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := s.ListCategories(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bills", list[0].Name)
	assert.Equal(t, "Food", list[1].Name)
}

func testMainCategories(t *testing.T, s ports.Store) {
	ctx := context.Background()
	rare, err := s.CreateMainCategory(ctx, core.MainCategory{UserID: alice, Name: "Rare"})
	require.NoError(t, err)

	found, err := s.FindMainCategoryByName(ctx, alice, "rare")
	require.NoError(t, err)
	assert.Equal(t, rare.ID, found.ID)

	_, err = s.FindMainCategoryByName(ctx, bob, "rare")
	assert.ErrorIs(t, err, core.ErrNotFound)

	got, err := s.GetMainCategory(ctx, alice, rare.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rare", got.Name)

	cat := mustCategory(t, s, alice, "Insurance")
	require.NoError(t, s.AddCategoryToMainCategory(ctx, rare.ID, cat.ID))
	require.NoError(t, s.AddCategoryToMainCategory(ctx, rare.ID, cat.ID), "adding twice is a no-op")

	members, err := s.ListMainCategoryMembers(ctx, alice, rare.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, cat.ID, members[0].ID)
	members, err = s.ListMainCategoryMembers(ctx, bob, rare.ID)
	require.NoError(t, err)
	assert.Empty(t, members)

	_, err = s.CreateMainCategory(ctx, core.MainCategory{UserID: alice, Name: "Fixed"})
	require.NoError(t, err)
	_, err = s.CreateMainCategory(ctx, core.MainCategory{UserID: bob, Name: "Other"})
	require.NoError(t, err)
	groups, err := s.ListMainCategories(ctx, alice)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Fixed", groups[0].Name)
	assert.Equal(t, "Rare", groups[1].Name)

	require.NoError(t, s.RemoveCategoryFromMainCategory(ctx, rare.ID, cat.ID))
	err = s.RemoveCategoryFromMainCategory(ctx, rare.ID, cat.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testRules(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, alice, "Food")
	bills := mustCategory(t, s, alice, "Bills")

	byMerchant, err := s.CreateRule(ctx, core.CategorizationRule{
		UserID: alice, MerchantName: core.StrPtr("ACME"), CategoryID: food.ID,
	})
	require.NoError(t, err)
	assert.False(t, byMerchant.CreatedAt.IsZero())

	byPattern, err := s.CreateRule(ctx, core.CategorizationRule{
		UserID: alice, DescriptionPattern: core.StrPtr("ELECTRIC"), CategoryID: bills.ID,
	})
	require.NoError(t, err)

	_, err = s.CreateRule(ctx, core.CategorizationRule{
		UserID: alice, MerchantName: core.StrPtr("ACME"), CategoryID: bills.ID,
	})
	assert.ErrorIs(t, err, core.ErrConflict)

	got, err := s.FindRuleByMerchant(ctx, alice, "ACME")
	require.NoError(t, err)
	assert.Equal(t, byMerchant.ID, got.ID)
	assert.Nil(t, got.DescriptionPattern)

	got, err = s.FindRuleByDescription(ctx, alice, "ELECTRIC")
	require.NoError(t, err)
	assert.Equal(t, byPattern.ID, got.ID)

	_, err = s.FindRuleByMerchant(ctx, bob, "ACME")
	assert.ErrorIs(t, err, core.ErrNotFound)

	desc, err := s.ListDescriptionRules(ctx, alice)
	require.NoError(t, err)
	require.Len(t, desc, 1)
	assert.Equal(t, byPattern.ID, desc[0].ID)

	all, err := s.ListRules(ctx, alice)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, byMerchant.ID, all[0].ID)

	updated, err := s.UpdateRuleCategory(ctx, alice, byMerchant.ID, bills.ID)
	require.NoError(t, err)
	assert.Equal(t, bills.ID, updated.CategoryID)
	assert.Equal(t, "ACME", core.Deref(updated.MerchantName))

	_, err = s.UpdateRuleCategory(ctx, bob, byMerchant.ID, bills.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testTransactions(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, alice, "Food")
	conn, err := s.CreateBankConnection(ctx, core.BankConnection{UserID: alice, ProviderName: "plaid", AccessToken: "tok"})
	require.NoError(t, err)

	first, err := s.CreateTransaction(ctx, core.Transaction{
		UserID:            alice,
		OperationDate:     core.NewDate(2024, 3, 1),
		Description:       "Grocery run",
		Amount:            decimal.RequireFromString("-12.345"),
		CategoryID:        &food.ID,
		BankTransactionID: core.StrPtr("bt-1"),
		BankConnectionID:  &conn.ID,
	})
	require.NoError(t, err)
	assertDecimal(t, "-12.35", first.Amount)

	_, err = s.CreateTransaction(ctx, core.Transaction{
		UserID:            alice,
		OperationDate:     core.NewDate(2024, 3, 2),
		Description:       "Duplicate",
		Amount:            decimal.NewFromInt(-1),
		BankTransactionID: core.StrPtr("bt-1"),
	})
	assert.ErrorIs(t, err, core.ErrConflict)

	second, err := s.CreateTransaction(ctx, core.Transaction{
		UserID:           alice,
		OperationDate:    core.NewDate(2024, 3, 5),
		Description:      "Salary",
		Amount:           decimal.NewFromInt(2000),
		BankConnectionID: &conn.ID,
	})
	require.NoError(t, err)

	got, err := s.GetTransaction(ctx, alice, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", got.OperationDate.String())
	assertDecimal(t, "-12.35", got.Amount)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, food.ID, *got.CategoryID)
	assert.Equal(t, "bt-1", core.Deref(got.BankTransactionID))

	exists, err := s.BankTransactionExists(ctx, "bt-1")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.BankTransactionExists(ctx, "bt-2")
	require.NoError(t, err)
	assert.False(t, exists)

	list, err := s.ListTransactions(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	list, err = s.ListTransactions(ctx, alice, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = s.ListTransactions(ctx, alice, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2, "zero limit lists everything")

	list, err = s.ListTransactions(ctx, bob, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.UpdateTransactionCategory(ctx, alice, second.ID, &food.ID))
	require.NoError(t, s.UpdateTransactionCategory(ctx, alice, first.ID, nil))
	got, err = s.GetTransaction(ctx, alice, first.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	err = s.UpdateTransactionCategory(ctx, bob, first.ID, nil)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testFilterRules(t *testing.T, s ports.Store) {
	ctx := context.Background()
	minAmount := decimal.RequireFromString("10.5")

	active, err := s.CreateFilterRule(ctx, core.FilterRule{
		UserID: alice, DescriptionPattern: core.StrPtr("transfer"), MinAmount: &minAmount, IsActive: true,
	})
	require.NoError(t, err)
	inactive, err := s.CreateFilterRule(ctx, core.FilterRule{
		UserID: alice, MerchantName: core.StrPtr("ATM"), IsActive: false,
	})
	require.NoError(t, err)

	got, err := s.GetFilterRule(ctx, alice, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "transfer", core.Deref(got.DescriptionPattern))
	assert.Nil(t, got.MerchantName)
	require.NotNil(t, got.MinAmount)
	assertDecimal(t, "10.5", *got.MinAmount)
	assert.Nil(t, got.MaxAmount)
	assert.True(t, got.IsActive)

	rules, err := s.ListFilterRules(ctx, alice, true)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, active.ID, rules[0].ID)

	rules, err = s.ListFilterRules(ctx, alice, false)
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	inactive.IsActive = true
	inactive.MerchantName = nil
	inactive.DescriptionPattern = core.StrPtr("cash")
	updated, err := s.UpdateFilterRule(ctx, inactive)
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
	assert.Nil(t, updated.MerchantName)
	assert.Equal(t, "cash", core.Deref(updated.DescriptionPattern))

	foreign := updated
	foreign.UserID = bob
	_, err = s.UpdateFilterRule(ctx, foreign)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, s.DeleteFilterRule(ctx, alice, active.ID))
	assert.ErrorIs(t, s.DeleteFilterRule(ctx, alice, active.ID), core.ErrNotFound)
	_, err = s.GetFilterRule(ctx, alice, active.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testPlans(t *testing.T, s ports.Store) {
	ctx := context.Background()
	cat := mustCategory(t, s, alice, "Food")

	plan, err := s.CreatePlan(ctx, core.Plan{UserID: alice, Year: 2024, Month: 5})
	require.NoError(t, err)
	_, err = s.CreatePlan(ctx, core.Plan{UserID: alice, Year: 2024, Month: 5})
	assert.ErrorIs(t, err, core.ErrConflict)

	found, err := s.FindPlan(ctx, alice, 2024, 5)
	require.NoError(t, err)
	assert.Equal(t, plan, found)
	_, err = s.FindPlan(ctx, alice, 2024, 6)
	assert.ErrorIs(t, err, core.ErrNotFound)

	got, err := s.GetPlan(ctx, alice, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan, got)

	first, err := s.UpsertCategoryLimit(ctx, core.CategoryLimit{
		UserID: alice, PlanID: plan.ID, CategoryID: cat.ID, Limit: decimal.RequireFromString("150"),
	})
	require.NoError(t, err)
	second, err := s.UpsertCategoryLimit(ctx, core.CategoryLimit{
		UserID: alice, PlanID: plan.ID, CategoryID: cat.ID, Limit: decimal.RequireFromString("99.999"),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "one limit per category and plan")

	limits, err := s.ListCategoryLimits(ctx, alice, plan.ID)
	require.NoError(t, err)
	require.Len(t, limits, 1)
	assertDecimal(t, "100.00", limits[0].Limit)

	limits, err = s.ListCategoryLimits(ctx, bob, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, limits)

	assert.ErrorIs(t, s.DeleteCategoryLimit(ctx, bob, plan.ID, cat.ID), core.ErrNotFound)
	require.NoError(t, s.DeleteCategoryLimit(ctx, alice, plan.ID, cat.ID))
	assert.ErrorIs(t, s.DeleteCategoryLimit(ctx, alice, plan.ID, cat.ID), core.ErrNotFound)
	limits, err = s.ListCategoryLimits(ctx, alice, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, limits)

	january, err := s.CreatePlan(ctx, core.Plan{UserID: alice, Year: 2024, Month: 1})
	require.NoError(t, err)
	_, err = s.CreatePlan(ctx, core.Plan{UserID: alice, Year: 2023, Month: 12})
	require.NoError(t, err)
	_, err = s.CreatePlan(ctx, core.Plan{UserID: bob, Year: 2024, Month: 2})
	require.NoError(t, err)

	plans, err := s.ListPlans(ctx, alice, 2024)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, january.ID, plans[0].ID)
	assert.Equal(t, plan.ID, plans[1].ID)

	plans, err = s.ListPlans(ctx, alice, 0)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, 2023, plans[0].Year)
}

func testGroupLimits(t *testing.T, s ports.Store) {
	ctx := context.Background()
	group, err := s.CreateMainCategory(ctx, core.MainCategory{UserID: alice, Name: "rare"})
	require.NoError(t, err)
	insurance := mustCategory(t, s, alice, "Insurance")
	gifts := mustCategory(t, s, alice, "Gifts")
	food := mustCategory(t, s, alice, "Food")
	require.NoError(t, s.AddCategoryToMainCategory(ctx, group.ID, insurance.ID))
	require.NoError(t, s.AddCategoryToMainCategory(ctx, group.ID, gifts.ID))

	limit := func(year, month int, c core.Category, amount string) {
		t.Helper()
		p, err := s.FindPlan(ctx, alice, year, month)
		if errors.Is(err, core.ErrNotFound) {
			p, err = s.CreatePlan(ctx, core.Plan{UserID: alice, Year: year, Month: month})
		}
		require.NoError(t, err)
		_, err = s.UpsertCategoryLimit(ctx, core.CategoryLimit{
			UserID: alice, PlanID: p.ID, CategoryID: c.ID, Limit: decimal.RequireFromString(amount),
		})
		require.NoError(t, err)
	}
	limit(2024, 3, insurance, "600")
	limit(2024, 3, gifts, "50")
	limit(2024, 3, food, "400")
	limit(2025, 1, gifts, "80")
	limit(2023, 12, insurance, "590")

	got, err := s.ListGroupLimits(ctx, alice, group.ID,
		core.YearMonth{Year: 2024, Month: 1}, core.YearMonth{Year: 2025, Month: 1})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Gifts", got[0].CategoryName)
	assert.Equal(t, core.YearMonth{Year: 2024, Month: 3}, got[0].Due)
	assertDecimal(t, "50", got[0].Amount)
	assert.Equal(t, "Insurance", got[1].CategoryName)
	assert.Equal(t, insurance.ID, got[1].CategoryID)
	assert.Equal(t, core.YearMonth{Year: 2025, Month: 1}, got[2].Due)

	got, err = s.ListGroupLimits(ctx, bob, group.ID,
		core.YearMonth{Year: 2024, Month: 1}, core.YearMonth{Year: 2025, Month: 1})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testBankConnections(t *testing.T, s ports.Store) {
	ctx := context.Background()
	conn, err := s.CreateBankConnection(ctx, core.BankConnection{UserID: alice, ProviderName: "plaid", AccessToken: "access-1"})
	require.NoError(t, err)
	assert.False(t, conn.CreatedAt.IsZero())

	require.NoError(t, s.UpdateSyncCursor(ctx, alice, conn.ID, "cursor-2"))
	got, err := s.GetBankConnection(ctx, alice, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "cursor-2", got.SyncCursor)
	assert.Equal(t, "access-1", got.AccessToken)

	_, err = s.GetBankConnection(ctx, bob, conn.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.UpdateSyncCursor(ctx, bob, conn.ID, "x"), core.ErrNotFound)

	second, err := s.CreateBankConnection(ctx, core.BankConnection{UserID: alice, ProviderName: "plaid", AccessToken: "access-2"})
	require.NoError(t, err)
	list, err := s.ListBankConnections(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, conn.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, "cursor-2", list[0].SyncCursor)

	list, err = s.ListBankConnections(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testSumByCategory(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, alice, "Food")
	rent := mustCategory(t, s, alice, "Rent")
	add := func(userID int64, day int, month int, amount string, categoryID *int64) {
		t.Helper()
		_, err := s.CreateTransaction(ctx, core.Transaction{
			UserID:        userID,
			OperationDate: core.NewDate(2024, month, day),
			Description:   "x",
			Amount:        decimal.RequireFromString(amount),
			CategoryID:    categoryID,
		})
		require.NoError(t, err)
	}
	add(alice, 1, 3, "-10.10", &food.ID)
	add(alice, 31, 3, "-5.05", &food.ID)
	add(alice, 15, 3, "-700", &rent.ID)
	add(alice, 20, 3, "-3", nil)
	add(alice, 1, 4, "-99", &food.ID)
	add(alice, 29, 2, "-1", &food.ID)
	add(bob, 10, 3, "-50", nil)

	got, err := s.SumByCategory(ctx, alice, core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Nil(t, got[0].CategoryID, "uncategorized")
	assertDecimal(t, "-3", got[0].Amount)
	assert.Equal(t, 1, got[0].Count)

	assert.Equal(t, "Food", got[1].Name)
	require.NotNil(t, got[1].CategoryID)
	assert.Equal(t, food.ID, *got[1].CategoryID)
	assertDecimal(t, "-15.15", got[1].Amount)
	assert.Equal(t, 2, got[1].Count)

	assert.Equal(t, "Rent", got[2].Name)
	assertDecimal(t, "-700", got[2].Amount)

	got, err = s.SumByCategory(ctx, bob, core.NewDate(2024, 4, 1), core.NewDate(2024, 4, 30))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testInTxRollback(t *testing.T, s ports.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(repo ports.Repository) error {
		c := mustCategory(t, repo, alice, "Travel")
		got, err := repo.GetCategory(ctx, alice, c.ID)
		require.NoError(t, err, "writes are visible inside the transaction")
		assert.Equal(t, "Travel", got.Name)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.FindCategoryByName(ctx, alice, "Travel")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testInTxCommit(t *testing.T, s ports.Store) {
	ctx := context.Background()
	err := s.InTx(ctx, func(repo ports.Repository) error {
		c := mustCategory(t, repo, alice, "Travel")
		_, err := repo.CreateRule(ctx, core.CategorizationRule{
			UserID: alice, MerchantName: core.StrPtr("AIRLINE"), CategoryID: c.ID,
		})
		return err
	})
	require.NoError(t, err)

	rule, err := s.FindRuleByMerchant(ctx, alice, "AIRLINE")
	require.NoError(t, err)
	c, err := s.GetCategory(ctx, alice, rule.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, "Travel", c.Name)
}

func testSavepoint(t *testing.T, s ports.Store) {
	ctx := context.Background()
	err := s.InTx(ctx, func(repo ports.Repository) error {
		mustCategory(t, repo, alice, "Kept")

		spErr := repo.Savepoint(ctx, func(sp ports.Repository) error {
			mustCategory(t, sp, alice, "Dropped")
			_, err := sp.CreateCategory(ctx, core.Category{UserID: alice, Name: "Kept"})
			return err
		})
		assert.ErrorIs(t, spErr, core.ErrConflict)

		require.NoError(t, repo.Savepoint(ctx, func(sp ports.Repository) error {
			_, err := sp.CreateCategory(ctx, core.Category{UserID: alice, Name: "Inner"})
			return err
		}))

		_, err := repo.CreateCategory(ctx, core.Category{UserID: alice, Name: "After"})
		return err
	})
	require.NoError(t, err, "the transaction stays usable after a failed savepoint")

	for _, name := range []string{"Kept", "Inner", "After"} {
		_, err := s.FindCategoryByName(ctx, alice, name)
		assert.NoError(t, err, name)
	}
	_, err = s.FindCategoryByName(ctx, alice, "Dropped")
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = s.Savepoint(ctx, func(repo ports.Repository) error {
		_, err := repo.CreateCategory(ctx, core.Category{UserID: bob, Name: "Standalone"})
		return err
	})
	require.NoError(t, err)
	_, err = s.FindCategoryByName(ctx, bob, "Standalone")
	assert.NoError(t, err)
}
