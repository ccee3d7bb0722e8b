// Package memory is an in-process ports.Store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/ports"
)

type membership struct {
	mainCategoryID int64
	categoryID     int64
}

type data struct {
	nextID       int64
	categories   map[int64]core.Category
	mainCats     map[int64]core.MainCategory
	members      map[membership]struct{}
	plans        map[int64]core.Plan
	limits       map[int64]core.CategoryLimit
	rules        map[int64]core.CategorizationRule
	transactions map[int64]core.Transaction
	filterRules  map[int64]core.FilterRule
	connections  map[int64]core.BankConnection
}

func newData() *data {
	return &data{
		categories:   map[int64]core.Category{},
		mainCats:     map[int64]core.MainCategory{},
		members:      map[membership]struct{}{},
		plans:        map[int64]core.Plan{},
		limits:       map[int64]core.CategoryLimit{},
		rules:        map[int64]core.CategorizationRule{},
		transactions: map[int64]core.Transaction{},
		filterRules:  map[int64]core.FilterRule{},
		connections:  map[int64]core.BankConnection{},
	}
}

// clone copies every table. Values hold pointers to immutable strings and
// decimals only, so a shallow copy per map is enough.
func (d *data) clone() *data {
	return &data{
		nextID:       d.nextID,
		categories:   maps.Clone(d.categories),
		mainCats:     maps.Clone(d.mainCats),
		members:      maps.Clone(d.members),
		plans:        maps.Clone(d.plans),
		limits:       maps.Clone(d.limits),
		rules:        maps.Clone(d.rules),
		transactions: maps.Clone(d.transactions),
		filterRules:  maps.Clone(d.filterRules),
		connections:  maps.Clone(d.connections),
	}
}

func (d *data) id() int64 {
	d.nextID++
	return d.nextID
}

// repo implements ports.Repository over one data snapshot. mu is nil inside
// a transaction because the store lock is already held.
type repo struct {
	mu  *sync.Mutex
	d   *data
	now func() time.Time
}

func (r *repo) lock() func() {
	if r.mu == nil {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

// Store keeps everything in memory. Transactions work on a copy that replaces
// the live data only when the callback succeeds.
type Store struct {
	*repo
	mu sync.Mutex
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	s := &Store{}
	s.repo = &repo{mu: &s.mu, d: newData(), now: func() time.Time { return time.Now().UTC() }}
	return s
}

func (s *Store) InTx(_ context.Context, fn func(repo ports.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &repo{d: s.repo.d.clone(), now: s.repo.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.repo.d = tx.d
	return nil
}

func (s *Store) Close() error { return nil }

// Savepoint runs fn on a copy of the transaction snapshot and keeps the copy
// only when fn succeeds
func (r *repo) Savepoint(_ context.Context, fn func(repo ports.Repository) error) error {
	if r.mu != nil {
		return fn(r)
	}
	sp := &repo{d: r.d.clone(), now: r.now}
	if err := fn(sp); err != nil {
		return err
	}
	r.d = sp.d
	return nil
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, core.ErrNotFound)
}

func conflict(what string) error {
	return fmt.Errorf("%s: %w", what, core.ErrConflict)
}

func sortedByID[T any](items map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(items))
	for id, it := range items {
		if keep(it) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, items[id])
	}
	return out
}

// Categories

func (r *repo) GetCategory(_ context.Context, userID, id int64) (core.Category, error) {
	defer r.lock()()
	c, ok := r.d.categories[id]
	if !ok || c.UserID != userID {
		return core.Category{}, notFound("get category")
	}
	return c, nil
}

func (r *repo) FindCategoryByName(_ context.Context, userID int64, name string) (core.Category, error) {
	defer r.lock()()
	for _, c := range r.d.categories {
		if c.UserID == userID && c.Name == name {
			return c, nil
		}
	}
	return core.Category{}, notFound("find category")
}

func (r *repo) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	defer r.lock()()
	for _, existing := range r.d.categories {
		if existing.UserID == c.UserID && existing.Name == c.Name {
			return core.Category{}, conflict("create category")
		}
	}
	c.ID = r.d.id()
	r.d.categories[c.ID] = c
	return c, nil
}

func (r *repo) ListCategories(_ context.Context, userID int64) ([]core.Category, error) {
	defer r.lock()()
	out := sortedByID(r.d.categories, func(c core.Category) bool { return c.UserID == userID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *repo) GetMainCategory(_ context.Context, userID, id int64) (core.MainCategory, error) {
	defer r.lock()()
	m, ok := r.d.mainCats[id]
	if !ok || m.UserID != userID {
		return core.MainCategory{}, notFound("get main category")
	}
	return m, nil
}

func (r *repo) FindMainCategoryByName(_ context.Context, userID int64, name string) (core.MainCategory, error) {
	defer r.lock()()
	for _, m := range sortedByID(r.d.mainCats, func(m core.MainCategory) bool { return m.UserID == userID }) {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return core.MainCategory{}, notFound("find main category")
}

func (r *repo) CreateMainCategory(_ context.Context, m core.MainCategory) (core.MainCategory, error) {
	defer r.lock()()
	for _, existing := range r.d.mainCats {
		if existing.UserID == m.UserID && existing.Name == m.Name {
			return core.MainCategory{}, conflict("create main category")
		}
	}
	m.ID = r.d.id()
	r.d.mainCats[m.ID] = m
	return m, nil
}

func (r *repo) ListMainCategories(_ context.Context, userID int64) ([]core.MainCategory, error) {
	defer r.lock()()
	out := sortedByID(r.d.mainCats, func(m core.MainCategory) bool { return m.UserID == userID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *repo) ListMainCategoryMembers(_ context.Context, userID, mainCategoryID int64) ([]core.Category, error) {
	defer r.lock()()
	out := sortedByID(r.d.categories, func(c core.Category) bool {
		_, member := r.d.members[membership{mainCategoryID, c.ID}]
		return c.UserID == userID && member
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *repo) AddCategoryToMainCategory(_ context.Context, mainCategoryID, categoryID int64) error {
	defer r.lock()()
	r.d.members[membership{mainCategoryID, categoryID}] = struct{}{}
	return nil
}

func (r *repo) RemoveCategoryFromMainCategory(_ context.Context, mainCategoryID, categoryID int64) error {
	defer r.lock()()
	key := membership{mainCategoryID, categoryID}
	if _, ok := r.d.members[key]; !ok {
		return notFound("remove category from main category")
	}
	delete(r.d.members, key)
	return nil
}

// Rules

func (r *repo) findRule(userID int64, match func(core.CategorizationRule) bool) (core.CategorizationRule, bool) {
	for _, rule := range r.d.rules {
		if rule.UserID == userID && match(rule) {
			return rule, true
		}
	}
	return core.CategorizationRule{}, false
}

func (r *repo) FindRuleByMerchant(_ context.Context, userID int64, merchant string) (core.CategorizationRule, error) {
	defer r.lock()()
	rule, ok := r.findRule(userID, func(rule core.CategorizationRule) bool {
		return rule.MerchantName != nil && *rule.MerchantName == merchant
	})
	if !ok {
		return rule, notFound("find rule by merchant")
	}
	return rule, nil
}

func (r *repo) FindRuleByDescription(_ context.Context, userID int64, pattern string) (core.CategorizationRule, error) {
	defer r.lock()()
	rule, ok := r.findRule(userID, func(rule core.CategorizationRule) bool {
		return rule.DescriptionPattern != nil && *rule.DescriptionPattern == pattern
	})
	if !ok {
		return rule, notFound("find rule by description")
	}
	return rule, nil
}

func (r *repo) ListDescriptionRules(_ context.Context, userID int64) ([]core.CategorizationRule, error) {
	defer r.lock()()
	return sortedByID(r.d.rules, func(rule core.CategorizationRule) bool {
		return rule.UserID == userID && core.Present(rule.DescriptionPattern)
	}), nil
}

func (r *repo) ListRules(_ context.Context, userID int64) ([]core.CategorizationRule, error) {
	defer r.lock()()
	return sortedByID(r.d.rules, func(rule core.CategorizationRule) bool { return rule.UserID == userID }), nil
}

func (r *repo) CreateRule(_ context.Context, rule core.CategorizationRule) (core.CategorizationRule, error) {
	defer r.lock()()
	_, dup := r.findRule(rule.UserID, func(existing core.CategorizationRule) bool {
		return (rule.MerchantName != nil && existing.MerchantName != nil && *existing.MerchantName == *rule.MerchantName) ||
			(rule.DescriptionPattern != nil && existing.DescriptionPattern != nil && *existing.DescriptionPattern == *rule.DescriptionPattern)
	})
	if dup {
		return core.CategorizationRule{}, conflict("create rule")
	}
	now := r.now()
	rule.ID = r.d.id()
	rule.CreatedAt, rule.UpdatedAt = now, now
	r.d.rules[rule.ID] = rule
	return rule, nil
}

func (r *repo) UpdateRuleCategory(_ context.Context, userID, ruleID, categoryID int64) (core.CategorizationRule, error) {
	defer r.lock()()
	rule, ok := r.d.rules[ruleID]
	if !ok || rule.UserID != userID {
		return core.CategorizationRule{}, notFound("update rule category")
	}
	rule.CategoryID = categoryID
	rule.UpdatedAt = r.now()
	r.d.rules[ruleID] = rule
	return rule, nil
}

// Transactions

func (r *repo) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	defer r.lock()()
	t, ok := r.d.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, notFound("get transaction")
	}
	return t, nil
}

func (r *repo) ListTransactions(_ context.Context, userID int64, limit int) ([]core.Transaction, error) {
	defer r.lock()()
	out := sortedByID(r.d.transactions, func(t core.Transaction) bool { return t.UserID == userID })
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OperationDate.Equal(out[j].OperationDate.Time) {
			return out[i].OperationDate.After(out[j].OperationDate.Time)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *repo) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	defer r.lock()()
	if t.BankTransactionID != nil {
		for _, existing := range r.d.transactions {
			if existing.BankTransactionID != nil && *existing.BankTransactionID == *t.BankTransactionID {
				return core.Transaction{}, conflict("create transaction")
			}
		}
	}
	t.ID = r.d.id()
	t.Amount = core.RoundAmount(t.Amount)
	t.CreatedAt = r.now()
	r.d.transactions[t.ID] = t
	return t, nil
}

func (r *repo) UpdateTransactionCategory(_ context.Context, userID, id int64, categoryID *int64) error {
	defer r.lock()()
	t, ok := r.d.transactions[id]
	if !ok || t.UserID != userID {
		return notFound("update transaction category")
	}
	t.CategoryID = categoryID
	r.d.transactions[id] = t
	return nil
}

func (r *repo) BankTransactionExists(_ context.Context, bankTransactionID string) (bool, error) {
	defer r.lock()()
	for _, t := range r.d.transactions {
		if t.BankTransactionID != nil && *t.BankTransactionID == bankTransactionID {
			return true, nil
		}
	}
	return false, nil
}

func (r *repo) SumByCategory(_ context.Context, userID int64, from, to core.Date) ([]core.CategoryAmount, error) {
	defer r.lock()()
	var entries []core.CategoryAmount
	for _, t := range sortedByID(r.d.transactions, func(t core.Transaction) bool { return t.UserID == userID }) {
		if t.OperationDate.Before(from.Time) || t.OperationDate.After(to.Time) {
			continue
		}
		e := core.CategoryAmount{CategoryID: t.CategoryID, Amount: t.Amount, Count: 1}
		if t.CategoryID != nil {
			e.Name = r.d.categories[*t.CategoryID].Name
		}
		entries = append(entries, e)
	}
	return core.SumByCategory(entries), nil
}

// Filter rules

func (r *repo) ListFilterRules(_ context.Context, userID int64, activeOnly bool) ([]core.FilterRule, error) {
	defer r.lock()()
	return sortedByID(r.d.filterRules, func(f core.FilterRule) bool {
		return f.UserID == userID && (!activeOnly || f.IsActive)
	}), nil
}

func (r *repo) GetFilterRule(_ context.Context, userID, id int64) (core.FilterRule, error) {
	defer r.lock()()
	f, ok := r.d.filterRules[id]
	if !ok || f.UserID != userID {
		return core.FilterRule{}, notFound("get filter rule")
	}
	return f, nil
}

func (r *repo) CreateFilterRule(_ context.Context, f core.FilterRule) (core.FilterRule, error) {
	defer r.lock()()
	f.ID = r.d.id()
	f.CreatedAt = r.now()
	r.d.filterRules[f.ID] = f
	return f, nil
}

func (r *repo) UpdateFilterRule(_ context.Context, f core.FilterRule) (core.FilterRule, error) {
	defer r.lock()()
	existing, ok := r.d.filterRules[f.ID]
	if !ok || existing.UserID != f.UserID {
		return core.FilterRule{}, notFound("update filter rule")
	}
	f.CreatedAt = existing.CreatedAt
	r.d.filterRules[f.ID] = f
	return f, nil
}

func (r *repo) DeleteFilterRule(_ context.Context, userID, id int64) error {
	defer r.lock()()
	f, ok := r.d.filterRules[id]
	if !ok || f.UserID != userID {
		return notFound("delete filter rule")
	}
	delete(r.d.filterRules, id)
	return nil
}

// Plans

func (r *repo) GetPlan(_ context.Context, userID, id int64) (core.Plan, error) {
	defer r.lock()()
	p, ok := r.d.plans[id]
	if !ok || p.UserID != userID {
		return core.Plan{}, notFound("get plan")
	}
	return p, nil
}

func (r *repo) FindPlan(_ context.Context, userID int64, year, month int) (core.Plan, error) {
	defer r.lock()()
	for _, p := range r.d.plans {
		if p.UserID == userID && p.Year == year && p.Month == month {
			return p, nil
		}
	}
	return core.Plan{}, notFound("find plan")
}

func (r *repo) CreatePlan(_ context.Context, p core.Plan) (core.Plan, error) {
	defer r.lock()()
	for _, existing := range r.d.plans {
		if existing.UserID == p.UserID && existing.Year == p.Year && existing.Month == p.Month {
			return core.Plan{}, conflict("create plan")
		}
	}
	p.ID = r.d.id()
	r.d.plans[p.ID] = p
	return p, nil
}

func (r *repo) ListPlans(_ context.Context, userID int64, year int) ([]core.Plan, error) {
	defer r.lock()()
	out := sortedByID(r.d.plans, func(p core.Plan) bool {
		return p.UserID == userID && (year == 0 || p.Year == year)
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

func (r *repo) UpsertCategoryLimit(_ context.Context, l core.CategoryLimit) (core.CategoryLimit, error) {
	defer r.lock()()
	l.Limit = core.RoundAmount(l.Limit)
	for id, existing := range r.d.limits {
		if existing.CategoryID == l.CategoryID && existing.PlanID == l.PlanID {
			existing.Limit = l.Limit
			r.d.limits[id] = existing
			return existing, nil
		}
	}
	l.ID = r.d.id()
	r.d.limits[l.ID] = l
	return l, nil
}

func (r *repo) ListCategoryLimits(_ context.Context, userID, planID int64) ([]core.CategoryLimit, error) {
	defer r.lock()()
	return sortedByID(r.d.limits, func(l core.CategoryLimit) bool {
		return l.UserID == userID && l.PlanID == planID
	}), nil
}

func (r *repo) DeleteCategoryLimit(_ context.Context, userID, planID, categoryID int64) error {
	defer r.lock()()
	for id, l := range r.d.limits {
		if l.UserID == userID && l.PlanID == planID && l.CategoryID == categoryID {
			delete(r.d.limits, id)
			return nil
		}
	}
	return notFound("delete category limit")
}

func (r *repo) ListGroupLimits(_ context.Context, userID, mainCategoryID int64, from, to core.YearMonth) ([]core.RareExpense, error) {
	defer r.lock()()
	var out []core.RareExpense
	for _, l := range sortedByID(r.d.limits, func(l core.CategoryLimit) bool { return l.UserID == userID }) {
		if _, ok := r.d.members[membership{mainCategoryID, l.CategoryID}]; !ok {
			continue
		}
		p, ok := r.d.plans[l.PlanID]
		if !ok || p.UserID != userID {
			continue
		}
		c, ok := r.d.categories[l.CategoryID]
		if !ok || c.UserID != userID {
			continue
		}
		due := core.YearMonth{Year: p.Year, Month: p.Month}
		if due.Before(from) || to.Before(due) {
			continue
		}
		out = append(out, core.RareExpense{CategoryID: c.ID, CategoryName: c.Name, Amount: l.Limit, Due: due})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Due != out[j].Due {
			return out[i].Due.Before(out[j].Due)
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out, nil
}

// Bank connections

func (r *repo) GetBankConnection(_ context.Context, userID, id int64) (core.BankConnection, error) {
	defer r.lock()()
	c, ok := r.d.connections[id]
	if !ok || c.UserID != userID {
		return core.BankConnection{}, notFound("get bank connection")
	}
	return c, nil
}

func (r *repo) ListBankConnections(_ context.Context, userID int64) ([]core.BankConnection, error) {
	defer r.lock()()
	return sortedByID(r.d.connections, func(c core.BankConnection) bool { return c.UserID == userID }), nil
}

func (r *repo) CreateBankConnection(_ context.Context, c core.BankConnection) (core.BankConnection, error) {
	defer r.lock()()
	c.ID = r.d.id()
	c.CreatedAt = r.now()
	r.d.connections[c.ID] = c
	return c, nil
}

func (r *repo) UpdateSyncCursor(_ context.Context, userID, id int64, cursor string) error {
	defer r.lock()()
	c, ok := r.d.connections[id]
	if !ok || c.UserID != userID {
		return notFound("update sync cursor")
	}
	c.SyncCursor = cursor
	r.d.connections[id] = c
	return nil
}
