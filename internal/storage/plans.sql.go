package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

func scanPlan(s scanner) (core.Plan, error) {
	var p core.Plan
	err := s.Scan(&p.ID, &p.UserID, &p.Year, &p.Month)
	return p, err
}

func (q *Queries) GetPlan(ctx context.Context, userID, id int64) (core.Plan, error) {
	p, err := scanPlan(q.queryRow(ctx,
		`SELECT id, user_id, year, month FROM plans WHERE id = ? AND user_id = ?`, id, userID))
	return p, mapErr(err, "get plan")
}

func (q *Queries) FindPlan(ctx context.Context, userID int64, year, month int) (core.Plan, error) {
	p, err := scanPlan(q.queryRow(ctx,
		`SELECT id, user_id, year, month FROM plans WHERE user_id = ? AND year = ? AND month = ?`,
		userID, year, month))
	return p, mapErr(err, "find plan")
}

func (q *Queries) CreatePlan(ctx context.Context, p core.Plan) (core.Plan, error) {
	err := q.queryRow(ctx,
		`INSERT INTO plans (user_id, year, month) VALUES (?, ?, ?) RETURNING id`,
		p.UserID, p.Year, p.Month).Scan(&p.ID)
	return p, mapErr(err, "create plan")
}

func (q *Queries) ListPlans(ctx context.Context, userID int64, year int) ([]core.Plan, error) {
	query := `SELECT id, user_id, year, month FROM plans WHERE user_id = ?`
	args := []any{userID}
	if year != 0 {
		query += ` AND year = ?`
		args = append(args, year)
	}
	rows, err := q.query(ctx, query+` ORDER BY year, month`, args...)
	if err != nil {
		return nil, mapErr(err, "list plans")
	}
	items, err := collect(rows, scanPlan)
	return items, mapErr(err, "list plans")
}

func scanCategoryLimit(s scanner) (core.CategoryLimit, error) {
	var (
		l     core.CategoryLimit
		limit decimal.Decimal
	)
	if err := s.Scan(&l.ID, &l.UserID, &l.PlanID, &l.CategoryID, &limit); err != nil {
		return l, err
	}
	l.Limit = limit
	return l, nil
}

func (q *Queries) UpsertCategoryLimit(ctx context.Context, l core.CategoryLimit) (core.CategoryLimit, error) {
	l.Limit = core.RoundAmount(l.Limit)
	err := q.queryRow(ctx,
		`INSERT INTO category_limits (user_id, plan_id, category_id, limit_amount)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (category_id, plan_id) DO UPDATE SET limit_amount = excluded.limit_amount
		 RETURNING id`,
		l.UserID, l.PlanID, l.CategoryID, l.Limit.StringFixed(core.Cents)).Scan(&l.ID)
	return l, mapErr(err, "upsert category limit")
}

func (q *Queries) ListCategoryLimits(ctx context.Context, userID, planID int64) ([]core.CategoryLimit, error) {
	rows, err := q.query(ctx,
		`SELECT id, user_id, plan_id, category_id, limit_amount FROM category_limits
		 WHERE user_id = ? AND plan_id = ? ORDER BY id`, userID, planID)
	if err != nil {
		return nil, mapErr(err, "list category limits")
	}
	items, err := collect(rows, scanCategoryLimit)
	return items, mapErr(err, "list category limits")
}

func (q *Queries) DeleteCategoryLimit(ctx context.Context, userID, planID, categoryID int64) error {
	res, err := q.exec(ctx,
		`DELETE FROM category_limits WHERE user_id = ? AND plan_id = ? AND category_id = ?`,
		userID, planID, categoryID)
	return affectedOne(res, err, "delete category limit")
}

func scanGroupLimit(s scanner) (core.RareExpense, error) {
	var (
		e      core.RareExpense
		amount decimal.Decimal
	)
	if err := s.Scan(&e.CategoryID, &e.CategoryName, &amount, &e.Due.Year, &e.Due.Month); err != nil {
		return e, err
	}
	e.Amount = amount
	return e, nil
}

func (q *Queries) ListGroupLimits(ctx context.Context, userID, mainCategoryID int64, from, to core.YearMonth) ([]core.RareExpense, error) {
	rows, err := q.query(ctx,
		`SELECT c.id, c.name, cl.limit_amount, p.year, p.month
		 FROM category_limits cl
		 JOIN plans p ON p.id = cl.plan_id
		 JOIN categories c ON c.id = cl.category_id
		 JOIN main_category_categories mcc ON mcc.category_id = c.id
		 WHERE cl.user_id = ? AND p.user_id = ? AND c.user_id = ?
		   AND mcc.main_category_id = ?
		   AND (p.year * 12 + p.month) BETWEEN ? AND ?
		 ORDER BY p.year, p.month, c.name`,
		userID, userID, userID, mainCategoryID,
		from.Year*12+from.Month, to.Year*12+to.Month)
	if err != nil {
		return nil, mapErr(err, "list group limits")
	}
	items, err := collect(rows, scanGroupLimit)
	return items, mapErr(err, "list group limits")
}
