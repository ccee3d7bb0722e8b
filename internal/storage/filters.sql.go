package storage

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

const filterRuleColumns = `id, user_id, description_pattern, merchant_name, min_amount, max_amount, is_active, created_at`

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func decimalPtr(nd decimal.NullDecimal) *decimal.Decimal {
	if !nd.Valid {
		return nil
	}
	d := nd.Decimal
	return &d
}

func scanFilterRule(s scanner) (core.FilterRule, error) {
	var (
		r                    core.FilterRule
		pattern, merchant    sql.NullString
		minAmount, maxAmount decimal.NullDecimal
		createdAt            timeValue
	)
	if err := s.Scan(&r.ID, &r.UserID, &pattern, &merchant, &minAmount, &maxAmount, &r.IsActive, &createdAt); err != nil {
		return r, err
	}
	r.DescriptionPattern = stringPtr(pattern)
	r.MerchantName = stringPtr(merchant)
	r.MinAmount = decimalPtr(minAmount)
	r.MaxAmount = decimalPtr(maxAmount)
	r.CreatedAt = createdAt.Time
	return r, nil
}

func (q *Queries) ListFilterRules(ctx context.Context, userID int64, activeOnly bool) ([]core.FilterRule, error) {
	query := `SELECT ` + filterRuleColumns + ` FROM transaction_filter_rules WHERE user_id = ?`
	args := []any{userID}
	if activeOnly {
		query += ` AND is_active = ?`
		args = append(args, true)
	}
	rows, err := q.query(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, mapErr(err, "list filter rules")
	}
	items, err := collect(rows, scanFilterRule)
	return items, mapErr(err, "list filter rules")
}

func (q *Queries) GetFilterRule(ctx context.Context, userID, id int64) (core.FilterRule, error) {
	r, err := scanFilterRule(q.queryRow(ctx,
		`SELECT `+filterRuleColumns+` FROM transaction_filter_rules WHERE id = ? AND user_id = ?`, id, userID))
	return r, mapErr(err, "get filter rule")
}

func (q *Queries) CreateFilterRule(ctx context.Context, r core.FilterRule) (core.FilterRule, error) {
	r.CreatedAt = q.now()
	err := q.queryRow(ctx,
		`INSERT INTO transaction_filter_rules
			(user_id, description_pattern, merchant_name, min_amount, max_amount, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		r.UserID, nullString(r.DescriptionPattern), nullString(r.MerchantName),
		nullDecimal(r.MinAmount), nullDecimal(r.MaxAmount), r.IsActive, r.CreatedAt).Scan(&r.ID)
	return r, mapErr(err, "create filter rule")
}

func (q *Queries) UpdateFilterRule(ctx context.Context, r core.FilterRule) (core.FilterRule, error) {
	res, err := q.exec(ctx,
		`UPDATE transaction_filter_rules
		 SET description_pattern = ?, merchant_name = ?, min_amount = ?, max_amount = ?, is_active = ?
		 WHERE id = ? AND user_id = ?`,
		nullString(r.DescriptionPattern), nullString(r.MerchantName),
		nullDecimal(r.MinAmount), nullDecimal(r.MaxAmount), r.IsActive, r.ID, r.UserID)
	if err := affectedOne(res, err, "update filter rule"); err != nil {
		return core.FilterRule{}, err
	}
	return q.GetFilterRule(ctx, r.UserID, r.ID)
}

func (q *Queries) DeleteFilterRule(ctx context.Context, userID, id int64) error {
	res, err := q.exec(ctx,
		`DELETE FROM transaction_filter_rules WHERE id = ? AND user_id = ?`, id, userID)
	return affectedOne(res, err, "delete filter rule")
}
