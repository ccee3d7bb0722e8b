package storage

import (
	"context"
	"database/sql"

	"budget/internal/core"
)

const ruleColumns = `id, user_id, merchant_name, description_pattern, category_id, created_at, updated_at`

func scanRule(s scanner) (core.CategorizationRule, error) {
	var (
		r                    core.CategorizationRule
		merchant, pattern    sql.NullString
		createdAt, updatedAt timeValue
	)
	if err := s.Scan(&r.ID, &r.UserID, &merchant, &pattern, &r.CategoryID, &createdAt, &updatedAt); err != nil {
		return r, err
	}
	r.MerchantName = stringPtr(merchant)
	r.DescriptionPattern = stringPtr(pattern)
	r.CreatedAt = createdAt.Time
	r.UpdatedAt = updatedAt.Time
	return r, nil
}

func (q *Queries) FindRuleByMerchant(ctx context.Context, userID int64, merchant string) (core.CategorizationRule, error) {
	r, err := scanRule(q.queryRow(ctx,
		`SELECT `+ruleColumns+` FROM categorization_rules WHERE user_id = ? AND merchant_name = ?`,
		userID, merchant))
	return r, mapErr(err, "find rule by merchant")
}

func (q *Queries) FindRuleByDescription(ctx context.Context, userID int64, pattern string) (core.CategorizationRule, error) {
	r, err := scanRule(q.queryRow(ctx,
		`SELECT `+ruleColumns+` FROM categorization_rules WHERE user_id = ? AND description_pattern = ?`,
		userID, pattern))
	return r, mapErr(err, "find rule by description")
}

func (q *Queries) ListDescriptionRules(ctx context.Context, userID int64) ([]core.CategorizationRule, error) {
	rows, err := q.query(ctx,
		`SELECT `+ruleColumns+` FROM categorization_rules
		 WHERE user_id = ? AND description_pattern IS NOT NULL AND description_pattern <> ''
		 ORDER BY id`, userID)
	if err != nil {
		return nil, mapErr(err, "list description rules")
	}
	items, err := collect(rows, scanRule)
	return items, mapErr(err, "list description rules")
}

func (q *Queries) ListRules(ctx context.Context, userID int64) ([]core.CategorizationRule, error) {
	rows, err := q.query(ctx,
		`SELECT `+ruleColumns+` FROM categorization_rules WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, mapErr(err, "list rules")
	}
	items, err := collect(rows, scanRule)
	return items, mapErr(err, "list rules")
}

func (q *Queries) CreateRule(ctx context.Context, r core.CategorizationRule) (core.CategorizationRule, error) {
	now := q.now()
	r.CreatedAt, r.UpdatedAt = now, now
	err := q.queryRow(ctx,
		`INSERT INTO categorization_rules (user_id, merchant_name, description_pattern, category_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		r.UserID, nullString(r.MerchantName), nullString(r.DescriptionPattern), r.CategoryID, now, now).Scan(&r.ID)
	return r, mapErr(err, "create rule")
}

func (q *Queries) UpdateRuleCategory(ctx context.Context, userID, ruleID, categoryID int64) (core.CategorizationRule, error) {
	r, err := scanRule(q.queryRow(ctx,
		`UPDATE categorization_rules SET category_id = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?
		 RETURNING `+ruleColumns,
		categoryID, q.now(), ruleID, userID))
	return r, mapErr(err, "update rule category")
}
