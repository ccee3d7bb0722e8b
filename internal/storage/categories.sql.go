package storage

import (
	"context"

	"budget/internal/core"
)

const categoryColumns = `id, user_id, name`

func scanCategory(s scanner) (core.Category, error) {
	var c core.Category
	err := s.Scan(&c.ID, &c.UserID, &c.Name)
	return c, err
}

func (q *Queries) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	c, err := scanCategory(q.queryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID))
	return c, mapErr(err, "get category")
}

func (q *Queries) FindCategoryByName(ctx context.Context, userID int64, name string) (core.Category, error) {
	c, err := scanCategory(q.queryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? AND name = ?`, userID, name))
	return c, mapErr(err, "find category")
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	err := q.queryRow(ctx,
		`INSERT INTO categories (user_id, name) VALUES (?, ?) RETURNING id`,
		c.UserID, c.Name).Scan(&c.ID)
	return c, mapErr(err, "create category")
}

func (q *Queries) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := q.query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, mapErr(err, "list categories")
	}
	items, err := collect(rows, scanCategory)
	return items, mapErr(err, "list categories")
}

func scanMainCategory(s scanner) (core.MainCategory, error) {
	var m core.MainCategory
	err := s.Scan(&m.ID, &m.UserID, &m.Name)
	return m, err
}

func (q *Queries) GetMainCategory(ctx context.Context, userID, id int64) (core.MainCategory, error) {
	m, err := scanMainCategory(q.queryRow(ctx,
		`SELECT id, user_id, name FROM main_categories WHERE id = ? AND user_id = ?`, id, userID))
	return m, mapErr(err, "get main category")
}

func (q *Queries) FindMainCategoryByName(ctx context.Context, userID int64, name string) (core.MainCategory, error) {
	m, err := scanMainCategory(q.queryRow(ctx,
		`SELECT id, user_id, name FROM main_categories
		 WHERE user_id = ? AND lower(name) = lower(?)
		 ORDER BY id LIMIT 1`, userID, name))
	return m, mapErr(err, "find main category")
}

func (q *Queries) CreateMainCategory(ctx context.Context, m core.MainCategory) (core.MainCategory, error) {
	err := q.queryRow(ctx,
		`INSERT INTO main_categories (user_id, name) VALUES (?, ?) RETURNING id`,
		m.UserID, m.Name).Scan(&m.ID)
	return m, mapErr(err, "create main category")
}

func (q *Queries) AddCategoryToMainCategory(ctx context.Context, mainCategoryID, categoryID int64) error {
	_, err := q.exec(ctx,
		`INSERT INTO main_category_categories (main_category_id, category_id) VALUES (?, ?)
		 ON CONFLICT (main_category_id, category_id) DO NOTHING`, mainCategoryID, categoryID)
	return mapErr(err, "add category to main category")
}

func (q *Queries) RemoveCategoryFromMainCategory(ctx context.Context, mainCategoryID, categoryID int64) error {
	res, err := q.exec(ctx,
		`DELETE FROM main_category_categories WHERE main_category_id = ? AND category_id = ?`,
		mainCategoryID, categoryID)
	return affectedOne(res, err, "remove category from main category")
}

func (q *Queries) ListMainCategories(ctx context.Context, userID int64) ([]core.MainCategory, error) {
	rows, err := q.query(ctx,
		`SELECT id, user_id, name FROM main_categories WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, mapErr(err, "list main categories")
	}
	items, err := collect(rows, scanMainCategory)
	return items, mapErr(err, "list main categories")
}

func (q *Queries) ListMainCategoryMembers(ctx context.Context, userID, mainCategoryID int64) ([]core.Category, error) {
	rows, err := q.query(ctx,
		`SELECT c.id, c.user_id, c.name
		 FROM categories c
		 JOIN main_category_categories mcc ON mcc.category_id = c.id
		 WHERE c.user_id = ? AND mcc.main_category_id = ?
		 ORDER BY c.name`, userID, mainCategoryID)
	if err != nil {
		return nil, mapErr(err, "list main category members")
	}
	items, err := collect(rows, scanCategory)
	return items, mapErr(err, "list main category members")
}
