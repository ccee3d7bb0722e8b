package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

const transactionColumns = `id, user_id, operation_date, description, amount, category_id,
	merchant_name, bank_transaction_id, bank_connection_id, account_name, created_at`

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                  core.Transaction
		opDate, createdAt  timeValue
		amount             decimal.Decimal
		categoryID, connID sql.NullInt64
		merchant, bankTxID sql.NullString
	)
	if err := s.Scan(&t.ID, &t.UserID, &opDate, &t.Description, &amount, &categoryID,
		&merchant, &bankTxID, &connID, &t.AccountName, &createdAt); err != nil {
		return t, err
	}
	t.OperationDate = opDate.date()
	t.Amount = amount
	t.CategoryID = intPtr(categoryID)
	t.MerchantName = stringPtr(merchant)
	t.BankTransactionID = stringPtr(bankTxID)
	t.BankConnectionID = intPtr(connID)
	t.CreatedAt = createdAt.Time
	return t, nil
}

func (q *Queries) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(q.queryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID))
	return t, mapErr(err, "get transaction")
}

func (q *Queries) ListTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		 WHERE user_id = ? ORDER BY operation_date DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "list transactions")
	}
	items, err := collect(rows, scanTransaction)
	return items, mapErr(err, "list transactions")
}

// CreateTransaction skips rows whose bank transaction id already exists
// without failing the enclosing transaction
func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Amount = core.RoundAmount(t.Amount)
	t.CreatedAt = q.now()
	err := q.queryRow(ctx,
		`INSERT INTO transactions (user_id, operation_date, description, amount, category_id,
			merchant_name, bank_transaction_id, bank_connection_id, account_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (bank_transaction_id) DO NOTHING
		 RETURNING id`,
		t.UserID, t.OperationDate.String(), t.Description, t.Amount.StringFixed(core.Cents), nullInt(t.CategoryID),
		nullString(t.MerchantName), nullString(t.BankTransactionID), nullInt(t.BankConnectionID),
		t.AccountName, t.CreatedAt).Scan(&t.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("create transaction: bank transaction %s: %w", core.Deref(t.BankTransactionID), core.ErrConflict)
	}
	return t, mapErr(err, "create transaction")
}

func (q *Queries) UpdateTransactionCategory(ctx context.Context, userID, id int64, categoryID *int64) error {
	res, err := q.exec(ctx,
		`UPDATE transactions SET category_id = ? WHERE id = ? AND user_id = ?`,
		nullInt(categoryID), id, userID)
	return affectedOne(res, err, "update transaction category")
}

func (q *Queries) BankTransactionExists(ctx context.Context, bankTransactionID string) (bool, error) {
	var n int
	err := q.queryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE bank_transaction_id = ?`, bankTransactionID).Scan(&n)
	if err != nil {
		return false, mapErr(err, "check bank transaction")
	}
	return n > 0, nil
}

func scanCategoryAmount(s scanner) (core.CategoryAmount, error) {
	var (
		a          core.CategoryAmount
		categoryID sql.NullInt64
		name       sql.NullString
		amount     decimal.Decimal
	)
	if err := s.Scan(&categoryID, &name, &amount); err != nil {
		return a, err
	}
	a.CategoryID = intPtr(categoryID)
	a.Name = name.String
	a.Amount = amount
	a.Count = 1
	return a, nil
}

// SumByCategory adds amounts in Go so SQLite's TEXT amounts keep their precision
func (q *Queries) SumByCategory(ctx context.Context, userID int64, from, to core.Date) ([]core.CategoryAmount, error) {
	rows, err := q.query(ctx,
		`SELECT t.category_id, c.name, t.amount
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ? AND t.operation_date >= ? AND t.operation_date <= ?`,
		userID, from.String(), to.String())
	if err != nil {
		return nil, mapErr(err, "sum by category")
	}
	entries, err := collect(rows, scanCategoryAmount)
	if err != nil {
		return nil, mapErr(err, "sum by category")
	}
	return core.SumByCategory(entries), nil
}
