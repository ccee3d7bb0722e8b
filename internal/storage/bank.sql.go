package storage

import (
	"context"

	"budget/internal/core"
)

const bankConnectionColumns = `id, user_id, provider_name, access_token, sync_cursor, created_at`

func scanBankConnection(s scanner) (core.BankConnection, error) {
	var (
		c         core.BankConnection
		createdAt timeValue
	)
	err := s.Scan(&c.ID, &c.UserID, &c.ProviderName, &c.AccessToken, &c.SyncCursor, &createdAt)
	c.CreatedAt = createdAt.Time
	return c, err
}

func (q *Queries) GetBankConnection(ctx context.Context, userID, id int64) (core.BankConnection, error) {
	c, err := scanBankConnection(q.queryRow(ctx,
		`SELECT `+bankConnectionColumns+` FROM bank_connections WHERE id = ? AND user_id = ?`, id, userID))
	return c, mapErr(err, "get bank connection")
}

func (q *Queries) ListBankConnections(ctx context.Context, userID int64) ([]core.BankConnection, error) {
	rows, err := q.query(ctx,
		`SELECT `+bankConnectionColumns+` FROM bank_connections WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, mapErr(err, "list bank connections")
	}
	items, err := collect(rows, scanBankConnection)
	return items, mapErr(err, "list bank connections")
}

func (q *Queries) CreateBankConnection(ctx context.Context, c core.BankConnection) (core.BankConnection, error) {
	c.CreatedAt = q.now()
	err := q.queryRow(ctx,
		`INSERT INTO bank_connections (user_id, provider_name, access_token, sync_cursor, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		c.UserID, c.ProviderName, c.AccessToken, c.SyncCursor, c.CreatedAt).Scan(&c.ID)
	return c, mapErr(err, "create bank connection")
}

func (q *Queries) UpdateSyncCursor(ctx context.Context, userID, id int64, cursor string) error {
	res, err := q.exec(ctx,
		`UPDATE bank_connections SET sync_cursor = ? WHERE id = ? AND user_id = ?`, cursor, id, userID)
	return affectedOne(res, err, "update sync cursor")
}
