package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"budget/internal/ports"
)

// Queries holds hand-written statements for both dialects. It works on a
// plain connection pool or inside a transaction.
type Queries struct {
	db      DBTX
	dialect Dialect
	now     func() time.Time
}

func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithTx returns a copy of q bound to tx
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db:      tx,
		dialect: q.dialect,
		now:     q.now,
	}
}

const savepointName = "budget_sp"

// Savepoint wraps fn in SAVEPOINT/RELEASE when q is bound to a transaction.
// PostgreSQL aborts the whole transaction on a failed statement, so callers
// that recover from errors mid-transaction go through here.
func (q *Queries) Savepoint(ctx context.Context, fn func(repo ports.Repository) error) error {
	if _, ok := q.db.(*sql.Tx); !ok {
		return fn(q)
	}
	if _, err := q.db.ExecContext(ctx, "SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}
	if err := fn(q); err != nil {
		if _, rbErr := q.db.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepointName); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		if _, relErr := q.db.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName); relErr != nil {
			return errors.Join(err, fmt.Errorf("release savepoint: %w", relErr))
		}
		return err
	}
	if _, err := q.db.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.dialect.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.dialect.rebind(query), args...)
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.dialect.rebind(query), args...)
}

// collect drains rows through scan
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// affectedOne reports core.ErrNotFound through mapErr when nothing changed
func affectedOne(res sql.Result, err error, what string) error {
	if err != nil {
		return mapErr(err, what)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err, what)
	}
	if n == 0 {
		return mapErr(sql.ErrNoRows, what)
	}
	return nil
}
