package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/ports"
	"budget/internal/storage/storetest"
)

func openSQLite(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "data", "budget.db"))
	require.NoError(t, err)
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.Store { return openSQLite(t) })
}

func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(ctx, path)
	require.NoError(t, err)
	_, err = repo.CreateCategory(ctx, core.Category{UserID: 1, Name: "Food"})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// migrations are already applied, so reopening must not fail
	repo, err = NewSQLiteRepository(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	c, err := repo.FindCategoryByName(ctx, 1, "Food")
	require.NoError(t, err)
	assert.Equal(t, "Food", c.Name)
	assert.Equal(t, DialectSQLite, repo.Dialect())
}

func TestSQLiteRepository_ForeignKeys(t *testing.T) {
	repo := openSQLite(t)
	defer repo.Close()

	_, err := repo.CreateRule(context.Background(), core.CategorizationRule{
		UserID: 1, MerchantName: core.StrPtr("ACME"), CategoryID: 999,
	})
	assert.Error(t, err, "rules must point at an existing category")
}

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{DialectSQLite, "SELECT ? , ?", "SELECT ? , ?"},
		{DialectPostgres, "SELECT ? , ?", "SELECT $1 , $2"},
		{DialectPostgres, "UPDATE t SET a = ? WHERE id = ? AND user_id = ?", "UPDATE t SET a = $1 WHERE id = $2 AND user_id = $3"},
		{DialectPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.dialect.rebind(tt.in))
	}
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil, "x"))

	err := mapErr(sql.ErrNoRows, "get thing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Contains(t, err.Error(), "get thing")

	other := errors.New("disk full")
	err = mapErr(other, "write")
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, core.ErrConflict)
}

func TestTimeValue_Scan(t *testing.T) {
	inputs := []any{
		"2024-03-01",
		"2024-03-01 10:00:00",
		"2024-03-01T10:00:00Z",
		[]byte("2024-03-01 10:00:00.123456789+00:00"),
	}
	for _, in := range inputs {
		var tv timeValue
		require.NoError(t, tv.Scan(in), "input %v", in)
		assert.Equal(t, "2024-03-01", tv.date().String())
	}

	var tv timeValue
	require.NoError(t, tv.Scan(nil))
	assert.True(t, tv.IsZero())
	assert.Error(t, tv.Scan("yesterday"))
	assert.Error(t, tv.Scan(42))
}
