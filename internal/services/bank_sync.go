package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"budget/internal/bank"
	"budget/internal/core"
	"budget/internal/ports"
)

// BankSync pulls new transactions for bank connections and imports them
type BankSync struct {
	store       ports.Store
	provider    bank.Provider
	importer    *Importer
	concurrency int
}

func NewBankSync(store ports.Store, provider bank.Provider, importer *Importer, concurrency int) *BankSync {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BankSync{store: store, provider: provider, importer: importer, concurrency: concurrency}
}

type fetched struct {
	conn    core.BankConnection
	records []core.RawTransaction
	cursor  string
}

// SyncConnections fetches every connection concurrently, then imports and
// advances cursors one connection at a time. A connection's cursor only moves
// after its records were stored.
func (s *BankSync) SyncConnections(ctx context.Context, userID int64, connectionIDs []int64) (ImportResult, error) {
	results := make([]fetched, len(connectionIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range connectionIDs {
		g.Go(func() error {
			conn, err := s.store.GetBankConnection(gctx, userID, id)
			if err != nil {
				return fmt.Errorf("connection %d: %w", id, err)
			}
			records, cursor, err := bank.FetchAll(gctx, s.provider, conn.AccessToken, conn.SyncCursor)
			if err != nil {
				return fmt.Errorf("connection %d: %w", id, err)
			}
			results[i] = fetched{conn: conn, records: records, cursor: cursor}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ImportResult{}, fmt.Errorf("fetch transactions: %w", err)
	}

	var total ImportResult
	for _, f := range results {
		connID := f.conn.ID
		res, err := s.importer.Import(ctx, userID, &connID, f.records)
		if err != nil {
			return total, err
		}
		total.add(res)

		if err := s.store.UpdateSyncCursor(ctx, userID, connID, f.cursor); err != nil {
			return total, fmt.Errorf("save cursor for connection %d: %w", connID, err)
		}
		slog.InfoContext(ctx, "Bank connection synced",
			"user_id", userID,
			"bank_connection_id", connID,
			"provider", s.provider.Name(),
			"fetched", len(f.records))
	}
	return total, nil
}

func (s *BankSync) SyncConnection(ctx context.Context, userID, connectionID int64) (ImportResult, error) {
	return s.SyncConnections(ctx, userID, []int64{connectionID})
}

// Connect stores a new connection for the configured provider
func (s *BankSync) Connect(ctx context.Context, userID int64, accessToken string) (core.BankConnection, error) {
	if accessToken == "" {
		return core.BankConnection{}, fmt.Errorf("%w: access token is required", core.ErrValidation)
	}
	return s.store.CreateBankConnection(ctx, core.BankConnection{
		UserID:       userID,
		ProviderName: s.provider.Name(),
		AccessToken:  accessToken,
	})
}
