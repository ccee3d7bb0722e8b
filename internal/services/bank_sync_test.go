package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"budget/internal/bank"
	"budget/internal/core"
)

// fakeBank serves one page per access token and records the cursors it was asked for
type fakeBank struct {
	mu      sync.Mutex
	pages   map[string]bank.Page
	cursors map[string]string
	err     error
}

func (f *fakeBank) Name() string { return "fake" }

func (f *fakeBank) Sync(_ context.Context, token, cursor string) (bank.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return bank.Page{}, f.err
	}
	if f.cursors == nil {
		f.cursors = map[string]string{}
	}
	f.cursors[token] = cursor
	return f.pages[token], nil
}

func TestBankSync_SyncConnections(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	provider := &fakeBank{pages: map[string]bank.Page{
		"tok-a": {Added: []core.RawTransaction{
			raw("2024-03-01", "SPESA", "-10", "Coop", "a1"),
			raw("2024-03-02", "SPESA", "-11", "Coop", "a2"),
		}, NextCursor: "a-next"},
		"tok-b": {Added: []core.RawTransaction{
			raw("2024-03-03", "BENZINA", "-50", "", "b1"),
		}, NextCursor: "b-next"},
	}}

	im := NewImporter(s, NewMatcher(), NewRuleStore(), ImportOptions{SkipIncome: true})
	bs := NewBankSync(s, provider, im, 2)

	a, err := bs.Connect(ctx, testUser, "tok-a")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	b, err := bs.Connect(ctx, testUser, "tok-b")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if a.ProviderName != "fake" {
		t.Errorf("ProviderName = %q, want fake", a.ProviderName)
	}

	got, err := bs.SyncConnections(ctx, testUser, []int64{a.ID, b.ID})
	if err != nil {
		t.Fatalf("SyncConnections() error = %v", err)
	}
	if got.Imported != 3 {
		t.Errorf("SyncConnections() imported %d, want 3", got.Imported)
	}

	for id, want := range map[int64]string{a.ID: "a-next", b.ID: "b-next"} {
		conn, _ := s.GetBankConnection(ctx, testUser, id)
		if conn.SyncCursor != want {
			t.Errorf("connection %d cursor = %q, want %q", id, conn.SyncCursor, want)
		}
	}

	txs, _ := s.ListTransactions(ctx, testUser, 0)
	for _, tx := range txs {
		if tx.BankConnectionID == nil {
			t.Errorf("transaction %q has no bank connection", tx.Description)
		}
	}

	again, err := bs.SyncConnection(ctx, testUser, a.ID)
	if err != nil {
		t.Fatalf("SyncConnection() error = %v", err)
	}
	if again.Duplicates != 2 || again.Imported != 0 {
		t.Errorf("second sync = %+v, want only duplicates", again)
	}
	if provider.cursors["tok-a"] != "a-next" {
		t.Errorf("second sync used cursor %q, want a-next", provider.cursors["tok-a"])
	}
}

func TestBankSync_FetchErrorKeepsCursor(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	provider := &fakeBank{}
	bs := NewBankSync(s, provider, NewImporter(s, NewMatcher(), NewRuleStore(), ImportOptions{}), 1)

	conn, err := bs.Connect(ctx, testUser, "tok")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := s.UpdateSyncCursor(ctx, testUser, conn.ID, "start"); err != nil {
		t.Fatalf("UpdateSyncCursor() error = %v", err)
	}

	provider.err = errBoom
	if _, err := bs.SyncConnection(ctx, testUser, conn.ID); !errors.Is(err, errBoom) {
		t.Fatalf("SyncConnection() error = %v, want %v", err, errBoom)
	}
	got, _ := s.GetBankConnection(ctx, testUser, conn.ID)
	if got.SyncCursor != "start" {
		t.Errorf("cursor = %q, want unchanged", got.SyncCursor)
	}
}

func TestBankSync_UnknownConnection(t *testing.T) {
	s := newStore(t)
	bs := NewBankSync(s, &fakeBank{}, NewImporter(s, NewMatcher(), NewRuleStore(), ImportOptions{}), 1)

	if _, err := bs.SyncConnection(context.Background(), testUser, 4242); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("SyncConnection() error = %v, want %v", err, core.ErrNotFound)
	}
	if _, err := bs.Connect(context.Background(), testUser, ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Connect(\"\") error = %v, want %v", err, core.ErrValidation)
	}
}
