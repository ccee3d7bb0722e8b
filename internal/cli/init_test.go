package cli

import (
	"context"
	"testing"
	"time"

	"budget/internal/bank"
	"budget/internal/config"
	"budget/internal/storage/memory"
)

type nopBank struct{}

func (nopBank) Name() string { return "nop" }

func (nopBank) Sync(context.Context, string, string) (bank.Page, error) { return bank.Page{}, nil }

func testConfig() *config.Config {
	return &config.Config{
		DataBackend:      "memory",
		SyncConcurrency:  2,
		SummaryCacheSize: 8,
		SummaryCacheTTL:  time.Minute,
		LogFormat:        "text",
	}
}

func TestBuildServices(t *testing.T) {
	store := memory.New()
	defer store.Close()

	svc := BuildServices(testConfig(), store, nil)
	defer svc.Close()
	if svc.BankSync != nil {
		t.Error("BankSync built without a provider")
	}
	if svc.Caches == nil {
		t.Error("summary cache manager not started")
	}
	if svc.Importer == nil || svc.Learner == nil || svc.Planning == nil || svc.Rare == nil || svc.Transactions == nil {
		t.Errorf("BuildServices() left services unset: %+v", svc)
	}

	cfg := testConfig()
	cfg.SummaryCacheSize = 0
	withBank := BuildServices(cfg, store, nopBank{})
	defer withBank.Close()
	if withBank.BankSync == nil {
		t.Error("BankSync not built with a provider")
	}
	if withBank.Caches != nil {
		t.Error("cache manager started with caching disabled")
	}
}

func TestNewBankProvider(t *testing.T) {
	p, err := NewBankProvider(testConfig())
	if err != nil || p != nil {
		t.Errorf("NewBankProvider() = %v, %v; want nil, nil without credentials", p, err)
	}

	cfg := testConfig()
	cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv = "id", "secret", "sandbox"
	p, err = NewBankProvider(cfg)
	if err != nil {
		t.Fatalf("NewBankProvider() error = %v", err)
	}
	if p.Name() != "plaid" {
		t.Errorf("provider name = %q, want plaid", p.Name())
	}

	cfg.PlaidEnv = "moon"
	if _, err := NewBankProvider(cfg); err == nil {
		t.Error("NewBankProvider() with unknown environment error = nil")
	}
}
