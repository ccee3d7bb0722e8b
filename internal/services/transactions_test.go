package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budget/internal/core"
)

func TestTransactionService_List(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for day := 1; day <= 3; day++ {
		mustTransaction(t, s, core.Transaction{OperationDate: core.NewDate(2024, 3, day), Description: "tx", Amount: dec("-1")})
	}
	svc := NewTransactionService(s)

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default limit", 0, 3},
		{"explicit limit", 2, 2},
		{"over the cap", MaxTransactionLimit + 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, testUser, tt.limit)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("List() = %d transactions, want %d", len(got), tt.want)
			}
			if got[0].OperationDate != core.NewDate(2024, 3, 3) {
				t.Errorf("first = %s, want newest 2024-03-03", got[0].OperationDate)
			}
		})
	}
}

func TestTransactionService_Summary(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	food := mustCategory(t, s, testUser, "Food")
	rent := mustCategory(t, s, testUser, "Rent")
	fun := mustCategory(t, s, testUser, "Fun")
	add := func(date core.Date, amount string, categoryID *int64) {
		t.Helper()
		mustTransaction(t, s, core.Transaction{OperationDate: date, Description: "tx", Amount: dec(amount), CategoryID: categoryID})
	}
	add(core.NewDate(2024, 3, 2), "-20", &food.ID)
	add(core.NewDate(2024, 3, 9), "-15.50", &food.ID)
	add(core.NewDate(2024, 3, 1), "-800", &rent.ID)
	add(core.NewDate(2024, 3, 20), "-5", &fun.ID)
	add(core.NewDate(2024, 1, 10), "-40", &fun.ID)
	add(core.NewDate(2023, 12, 31), "-1000", &rent.ID)

	svc := NewTransactionService(s)
	asOf := time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC)

	t.Run("month", func(t *testing.T) {
		got, err := svc.Summary(ctx, testUser, core.PeriodMonth, asOf, 0)
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if got.From != core.NewDate(2024, 3, 1) || got.To != core.NewDate(2024, 3, 31) {
			t.Errorf("range = %s..%s, want 2024-03-01..2024-03-31", got.From, got.To)
		}
		if !got.Total.Equal(dec("-840.50")) {
			t.Errorf("total = %s, want -840.50", got.Total)
		}
		wantNames := []string{"Fun", "Food", "Rent"}
		if len(got.ByCategory) != len(wantNames) {
			t.Fatalf("categories = %+v, want %v", got.ByCategory, wantNames)
		}
		for i, name := range wantNames {
			if got.ByCategory[i].Name != name {
				t.Errorf("category[%d] = %s, want %s", i, got.ByCategory[i].Name, name)
			}
		}
		if got.ByCategory[1].Count != 2 || !got.ByCategory[1].Amount.Equal(dec("-35.50")) {
			t.Errorf("food = %+v, want 2 transactions totalling -35.50", got.ByCategory[1])
		}
	})

	t.Run("year with top", func(t *testing.T) {
		got, err := svc.Summary(ctx, testUser, core.PeriodYear, asOf, 1)
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if len(got.ByCategory) != 1 || got.ByCategory[0].Name != "Fun" {
			t.Errorf("top categories = %+v, want only Fun", got.ByCategory)
		}
		if !got.Total.Equal(dec("-880.50")) {
			t.Errorf("total = %s, want -880.50 over every category", got.Total)
		}
	})

	t.Run("all time", func(t *testing.T) {
		got, err := svc.Summary(ctx, testUser, core.PeriodAll, asOf, 0)
		if err != nil {
			t.Fatalf("Summary() error = %v", err)
		}
		if !got.Total.Equal(dec("-1880.50")) {
			t.Errorf("total = %s, want -1880.50", got.Total)
		}
	})

	t.Run("negative top", func(t *testing.T) {
		if _, err := svc.Summary(ctx, testUser, core.PeriodMonth, asOf, -1); !errors.Is(err, core.ErrValidation) {
			t.Errorf("Summary() error = %v, want %v", err, core.ErrValidation)
		}
	})
}
