package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Errorf("ParseDate() = %v, want 2024-02-29", d)
	}
	if _, err := ParseDate("29/02/2024"); err == nil {
		t.Errorf("ParseDate() expected error for non-ISO date")
	}
}

func TestStrPtr(t *testing.T) {
	if StrPtr("") != nil || StrPtr("   ") != nil {
		t.Fatalf("StrPtr() of blank string should be nil")
	}
	if p := StrPtr("ALDI"); p == nil || *p != "ALDI" {
		t.Fatalf("StrPtr(ALDI) = %v", p)
	}
	if Deref(nil) != "" {
		t.Fatalf("Deref(nil) should be empty")
	}
}

func TestCategorizationRuleKeyed(t *testing.T) {
	empty := ""
	cases := []struct {
		name string
		rule CategorizationRule
		want bool
	}{
		{"merchant only", CategorizationRule{MerchantName: StrPtr("ALDI")}, true},
		{"description only", CategorizationRule{DescriptionPattern: StrPtr("NETFLIX")}, true},
		{"both", CategorizationRule{MerchantName: StrPtr("ALDI"), DescriptionPattern: StrPtr("ALDI 123")}, true},
		{"none", CategorizationRule{}, false},
		{"empty strings", CategorizationRule{MerchantName: &empty, DescriptionPattern: &empty}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rule.Keyed(); got != tc.want {
				t.Errorf("Keyed() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		UserID:        1,
		OperationDate: NewDate(2025, 1, 1),
		Description:   "CARD PAYMENT",
		Amount:        decimal.RequireFromString("-12.30"),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noDesc := good
	noDesc.Description = "  "
	if err := noDesc.Validate(); !errors.Is(err, ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}

	noDate := good
	noDate.OperationDate = Date{}
	if err := noDate.Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}

func TestTransactionIsIncome(t *testing.T) {
	cases := []struct {
		amount string
		want   bool
	}{
		{"-0.01", false},
		{"0", true},
		{"100.00", true},
	}
	for _, tc := range cases {
		tx := Transaction{Amount: decimal.RequireFromString(tc.amount)}
		if got := tx.IsIncome(); got != tc.want {
			t.Errorf("IsIncome(%s) = %v, want %v", tc.amount, got, tc.want)
		}
	}
}

func TestPlanValidate(t *testing.T) {
	if err := (Plan{Year: 2025, Month: 12}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Plan{Year: 2025, Month: 13}).Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if err := (Plan{Year: 0, Month: 1}).Validate(); err == nil {
		t.Fatalf("expected error for year 0")
	}
}

func TestRawTransactionToTransaction(t *testing.T) {
	conn := int64(7)
	raw := RawTransaction{
		OperationDate:     "2025-03-01",
		Description:       "  NETFLIX.COM ",
		Amount:            "-43,00",
		MerchantName:      "",
		BankTransactionID: "tx-1",
	}

	tx, err := raw.ToTransaction(3, &conn)
	if err != nil {
		t.Fatalf("ToTransaction() error = %v", err)
	}
	if tx.UserID != 3 || tx.Description != "NETFLIX.COM" || tx.Amount.String() != "-43" {
		t.Errorf("ToTransaction() = %+v", tx)
	}
	if tx.MerchantName != nil {
		t.Errorf("empty merchant should become nil")
	}
	if Deref(tx.BankTransactionID) != "tx-1" || *tx.BankConnectionID != 7 {
		t.Errorf("bank identifiers not carried over: %+v", tx)
	}

	bad := []RawTransaction{
		{OperationDate: "", Description: "x", Amount: "1"},
		{OperationDate: "2025-03-01", Description: "x", Amount: "n/a"},
		{OperationDate: "2025-03-01", Description: " ", Amount: "1"},
	}
	for i, r := range bad {
		if _, err := r.ToTransaction(1, nil); err == nil {
			t.Errorf("case %d expected error", i)
		}
	}
}
