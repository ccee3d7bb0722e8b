package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	Date struct {
		time.Time
	}

	Category struct {
		ID     int64
		UserID int64
		Name   string
	}

	MainCategory struct {
		ID     int64
		UserID int64
		Name   string
	}

	// Plan is a user's monthly budget
	Plan struct {
		ID     int64
		UserID int64
		Year   int
		Month  int // 1-12
	}

	CategoryLimit struct {
		ID         int64
		UserID     int64
		PlanID     int64
		CategoryID int64
		Limit      decimal.Decimal
	}

	// CategorizationRule maps a merchant name or a description pattern to a category.
	// Either key may be nil but never both.
	CategorizationRule struct {
		ID                 int64
		UserID             int64
		MerchantName       *string
		DescriptionPattern *string
		CategoryID         int64
		CreatedAt          time.Time
		UpdatedAt          time.Time
	}

	Transaction struct {
		ID                int64
		UserID            int64
		OperationDate     Date
		Description       string
		Amount            decimal.Decimal
		CategoryID        *int64
		MerchantName      *string
		BankTransactionID *string
		BankConnectionID  *int64
		AccountName       string
		CreatedAt         time.Time
	}

	BankConnection struct {
		ID           int64
		UserID       int64
		ProviderName string
		AccessToken  string
		SyncCursor   string
		CreatedAt    time.Time
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrMissingCriterion = errors.New("rule needs a merchant name or a description pattern")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")

	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts ISO dates (2024-03-15)
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// StrPtr returns a pointer to s, or nil when s is blank
func StrPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Present reports whether s points to a non-blank string
func Present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (p Plan) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 1900 || p.Year > 9999 {
		return errors.New("invalid year")
	}
	return nil
}

func (l CategoryLimit) Validate() error {
	if l.Limit.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Keyed reports whether the rule has at least one usable matching key
func (r CategorizationRule) Keyed() bool {
	return Present(r.MerchantName) || Present(r.DescriptionPattern)
}

func (t Transaction) Validate() error {
	if err := t.OperationDate.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

// IsIncome reports whether the transaction credits the account
func (t Transaction) IsIncome() bool {
	return !t.Amount.IsNegative()
}
