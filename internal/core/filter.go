package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FilterRule suppresses matching transactions before they are imported
type FilterRule struct {
	ID                 int64
	UserID             int64
	DescriptionPattern *string
	MerchantName       *string
	MinAmount          *decimal.Decimal
	MaxAmount          *decimal.Decimal
	IsActive           bool
	CreatedAt          time.Time
}

// FilterCandidate is an incoming transaction as seen by the filter. Any field may be nil.
type FilterCandidate struct {
	Description  *string
	MerchantName *string
	Amount       *decimal.Decimal
}

// FilterRulePatch carries a partial update. Nil fields are left untouched;
// an empty string clears a text criterion.
type FilterRulePatch struct {
	DescriptionPattern *string
	MerchantName       *string
	MinAmount          *decimal.Decimal
	MaxAmount          *decimal.Decimal
	IsActive           *bool
}

// Validate enforces that the rule has at least one criterion
func (r FilterRule) Validate() error {
	if !Present(r.DescriptionPattern) && !Present(r.MerchantName) && r.MinAmount == nil && r.MaxAmount == nil {
		return fmt.Errorf("%w: at least one filter criterion must be provided", ErrValidation)
	}
	return nil
}

// Apply returns a copy of r with the patch applied
func (r FilterRule) Apply(p FilterRulePatch) FilterRule {
	if p.DescriptionPattern != nil {
		r.DescriptionPattern = StrPtr(*p.DescriptionPattern)
	}
	if p.MerchantName != nil {
		r.MerchantName = StrPtr(*p.MerchantName)
	}
	if p.MinAmount != nil {
		r.MinAmount = p.MinAmount
	}
	if p.MaxAmount != nil {
		r.MaxAmount = p.MaxAmount
	}
	if p.IsActive != nil {
		r.IsActive = *p.IsActive
	}
	return r
}

// Matches reports whether any criterion of the rule matches the candidate.
//
// Amount criteria compare against the absolute amount: min only matches at or
// above the minimum, max only matches at or below the maximum, and both
// together form an inclusive range.
func (r FilterRule) Matches(c FilterCandidate) bool {
	if Present(r.DescriptionPattern) && c.Description != nil &&
		strings.Contains(*c.Description, *r.DescriptionPattern) {
		return true
	}

	if Present(r.MerchantName) && Present(c.MerchantName) &&
		strings.Contains(*c.MerchantName, *r.MerchantName) {
		return true
	}

	if c.Amount == nil {
		return false
	}
	a := c.Amount.Abs()
	switch {
	case r.MinAmount != nil && r.MaxAmount != nil:
		return a.GreaterThanOrEqual(*r.MinAmount) && a.LessThanOrEqual(*r.MaxAmount)
	case r.MinAmount != nil:
		return a.GreaterThanOrEqual(*r.MinAmount)
	case r.MaxAmount != nil:
		return a.LessThanOrEqual(*r.MaxAmount)
	}
	return false
}
