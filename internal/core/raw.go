package core

import (
	"fmt"
	"strings"
)

// RawTransaction is an imported record before validation. Values are kept as
// text so that malformed rows can be detected and counted.
type RawTransaction struct {
	OperationDate     string
	Description       string
	Amount            string
	MerchantName      string
	BankTransactionID string
	AccountName       string
	// CategoryHint is a category name suggested by the source, if any
	CategoryHint string
}

// ToTransaction validates the record and converts it for userID
func (r RawTransaction) ToTransaction(userID int64, connectionID *int64) (Transaction, error) {
	date, err := ParseDate(r.OperationDate)
	if err != nil {
		return Transaction{}, fmt.Errorf("operation date %q: %w", r.OperationDate, err)
	}
	amount, err := ParseAmount(r.Amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("amount %q: %w", r.Amount, err)
	}

	t := Transaction{
		UserID:            userID,
		OperationDate:     date,
		Description:       strings.TrimSpace(r.Description),
		Amount:            amount,
		MerchantName:      StrPtr(strings.TrimSpace(r.MerchantName)),
		BankTransactionID: StrPtr(strings.TrimSpace(r.BankTransactionID)),
		BankConnectionID:  connectionID,
		AccountName:       strings.TrimSpace(r.AccountName),
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Candidate returns the filter view of the transaction
func (t Transaction) Candidate() FilterCandidate {
	desc := t.Description
	amount := t.Amount
	return FilterCandidate{
		Description:  &desc,
		MerchantName: t.MerchantName,
		Amount:       &amount,
	}
}
