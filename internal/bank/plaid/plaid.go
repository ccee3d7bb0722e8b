// Package plaid adapts the Plaid transactions/sync API to bank.Provider.
package plaid

import (
	"context"
	"fmt"
	"strings"

	"github.com/plaid/plaid-go/v41/plaid"
	"github.com/shopspring/decimal"

	"budget/internal/bank"
	"budget/internal/core"
)

const ProviderName = "plaid"

// NewClient configures a Plaid API client for the given environment
func NewClient(clientID, secret, env string) (*plaid.APIClient, error) {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)

	switch env {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		return nil, fmt.Errorf("invalid Plaid environment: %s", env)
	}

	return plaid.NewAPIClient(configuration), nil
}

// Provider implements bank.Provider on top of a Plaid client
type Provider struct {
	client *plaid.APIClient
}

var _ bank.Provider = (*Provider)(nil)

func New(client *plaid.APIClient) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) Sync(ctx context.Context, accessToken, cursor string) (bank.Page, error) {
	request := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		request.SetCursor(cursor)
	}

	resp, _, err := p.client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
	if err != nil {
		return bank.Page{}, fmt.Errorf("transactions sync: %w", err)
	}

	added := make([]core.RawTransaction, 0, len(resp.GetAdded()))
	for _, txn := range resp.GetAdded() {
		if txn.GetPending() {
			continue
		}
		added = append(added, toRaw(txn))
	}

	return bank.Page{
		Added:      added,
		NextCursor: resp.GetNextCursor(),
		HasMore:    resp.GetHasMore(),
	}, nil
}

// toRaw converts a Plaid transaction. Plaid reports outflows as positive
// amounts; they are negated so that expenses are negative.
func toRaw(txn plaid.Transaction) core.RawTransaction {
	pfc := txn.GetPersonalFinanceCategory()
	return core.RawTransaction{
		OperationDate:     txn.GetDate(),
		Description:       txn.GetName(),
		Amount:            decimal.NewFromFloat(-txn.GetAmount()).StringFixed(core.Cents),
		MerchantName:      txn.GetMerchantName(),
		BankTransactionID: txn.GetTransactionId(),
		AccountName:       txn.GetAccountId(),
		CategoryHint:      categoryName(pfc.GetPrimary()),
	}
}

// categoryName turns FOOD_AND_DRINK into "Food and drink"
func categoryName(primary string) string {
	if primary == "" {
		return ""
	}
	s := strings.ToLower(strings.ReplaceAll(primary, "_", " "))
	return strings.ToUpper(s[:1]) + s[1:]
}
