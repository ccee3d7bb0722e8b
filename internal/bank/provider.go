// Package bank defines the boundary to bank-aggregation providers.
package bank

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"
)

// Page is one batch of changes returned by a provider
type Page struct {
	Added      []core.RawTransaction
	NextCursor string
	HasMore    bool
}

// Provider pulls transactions added since cursor. An empty cursor starts from
// the beginning of the available history.
type Provider interface {
	Name() string
	Sync(ctx context.Context, accessToken, cursor string) (Page, error)
}

// MaxPages bounds a single FetchAll run
const MaxPages = 50

var ErrTooManyPages = errors.New("provider returned too many pages")

// FetchAll follows the cursor until the provider reports no more data and
// returns every added record with the final cursor
func FetchAll(ctx context.Context, p Provider, accessToken, cursor string) ([]core.RawTransaction, string, error) {
	var added []core.RawTransaction
	for i := 0; i < MaxPages; i++ {
		page, err := p.Sync(ctx, accessToken, cursor)
		if err != nil {
			return nil, cursor, fmt.Errorf("%s sync: %w", p.Name(), err)
		}
		added = append(added, page.Added...)
		cursor = page.NextCursor
		if !page.HasMore {
			return added, cursor, nil
		}
	}
	return nil, cursor, fmt.Errorf("%s sync: %w", p.Name(), ErrTooManyPages)
}
