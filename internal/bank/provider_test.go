package bank

import (
	"context"
	"errors"
	"testing"

	"budget/internal/core"
)

type pagedProvider struct {
	pages []Page
	calls []string
	err   error
}

func (p *pagedProvider) Name() string { return "paged" }

func (p *pagedProvider) Sync(_ context.Context, _ string, cursor string) (Page, error) {
	p.calls = append(p.calls, cursor)
	if p.err != nil {
		return Page{}, p.err
	}
	page := p.pages[0]
	p.pages = p.pages[1:]
	return page, nil
}

func TestFetchAllFollowsCursor(t *testing.T) {
	p := &pagedProvider{pages: []Page{
		{Added: []core.RawTransaction{{BankTransactionID: "a"}}, NextCursor: "c1", HasMore: true},
		{Added: []core.RawTransaction{{BankTransactionID: "b"}}, NextCursor: "c2"},
	}}

	added, cursor, err := FetchAll(context.Background(), p, "token", "c0")
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(added) != 2 || cursor != "c2" {
		t.Fatalf("FetchAll() = %d records, cursor %q", len(added), cursor)
	}
	if len(p.calls) != 2 || p.calls[0] != "c0" || p.calls[1] != "c1" {
		t.Fatalf("cursor sequence = %v", p.calls)
	}
}

func TestFetchAllPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, cursor, err := FetchAll(context.Background(), &pagedProvider{err: boom}, "token", "c0")
	if !errors.Is(err, boom) {
		t.Fatalf("FetchAll() error = %v, want boom", err)
	}
	if cursor != "c0" {
		t.Fatalf("cursor = %q, want unchanged c0", cursor)
	}
}

func TestFetchAllStopsAfterMaxPages(t *testing.T) {
	pages := make([]Page, MaxPages)
	for i := range pages {
		pages[i] = Page{HasMore: true}
	}
	_, _, err := FetchAll(context.Background(), &pagedProvider{pages: pages}, "token", "")
	if !errors.Is(err, ErrTooManyPages) {
		t.Fatalf("FetchAll() error = %v, want ErrTooManyPages", err)
	}
}
