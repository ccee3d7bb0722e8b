package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budget/internal/core"
	"budget/internal/ports"
)

// ImportOptions tune how raw records are admitted
type ImportOptions struct {
	// SkipIncome drops records with a non-negative amount
	SkipIncome bool
	// CreateCategories creates the category suggested by the source for
	// records no rule matched, together with a rule for later records
	CreateCategories bool
}

// ImportResult counts what happened to each record of a run
type ImportResult struct {
	Imported    int `json:"imported"`
	Categorized int `json:"categorized"`
	Filtered    int `json:"filtered"`
	Duplicates  int `json:"duplicates"`
	Income      int `json:"income"`
	Malformed   int `json:"malformed"`
}

func (r *ImportResult) add(other ImportResult) {
	r.Imported += other.Imported
	r.Categorized += other.Categorized
	r.Filtered += other.Filtered
	r.Duplicates += other.Duplicates
	r.Income += other.Income
	r.Malformed += other.Malformed
}

// Importer runs raw records through the filter and the matcher and persists
// the survivors. One run is one storage transaction, so rules and categories
// created earlier in the run are visible to later records.
type Importer struct {
	store   ports.Store
	matcher *Matcher
	rules   *RuleStore
	opts    ImportOptions
	invalid func(userID int64)
}

func NewImporter(store ports.Store, matcher *Matcher, rules *RuleStore, opts ImportOptions) *Importer {
	return &Importer{store: store, matcher: matcher, rules: rules, opts: opts}
}

// OnCategoriesChanged registers a callback run after an import created categories
func (im *Importer) OnCategoriesChanged(fn func(userID int64)) {
	im.invalid = fn
}

func (im *Importer) Import(ctx context.Context, userID int64, connectionID *int64, records []core.RawTransaction) (ImportResult, error) {
	var result ImportResult
	createdCategories := false

	err := im.store.InTx(ctx, func(repo ports.Repository) error {
		result = ImportResult{}
		filters, err := repo.ListFilterRules(ctx, userID, true)
		if err != nil {
			return fmt.Errorf("load filter rules: %w", err)
		}

		seen := make(map[string]struct{}, len(records))
		for i, rec := range records {
			t, err := rec.ToTransaction(userID, connectionID)
			if err != nil {
				slog.WarnContext(ctx, "Skipping malformed record", "user_id", userID, "row", i, "error", err)
				result.Malformed++
				continue
			}

			if t.BankTransactionID != nil {
				id := *t.BankTransactionID
				if _, dup := seen[id]; dup {
					result.Duplicates++
					continue
				}
				seen[id] = struct{}{}
				exists, err := repo.BankTransactionExists(ctx, id)
				if err != nil {
					return fmt.Errorf("check duplicate: %w", err)
				}
				if exists {
					result.Duplicates++
					continue
				}
			}

			if im.opts.SkipIncome && t.IsIncome() {
				result.Income++
				continue
			}

			if shouldSkip(filters, t.Candidate()) {
				result.Filtered++
				continue
			}

			var created bool
			err = repo.Savepoint(ctx, func(sp ports.Repository) error {
				var err error
				created, err = im.categorize(ctx, sp, &t, rec.CategoryHint)
				return err
			})
			if err != nil {
				slog.WarnContext(ctx, "Categorization failed, importing uncategorized",
					"user_id", userID, "description", t.Description, "hint", rec.CategoryHint, "error", err)
				t.CategoryID = nil
				created = false
			}
			createdCategories = createdCategories || created

			err = repo.Savepoint(ctx, func(sp ports.Repository) error {
				_, err := sp.CreateTransaction(ctx, t)
				return err
			})
			if err != nil {
				if errors.Is(err, core.ErrConflict) {
					result.Duplicates++
					continue
				}
				return fmt.Errorf("save transaction: %w", err)
			}
			result.Imported++
			if t.CategoryID != nil {
				result.Categorized++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("import transactions: %w", err)
	}

	if createdCategories && im.invalid != nil {
		im.invalid(userID)
	}

	slog.InfoContext(ctx, "Import completed",
		"user_id", userID,
		"imported", result.Imported,
		"categorized", result.Categorized,
		"filtered", result.Filtered,
		"duplicates", result.Duplicates,
		"income", result.Income,
		"malformed", result.Malformed)

	return result, nil
}

// categorize runs the matcher and, when nothing matched, falls back to the
// category hinted by the source
func (im *Importer) categorize(ctx context.Context, repo ports.Repository, t *core.Transaction, hint string) (created bool, err error) {
	res, err := im.matcher.Match(ctx, repo, t)
	if err != nil {
		return false, fmt.Errorf("match: %w", err)
	}
	if res.Matched() || !im.opts.CreateCategories || hint == "" {
		return false, nil
	}
	created, err = im.categorizeFromHint(ctx, repo, t, hint)
	if err != nil {
		return false, fmt.Errorf("category hint: %w", err)
	}
	return created, nil
}

// categorizeFromHint assigns the hinted category, creating it if missing, and
// learns a rule so later records of the same run match it
func (im *Importer) categorizeFromHint(ctx context.Context, repo ports.Repository, t *core.Transaction, hint string) (created bool, err error) {
	category, err := repo.FindCategoryByName(ctx, t.UserID, hint)
	if errors.Is(err, core.ErrNotFound) {
		category, err = repo.CreateCategory(ctx, core.Category{UserID: t.UserID, Name: hint})
		created = err == nil
	}
	if err != nil {
		return false, err
	}

	t.CategoryID = &category.ID

	var merchant, pattern *string
	if core.Present(t.MerchantName) {
		merchant = t.MerchantName
	} else {
		pattern = &t.Description
	}
	if _, err := im.rules.Upsert(ctx, repo, t.UserID, category.ID, merchant, pattern); err != nil {
		return created, fmt.Errorf("learn rule: %w", err)
	}
	return created, nil
}
