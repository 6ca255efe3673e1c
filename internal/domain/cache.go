package domain

import "context"

// FinanceCache memoises "dividends for company X" lookups, keyed by company
// display name under a single cache namespace. The sync cycle evicts the
// whole namespace before re-scraping; Delete evicts one company on removal.
type FinanceCache interface {
	Get(ctx context.Context, companyName string) (ScrapedResult, error)
	Set(ctx context.Context, companyName string, result ScrapedResult) error
	Delete(ctx context.Context, companyName string) error
	InvalidateAll(ctx context.Context) error
}
