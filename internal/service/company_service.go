// Package service holds the application services that tie the scraper,
// stores, cache, and autocomplete index together behind the HTTP layer.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quantfold/divtracker/internal/domain"
	"github.com/quantfold/divtracker/internal/index"
)

// autocompleteLimit caps the number of names returned by a prefix search.
const autocompleteLimit = 10

// CompanyScraper fetches a company identity and its dividend history.
type CompanyScraper interface {
	FetchCompany(ctx context.Context, ticker string) (domain.Company, error)
	ScrapeDividends(ctx context.Context, company domain.Company) domain.ScrapedResult
}

// CompanyService manages the tracked-company lifecycle. Every company
// creation inserts the display name into the autocomplete index and every
// removal deletes it, keeping the index convergent with the store.
type CompanyService struct {
	companies domain.CompanyStore
	dividends domain.DividendStore
	cache     domain.FinanceCache
	scraper   CompanyScraper
	idx       *index.Service
	tombstone domain.PageArchiver
	sink      EventSink
	logger    *slog.Logger
}

// EventSink mirrors pipeline.EventSink for company lifecycle broadcasts.
type EventSink interface {
	Publish(event string, payload any)
}

// NewCompanyService creates a CompanyService. tombstone and sink may be nil.
func NewCompanyService(
	companies domain.CompanyStore,
	dividends domain.DividendStore,
	cache domain.FinanceCache,
	scraper CompanyScraper,
	idx *index.Service,
	tombstone domain.PageArchiver,
	sink EventSink,
	logger *slog.Logger,
) *CompanyService {
	return &CompanyService{
		companies: companies,
		dividends: dividends,
		cache:     cache,
		scraper:   scraper,
		idx:       idx,
		tombstone: tombstone,
		sink:      sink,
		logger:    logger.With(slog.String("component", "company_service")),
	}
}

// Add starts tracking a new ticker: it scrapes the company identity and the
// full dividend history, persists both, and registers the display name for
// autocomplete. Adding is user-initiated and single-shot, so every failure is
// returned to the caller; an already-tracked ticker is domain.ErrAlreadyExists.
func (s *CompanyService) Add(ctx context.Context, ticker string) (domain.Company, error) {
	exists, err := s.companies.ExistsByTicker(ctx, ticker)
	if err != nil {
		return domain.Company{}, fmt.Errorf("service: check ticker %s: %w", ticker, err)
	}
	if exists {
		return domain.Company{}, domain.ErrAlreadyExists
	}

	company, err := s.scraper.FetchCompany(ctx, ticker)
	if err != nil {
		return domain.Company{}, fmt.Errorf("service: scrape ticker %s: %w", ticker, err)
	}

	id, err := s.companies.Create(ctx, company)
	if err != nil {
		return domain.Company{}, fmt.Errorf("service: store company %s: %w", ticker, err)
	}
	company.ID = id

	// Initial history load. Best-effort: the scheduled sync will pick up
	// anything a failed first scrape missed.
	result := s.scraper.ScrapeDividends(ctx, company)
	for _, event := range result.Dividends {
		if err := s.dividends.Insert(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "initial dividend insert failed",
				slog.String("ticker", ticker),
				slog.Time("date", event.Date),
				slog.String("error", err.Error()),
			)
		}
	}

	s.idx.Insert(company.Name)

	if s.sink != nil {
		s.sink.Publish("company_added", company)
	}

	s.logger.InfoContext(ctx, "company added",
		slog.String("ticker", company.Ticker),
		slog.String("name", company.Name),
		slog.Int("dividends", len(result.Dividends)),
	)
	return company, nil
}

// Delete stops tracking a ticker: it removes the dividend events and the
// company from the store, the display name from the autocomplete index, and
// the company's entry from the read cache. It returns the removed company's
// display name, or domain.ErrNotFound for an untracked ticker.
func (s *CompanyService) Delete(ctx context.Context, ticker string) (string, error) {
	company, err := s.companies.GetByTicker(ctx, ticker)
	if err != nil {
		return "", err
	}

	s.archiveTombstone(ctx, company)

	if err := s.dividends.DeleteByCompany(ctx, company.ID); err != nil {
		return "", fmt.Errorf("service: delete dividends %s: %w", ticker, err)
	}
	if err := s.companies.Delete(ctx, company.ID); err != nil {
		return "", fmt.Errorf("service: delete company %s: %w", ticker, err)
	}

	s.idx.Delete(company.Name)

	if err := s.cache.Delete(ctx, company.Name); err != nil {
		s.logger.WarnContext(ctx, "cache eviction failed",
			slog.String("name", company.Name),
			slog.String("error", err.Error()),
		)
	}

	if s.sink != nil {
		s.sink.Publish("company_deleted", company)
	}

	s.logger.InfoContext(ctx, "company deleted",
		slog.String("ticker", company.Ticker),
		slog.String("name", company.Name),
	)
	return company.Name, nil
}

// archiveTombstone writes the company's full dividend history to cold
// storage before the cascade delete. Failures are logged and swallowed; the
// tombstone is a convenience, not part of the deletion contract.
func (s *CompanyService) archiveTombstone(ctx context.Context, company domain.Company) {
	if s.tombstone == nil {
		return
	}
	events, err := s.dividends.ListByCompany(ctx, company.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "tombstone listing failed",
			slog.String("ticker", company.Ticker),
			slog.String("error", err.Error()),
		)
		return
	}
	result := domain.ScrapedResult{Company: company, Dividends: events}
	if err := s.tombstone.ArchiveTombstone(ctx, result); err != nil {
		s.logger.WarnContext(ctx, "tombstone archive failed",
			slog.String("ticker", company.Ticker),
			slog.String("error", err.Error()),
		)
	}
}

// List returns every tracked company.
func (s *CompanyService) List(ctx context.Context) ([]domain.Company, error) {
	return s.companies.List(ctx)
}

// Autocomplete returns up to ten company names starting with prefix.
func (s *CompanyService) Autocomplete(prefix string) []string {
	return s.idx.Search(prefix, autocompleteLimit)
}
