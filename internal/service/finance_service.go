package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quantfold/divtracker/internal/domain"
)

// FinanceService answers "dividends for company X" lookups through the read
// cache. The sync cycle and company deletion own invalidation; this service
// only reads and repopulates.
type FinanceService struct {
	companies domain.CompanyStore
	dividends domain.DividendStore
	cache     domain.FinanceCache
	logger    *slog.Logger
}

// NewFinanceService creates a FinanceService.
func NewFinanceService(
	companies domain.CompanyStore,
	dividends domain.DividendStore,
	cache domain.FinanceCache,
	logger *slog.Logger,
) *FinanceService {
	return &FinanceService{
		companies: companies,
		dividends: dividends,
		cache:     cache,
		logger:    logger.With(slog.String("component", "finance_service")),
	}
}

// DividendsByCompanyName returns a company's full dividend history, served
// from the cache when possible. A miss falls through to the store and
// repopulates the cache. An unknown company name is domain.ErrNotFound.
func (s *FinanceService) DividendsByCompanyName(ctx context.Context, name string) (domain.ScrapedResult, error) {
	cached, err := s.cache.Get(ctx, name)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		// A broken cache must not take lookups down with it.
		s.logger.WarnContext(ctx, "cache read failed",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}

	company, err := s.companies.GetByName(ctx, name)
	if err != nil {
		return domain.ScrapedResult{}, err
	}

	events, err := s.dividends.ListByCompany(ctx, company.ID)
	if err != nil {
		return domain.ScrapedResult{}, fmt.Errorf("service: list dividends for %s: %w", name, err)
	}

	result := domain.ScrapedResult{Company: company, Dividends: events}

	if err := s.cache.Set(ctx, name, result); err != nil {
		s.logger.WarnContext(ctx, "cache write failed",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}

	return result, nil
}
