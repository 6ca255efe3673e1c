package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quantfold/divtracker/internal/domain"
	"github.com/quantfold/divtracker/internal/index"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memCompanyStore is an in-memory domain.CompanyStore.
type memCompanyStore struct {
	mu        sync.Mutex
	companies map[uuid.UUID]domain.Company
}

func newMemCompanyStore() *memCompanyStore {
	return &memCompanyStore{companies: make(map[uuid.UUID]domain.Company)}
}

func (m *memCompanyStore) List(ctx context.Context) ([]domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCompanyStore) ExistsByTicker(ctx context.Context, ticker string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.companies {
		if c.Ticker == ticker {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCompanyStore) GetByTicker(ctx context.Context, ticker string) (domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.companies {
		if c.Ticker == ticker {
			return c, nil
		}
	}
	return domain.Company{}, domain.ErrNotFound
}

func (m *memCompanyStore) GetByName(ctx context.Context, name string) (domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.companies {
		if c.Name == name {
			return c, nil
		}
	}
	return domain.Company{}, domain.ErrNotFound
}

func (m *memCompanyStore) Create(ctx context.Context, company domain.Company) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	company.ID = id
	company.CreatedAt = time.Now()
	m.companies[id] = company
	return id, nil
}

func (m *memCompanyStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.companies, id)
	return nil
}

// memDividendStore is an in-memory domain.DividendStore.
type memDividendStore struct {
	mu     sync.Mutex
	events []domain.DividendEvent
}

func (m *memDividendStore) EventExists(ctx context.Context, companyID uuid.UUID, date time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.CompanyID == companyID && e.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDividendStore) Insert(ctx context.Context, event domain.DividendEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.CompanyID == event.CompanyID && e.Date.Equal(event.Date) {
			return domain.ErrAlreadyExists
		}
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memDividendStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.DividendEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DividendEvent
	for _, e := range m.events {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memDividendStore) DeleteByCompany(ctx context.Context, companyID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if e.CompanyID != companyID {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

func (m *memDividendStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// memCache is an in-memory domain.FinanceCache.
type memCache struct {
	mu      sync.Mutex
	entries map[string]domain.ScrapedResult
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]domain.ScrapedResult)}
}

func (m *memCache) Get(ctx context.Context, name string) (domain.ScrapedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.ScrapedResult{}, m.getErr
	}
	r, ok := m.entries[name]
	if !ok {
		return domain.ScrapedResult{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *memCache) Set(ctx context.Context, name string, result domain.ScrapedResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = result
	return nil
}

func (m *memCache) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
	return nil
}

func (m *memCache) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]domain.ScrapedResult)
	return nil
}

// stubScraper returns canned company identities and histories.
type stubScraper struct {
	names    map[string]string
	fetchErr error
	events   map[string][]domain.DividendEvent
}

func (s *stubScraper) FetchCompany(ctx context.Context, ticker string) (domain.Company, error) {
	if s.fetchErr != nil {
		return domain.Company{}, s.fetchErr
	}
	return domain.Company{Ticker: ticker, Name: s.names[ticker]}, nil
}

func (s *stubScraper) ScrapeDividends(ctx context.Context, company domain.Company) domain.ScrapedResult {
	result := domain.ScrapedResult{Company: company}
	for _, e := range s.events[company.Ticker] {
		e.CompanyID = company.ID
		result.Dividends = append(result.Dividends, e)
	}
	return result
}

func newTestCompanyService(t *testing.T) (*CompanyService, *memCompanyStore, *memDividendStore, *memCache, *stubScraper) {
	t.Helper()
	companies := newMemCompanyStore()
	dividends := &memDividendStore{}
	cache := newMemCache()
	scraper := &stubScraper{
		names: map[string]string{
			"KO":  "Coca-Cola Company (The) (KO)",
			"MMM": "3M Company (MMM)",
		},
		events: map[string][]domain.DividendEvent{
			"KO": {
				{Date: time.Date(2022, time.May, 5, 0, 0, 0, 0, time.UTC), Amount: "0.44"},
				{Date: time.Date(2022, time.February, 4, 0, 0, 0, 0, time.UTC), Amount: "0.42"},
			},
		},
	}
	idx := index.NewService(companies, testLogger())
	svc := NewCompanyService(companies, dividends, cache, scraper, idx, nil, nil, testLogger())
	return svc, companies, dividends, cache, scraper
}

func TestAddCompany(t *testing.T) {
	svc, companies, dividends, _, _ := newTestCompanyService(t)

	company, err := svc.Add(context.Background(), "KO")
	if err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	if company.Name != "Coca-Cola Company (The) (KO)" {
		t.Errorf("name = %q", company.Name)
	}
	if company.ID == uuid.Nil {
		t.Error("company ID not assigned")
	}

	if exists, _ := companies.ExistsByTicker(context.Background(), "KO"); !exists {
		t.Error("company not persisted")
	}
	if dividends.count() != 2 {
		t.Errorf("persisted %d dividends, want 2", dividends.count())
	}
	if got := svc.Autocomplete("Coca"); len(got) != 1 {
		t.Errorf("Autocomplete(Coca) = %v, want the new name", got)
	}
}

func TestAddCompanyDuplicate(t *testing.T) {
	svc, _, _, _, _ := newTestCompanyService(t)

	if _, err := svc.Add(context.Background(), "KO"); err != nil {
		t.Fatalf("first Add(): %v", err)
	}
	if _, err := svc.Add(context.Background(), "KO"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("second Add() error = %v, want ErrAlreadyExists", err)
	}
}

func TestAddCompanyScrapeFailure(t *testing.T) {
	svc, companies, _, _, scraper := newTestCompanyService(t)
	scraper.fetchErr = domain.ErrNoTitle

	if _, err := svc.Add(context.Background(), "BAD"); !errors.Is(err, domain.ErrNoTitle) {
		t.Fatalf("Add() error = %v, want ErrNoTitle", err)
	}
	if exists, _ := companies.ExistsByTicker(context.Background(), "BAD"); exists {
		t.Error("failed add must not persist the company")
	}
}

func TestDeleteCompany(t *testing.T) {
	svc, companies, dividends, cache, _ := newTestCompanyService(t)

	company, err := svc.Add(context.Background(), "KO")
	if err != nil {
		t.Fatalf("Add(): %v", err)
	}
	cache.entries[company.Name] = domain.ScrapedResult{Company: company}

	name, err := svc.Delete(context.Background(), "KO")
	if err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if name != company.Name {
		t.Errorf("Delete() = %q, want %q", name, company.Name)
	}

	if exists, _ := companies.ExistsByTicker(context.Background(), "KO"); exists {
		t.Error("company still persisted after delete")
	}
	if dividends.count() != 0 {
		t.Errorf("%d dividends survive delete, want 0", dividends.count())
	}
	if got := svc.Autocomplete("Coca"); len(got) != 0 {
		t.Errorf("Autocomplete(Coca) = %v after delete, want empty", got)
	}
	if _, ok := cache.entries[company.Name]; ok {
		t.Error("cache entry survives delete")
	}
}

func TestDeleteCompanyUnknown(t *testing.T) {
	svc, _, _, _, _ := newTestCompanyService(t)

	if _, err := svc.Delete(context.Background(), "NOPE"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestAutocompleteLimit(t *testing.T) {
	svc, companies, _, _, scraper := newTestCompanyService(t)

	for i := 0; i < 15; i++ {
		ticker := string(rune('A'+i)) + "CO"
		scraper.names[ticker] = "Acme " + string(rune('A'+i)) + " (" + ticker + ")"
		if _, err := svc.Add(context.Background(), ticker); err != nil {
			t.Fatalf("Add(%s): %v", ticker, err)
		}
	}

	if n, _ := companies.List(context.Background()); len(n) != 15 {
		t.Fatalf("store holds %d companies, want 15", len(n))
	}
	if got := svc.Autocomplete("Acme"); len(got) != 10 {
		t.Errorf("Autocomplete returned %d names, want the cap of 10", len(got))
	}
}
