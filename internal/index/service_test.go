package index

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
)

// fakeCompanyStore implements domain.CompanyStore backed by a slice. Only
// List is used by the index service; the rest satisfy the interface.
type fakeCompanyStore struct {
	companies []domain.Company
	listErr   error
}

func (f *fakeCompanyStore) List(ctx context.Context) ([]domain.Company, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.companies, nil
}

func (f *fakeCompanyStore) ExistsByTicker(ctx context.Context, ticker string) (bool, error) {
	return false, nil
}

func (f *fakeCompanyStore) GetByTicker(ctx context.Context, ticker string) (domain.Company, error) {
	return domain.Company{}, domain.ErrNotFound
}

func (f *fakeCompanyStore) GetByName(ctx context.Context, name string) (domain.Company, error) {
	return domain.Company{}, domain.ErrNotFound
}

func (f *fakeCompanyStore) Create(ctx context.Context, company domain.Company) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (f *fakeCompanyStore) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceRebuild(t *testing.T) {
	store := &fakeCompanyStore{companies: []domain.Company{
		{ID: uuid.New(), Ticker: "KO", Name: "Coca-Cola Company (The) (KO)", CreatedAt: time.Now()},
		{ID: uuid.New(), Ticker: "MMM", Name: "3M Company (MMM)", CreatedAt: time.Now()},
	}}

	svc := NewService(store, testLogger())
	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() unexpected error: %v", err)
	}

	if svc.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", svc.Len())
	}
	if got := svc.Search("Coca", 10); len(got) != 1 {
		t.Errorf("Search(Coca) = %v, want one match", got)
	}
}

func TestServiceRebuildReplacesContents(t *testing.T) {
	store := &fakeCompanyStore{companies: []domain.Company{
		{Ticker: "KO", Name: "Coca-Cola Company (The) (KO)"},
	}}
	svc := NewService(store, testLogger())
	svc.Insert("Stale Holdings (STALE)")

	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() unexpected error: %v", err)
	}

	if got := svc.Search("Stale", 10); len(got) != 0 {
		t.Errorf("Search(Stale) = %v, rebuild should drop names absent from the store", got)
	}
	if svc.Len() != 1 {
		t.Errorf("Len() = %d, want 1", svc.Len())
	}
}

func TestServiceRebuildStoreError(t *testing.T) {
	wantErr := errors.New("connection refused")
	svc := NewService(&fakeCompanyStore{listErr: wantErr}, testLogger())
	svc.Insert("Kept Co (KEPT)")

	if err := svc.Rebuild(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Rebuild() error = %v, want %v", err, wantErr)
	}
	// A failed rebuild leaves the existing contents alone.
	if svc.Len() != 1 {
		t.Errorf("Len() = %d after failed rebuild, want 1", svc.Len())
	}
}

func TestServiceInsertDelete(t *testing.T) {
	svc := NewService(&fakeCompanyStore{}, testLogger())

	svc.Insert("Apple Inc. (AAPL)")
	svc.Insert("Applied Materials, Inc. (AMAT)")
	svc.Delete("Apple Inc. (AAPL)")

	got := svc.Search("App", 10)
	if len(got) != 1 || got[0] != "Applied Materials, Inc. (AMAT)" {
		t.Errorf("Search(App) = %v, want only the remaining name", got)
	}
}

func TestServiceConcurrentAccess(t *testing.T) {
	svc := NewService(&fakeCompanyStore{}, testLogger())

	var wg sync.WaitGroup
	names := []string{"Aa (A)", "Ab (B)", "Ac (C)", "Ad (D)"}
	for _, n := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Insert(n)
		}()
	}
	for range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Search("A", 10)
		}()
	}
	wg.Wait()

	if svc.Len() != len(names) {
		t.Errorf("Len() = %d, want %d", svc.Len(), len(names))
	}
}
