package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CompanyStore persists the set of tracked companies. It is the source of
// truth for the autocomplete index, which is rebuilt from List on startup.
type CompanyStore interface {
	List(ctx context.Context) ([]Company, error)
	ExistsByTicker(ctx context.Context, ticker string) (bool, error)
	GetByTicker(ctx context.Context, ticker string) (Company, error)
	GetByName(ctx context.Context, name string) (Company, error)
	Create(ctx context.Context, company Company) (uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DividendStore persists dividend events under the uniqueness constraint on
// (company_id, date). Insert returns ErrAlreadyExists on a duplicate so that
// a lost existence-check race is observable and can be absorbed by the caller.
type DividendStore interface {
	EventExists(ctx context.Context, companyID uuid.UUID, date time.Time) (bool, error)
	Insert(ctx context.Context, event DividendEvent) error
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]DividendEvent, error)
	DeleteByCompany(ctx context.Context, companyID uuid.UUID) error
}
