package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/divtracker/internal/domain"
)

// DividendStore implements domain.DividendStore using PostgreSQL. The
// dividends table carries a unique constraint on (company_id, date); it is
// the final arbiter of the dedup-merge invariant regardless of the
// existence pre-check done by callers.
type DividendStore struct {
	pool *pgxpool.Pool
}

// NewDividendStore creates a new DividendStore backed by the given connection pool.
func NewDividendStore(pool *pgxpool.Pool) *DividendStore {
	return &DividendStore{pool: pool}
}

// EventExists reports whether an event for (companyID, date) is already stored.
func (s *DividendStore) EventExists(ctx context.Context, companyID uuid.UUID, date time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM dividends WHERE company_id = $1 AND date = $2)",
		companyID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: dividend exists %s/%s: %w", companyID, date.Format(time.DateOnly), err)
	}
	return exists, nil
}

// Insert stores one dividend event. A duplicate (company_id, date) maps to
// domain.ErrAlreadyExists so callers can absorb a lost pre-check race.
func (s *DividendStore) Insert(ctx context.Context, e domain.DividendEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dividends (company_id, date, amount) VALUES ($1, $2, $3)`,
		e.CompanyID, e.Date, e.Amount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: insert dividend %s/%s: %w", e.CompanyID, e.Date.Format(time.DateOnly), err)
	}
	return nil
}

// ListByCompany returns every stored event for the company in payout-date order.
func (s *DividendStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.DividendEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_id, date, amount FROM dividends WHERE company_id = $1 ORDER BY date`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list dividends %s: %w", companyID, err)
	}
	defer rows.Close()

	var events []domain.DividendEvent
	for rows.Next() {
		var e domain.DividendEvent
		if err := rows.Scan(&e.CompanyID, &e.Date, &e.Amount); err != nil {
			return nil, fmt.Errorf("postgres: scan dividend: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list dividends rows: %w", err)
	}
	return events, nil
}

// DeleteByCompany removes every event for the company. Used by the explicit
// company-removal path; the schema-level cascade covers the same ground as a
// backstop.
func (s *DividendStore) DeleteByCompany(ctx context.Context, companyID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM dividends WHERE company_id = $1`, companyID,
	); err != nil {
		return fmt.Errorf("postgres: delete dividends %s: %w", companyID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.DividendStore = (*DividendStore)(nil)
