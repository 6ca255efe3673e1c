package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/divtracker/internal/domain"
)

// CompanyStore implements domain.CompanyStore using PostgreSQL.
type CompanyStore struct {
	pool *pgxpool.Pool
}

// NewCompanyStore creates a new CompanyStore backed by the given connection pool.
func NewCompanyStore(pool *pgxpool.Pool) *CompanyStore {
	return &CompanyStore{pool: pool}
}

const companyCols = `id, ticker, name, created_at`

// scanCompany scans a single company row.
func scanCompany(row pgx.Row) (domain.Company, error) {
	var c domain.Company
	err := row.Scan(&c.ID, &c.Ticker, &c.Name, &c.CreatedAt)
	return c, err
}

// List returns every tracked company ordered by ticker.
func (s *CompanyStore) List(ctx context.Context) ([]domain.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+companyCols+` FROM companies ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list companies: %w", err)
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list companies rows: %w", err)
	}
	return companies, nil
}

// ExistsByTicker reports whether a company with the given ticker is tracked.
func (s *CompanyStore) ExistsByTicker(ctx context.Context, ticker string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM companies WHERE ticker = $1)", ticker,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: company exists %s: %w", ticker, err)
	}
	return exists, nil
}

// GetByTicker retrieves a company by its exchange symbol.
func (s *CompanyStore) GetByTicker(ctx context.Context, ticker string) (domain.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+companyCols+` FROM companies WHERE ticker = $1`, ticker)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Company{}, domain.ErrNotFound
		}
		return domain.Company{}, fmt.Errorf("postgres: get company %s: %w", ticker, err)
	}
	return c, nil
}

// GetByName retrieves a company by its display name.
func (s *CompanyStore) GetByName(ctx context.Context, name string) (domain.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+companyCols+` FROM companies WHERE name = $1`, name)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Company{}, domain.ErrNotFound
		}
		return domain.Company{}, fmt.Errorf("postgres: get company by name %s: %w", name, err)
	}
	return c, nil
}

// Create inserts a new company and returns its generated ID. A duplicate
// ticker maps to domain.ErrAlreadyExists.
func (s *CompanyStore) Create(ctx context.Context, c domain.Company) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO companies (ticker, name) VALUES ($1, $2) RETURNING id`,
		c.Ticker, c.Name,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, domain.ErrAlreadyExists
		}
		return uuid.Nil, fmt.Errorf("postgres: create company %s: %w", c.Ticker, err)
	}
	return id, nil
}

// Delete removes a company; its dividend events cascade at the schema level.
func (s *CompanyStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete company %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Compile-time interface check.
var _ domain.CompanyStore = (*CompanyStore)(nil)
