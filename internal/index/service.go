package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quantfold/divtracker/internal/domain"
)

// Service owns the process-wide autocomplete trie. Reads and writes may
// interleave with a running sync cycle, so every operation takes the lock;
// readers never observe a partially inserted or deleted name. The trie is not
// the source of truth: Rebuild loads the company store's current names on
// startup and the service mirrors company lifecycle events after that.
type Service struct {
	mu        sync.RWMutex
	trie      *trie
	companies domain.CompanyStore
	logger    *slog.Logger
}

// NewService creates a Service with an empty trie. Call Rebuild before
// serving searches.
func NewService(companies domain.CompanyStore, logger *slog.Logger) *Service {
	return &Service{
		trie:      newTrie(),
		companies: companies,
		logger:    logger.With(slog.String("component", "autocomplete")),
	}
}

// Rebuild replaces the trie contents with the display names of every company
// currently in the store. The new trie is built off-lock and swapped in, so
// concurrent searches keep hitting the old contents until the swap.
func (s *Service) Rebuild(ctx context.Context) error {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return fmt.Errorf("index: rebuild from store: %w", err)
	}

	fresh := newTrie()
	for _, c := range companies {
		fresh.insert(c.Name)
	}

	s.mu.Lock()
	s.trie = fresh
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "autocomplete index rebuilt",
		slog.Int("companies", fresh.len()),
	)
	return nil
}

// Insert adds a company display name to the index.
func (s *Service) Insert(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trie.insert(name)
}

// Delete removes a company display name from the index. Deleting an absent
// name is a no-op.
func (s *Service) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trie.delete(name)
}

// Search returns up to limit stored names starting with prefix.
func (s *Service) Search(prefix string, limit int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trie.withPrefix(prefix, limit)
}

// Len returns the number of indexed names.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trie.len()
}
