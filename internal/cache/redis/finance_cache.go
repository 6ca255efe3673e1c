package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantfold/divtracker/internal/domain"
)

const (
	// financeNamespace prefixes every dividend-lookup key. The sync cycle
	// evicts the whole namespace, so nothing else may live under it.
	financeNamespace = "finance:"

	defaultFinanceTTL = 30 * time.Minute

	// invalidateScanCount is the batch size for the SCAN used by InvalidateAll.
	invalidateScanCount = 500
)

// FinanceCache implements domain.FinanceCache using JSON-serialised
// ScrapedResult values keyed by company display name.
//
// Key schema:
//
//	finance:{companyName} - JSON ScrapedResult with TTL
type FinanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFinanceCache creates a FinanceCache backed by the given Client. A ttl of
// zero selects the default.
func NewFinanceCache(c *Client, ttl time.Duration) *FinanceCache {
	if ttl <= 0 {
		ttl = defaultFinanceTTL
	}
	return &FinanceCache{rdb: c.Underlying(), ttl: ttl}
}

func financeKey(companyName string) string { return financeNamespace + companyName }

// Get retrieves the cached dividend lookup for a company name. It returns
// domain.ErrNotFound on a cache miss.
func (fc *FinanceCache) Get(ctx context.Context, companyName string) (domain.ScrapedResult, error) {
	data, err := fc.rdb.Get(ctx, financeKey(companyName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ScrapedResult{}, domain.ErrNotFound
		}
		return domain.ScrapedResult{}, fmt.Errorf("redis: get finance %s: %w", companyName, err)
	}

	var result domain.ScrapedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.ScrapedResult{}, fmt.Errorf("redis: unmarshal finance %s: %w", companyName, err)
	}
	return result, nil
}

// Set stores a dividend lookup result under the company name with the
// configured TTL.
func (fc *FinanceCache) Set(ctx context.Context, companyName string, result domain.ScrapedResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis: marshal finance %s: %w", companyName, err)
	}
	if err := fc.rdb.Set(ctx, financeKey(companyName), data, fc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set finance %s: %w", companyName, err)
	}
	return nil
}

// Delete evicts one company's cached lookup. Evicting an absent key is a no-op.
func (fc *FinanceCache) Delete(ctx context.Context, companyName string) error {
	if err := fc.rdb.Del(ctx, financeKey(companyName)).Err(); err != nil {
		return fmt.Errorf("redis: delete finance %s: %w", companyName, err)
	}
	return nil
}

// InvalidateAll evicts every key in the finance namespace. It walks the
// keyspace with SCAN rather than KEYS so a large namespace does not block the
// server, deleting in batches as it goes. The next read miss repopulates
// lazily, which is the point: no stale entry survives a sync cycle.
func (fc *FinanceCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := fc.rdb.Scan(ctx, cursor, financeNamespace+"*", invalidateScanCount).Result()
		if err != nil {
			return fmt.Errorf("redis: scan finance namespace: %w", err)
		}
		if len(keys) > 0 {
			if err := fc.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis: invalidate finance namespace: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Compile-time interface check.
var _ domain.FinanceCache = (*FinanceCache)(nil)
