// Package pipeline drives the periodic dividend sync: on a cron cadence it
// re-scrapes every tracked company, merges new payout events into the store
// with insert-if-absent semantics, and invalidates the dividend read cache.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quantfold/divtracker/internal/domain"
	"github.com/quantfold/divtracker/internal/notify"
)

// DividendScraper produces the full dividend history for one company. A
// failed fetch or parse yields an empty dividend list, never an error, so one
// bad page cannot abort a cycle.
type DividendScraper interface {
	ScrapeDividends(ctx context.Context, company domain.Company) domain.ScrapedResult
}

// EventSink receives cycle lifecycle events for live observers (the websocket
// hub). A nil sink disables broadcasting.
type EventSink interface {
	Publish(event string, payload any)
}

// CycleStats summarises one sync cycle.
type CycleStats struct {
	Companies int           `json:"companies"`
	Scraped   int           `json:"scraped"`
	Inserted  int           `json:"inserted"`
	Failures  int           `json:"failures"`
	Duration  time.Duration `json:"duration"`
}

// ErrCycleRunning is returned by TriggerCycle when a cycle is already in
// progress.
var ErrCycleRunning = errors.New("pipeline: sync cycle already running")

// Orchestrator runs the scrape-and-merge cycle over all tracked companies.
// Cycles never overlap: the cron runner starts the next wait only after the
// previous cycle returns, and TriggerCycle refuses to run concurrently with
// a scheduled cycle.
type Orchestrator struct {
	companies domain.CompanyStore
	dividends domain.DividendStore
	cache     domain.FinanceCache
	scraper   DividendScraper
	notifier  *notify.Notifier
	sink      EventSink

	cronExpr string
	pacing   time.Duration

	running sync.Mutex
	logger  *slog.Logger
}

// NewOrchestrator creates an Orchestrator. notifier and sink may be nil.
func NewOrchestrator(
	companies domain.CompanyStore,
	dividends domain.DividendStore,
	cache domain.FinanceCache,
	scraper DividendScraper,
	notifier *notify.Notifier,
	sink EventSink,
	cronExpr string,
	pacing time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		companies: companies,
		dividends: dividends,
		cache:     cache,
		scraper:   scraper,
		notifier:  notifier,
		sink:      sink,
		cronExpr:  cronExpr,
		pacing:    pacing,
		logger:    logger.With(slog.String("component", "sync")),
	}
}

// RunCron runs sync cycles on the configured cron cadence until the context
// is cancelled. A cycle's own failures are logged, not returned; only an
// invalid cron expression or cancellation ends the loop.
func (o *Orchestrator) RunCron(ctx context.Context) error {
	o.logger.Info("sync scheduler started",
		slog.String("cron", o.cronExpr),
		slog.Duration("pacing", o.pacing),
	)

	for {
		next, err := nextCronTime(o.cronExpr, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("pipeline: parsing cron expression %q: %w", o.cronExpr, err)
		}

		o.logger.Info("waiting for next sync trigger",
			slog.Time("next_run", next),
			slog.Duration("wait", time.Until(next)),
		)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			o.logger.Info("sync scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			o.running.Lock()
			stats, err := o.runCycle(ctx)
			o.running.Unlock()
			o.finishCycle(ctx, stats, err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// TriggerCycle runs one cycle immediately, outside the cron cadence. It
// returns ErrCycleRunning if a cycle is already in progress.
func (o *Orchestrator) TriggerCycle(ctx context.Context) (CycleStats, error) {
	if !o.running.TryLock() {
		return CycleStats{}, ErrCycleRunning
	}
	defer o.running.Unlock()

	stats, err := o.runCycle(ctx)
	o.finishCycle(ctx, stats, err)
	return stats, err
}

// runCycle performs one full pass: enumerate companies, evict the whole
// finance cache namespace, then sequentially scrape-and-merge each company
// with a cancellable pacing delay between companies. Cancellation mid-pause
// aborts the remainder cleanly; every write already made is a complete,
// uniqueness-checked insert, so an aborted cycle just means fewer companies
// refreshed.
func (o *Orchestrator) runCycle(ctx context.Context) (CycleStats, error) {
	start := time.Now()
	o.logger.InfoContext(ctx, "sync cycle started")

	companies, err := o.companies.List(ctx)
	if err != nil {
		return CycleStats{}, fmt.Errorf("pipeline: list companies: %w", err)
	}

	stats := CycleStats{Companies: len(companies)}

	// Coarse invalidation up front: the whole namespace, not per-company.
	// The next read miss repopulates lazily and no stale entry survives the
	// cycle.
	if err := o.cache.InvalidateAll(ctx); err != nil {
		o.logger.ErrorContext(ctx, "cache invalidation failed",
			slog.String("error", err.Error()),
		)
		stats.Failures++
	}

	for _, company := range companies {
		if ctx.Err() != nil {
			stats.Duration = time.Since(start)
			return stats, ctx.Err()
		}

		inserted, failed := o.scrapeAndMerge(ctx, company)
		stats.Scraped++
		stats.Inserted += inserted
		if failed {
			stats.Failures++
		}

		// Pace outbound requests to the scraped site. The pause must be
		// interruptible so shutdown does not hang on a sleeping cycle.
		if err := o.pause(ctx); err != nil {
			stats.Duration = time.Since(start)
			return stats, err
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// scrapeAndMerge scrapes one company and inserts every event not already
// stored. It logs and continues on every failure: neither a scrape failure
// nor a single write failure may stop the cycle.
func (o *Orchestrator) scrapeAndMerge(ctx context.Context, company domain.Company) (inserted int, failed bool) {
	o.logger.InfoContext(ctx, "scraping company",
		slog.String("ticker", company.Ticker),
		slog.String("name", company.Name),
	)

	result := o.scraper.ScrapeDividends(ctx, company)

	for _, event := range result.Dividends {
		exists, err := o.dividends.EventExists(ctx, company.ID, event.Date)
		if err != nil {
			o.logger.ErrorContext(ctx, "existence check failed",
				slog.String("ticker", company.Ticker),
				slog.Time("date", event.Date),
				slog.String("error", err.Error()),
			)
			failed = true
			continue
		}
		if exists {
			continue
		}

		if err := o.dividends.Insert(ctx, event); err != nil {
			// Another writer inserted the same (company, date) between the
			// check and the write. The store constraint already holds the
			// invariant, so the race outcome is benign.
			if errors.Is(err, domain.ErrAlreadyExists) {
				continue
			}
			o.logger.ErrorContext(ctx, "dividend insert failed",
				slog.String("ticker", company.Ticker),
				slog.Time("date", event.Date),
				slog.String("error", err.Error()),
			)
			failed = true
			continue
		}

		inserted++
		o.logger.InfoContext(ctx, "inserted new dividend",
			slog.String("ticker", company.Ticker),
			slog.Time("date", event.Date),
			slog.String("amount", event.Amount),
		)
	}

	return inserted, failed
}

// pause waits the pacing interval or returns early when ctx is cancelled.
func (o *Orchestrator) pause(ctx context.Context) error {
	if o.pacing <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(o.pacing)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// finishCycle logs the cycle outcome and fans it out to the event sink and
// the notifier.
func (o *Orchestrator) finishCycle(ctx context.Context, stats CycleStats, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		o.logger.Error("sync cycle failed", slog.String("error", err.Error()))
	}

	o.logger.Info("sync cycle finished",
		slog.Int("companies", stats.Companies),
		slog.Int("scraped", stats.Scraped),
		slog.Int("inserted", stats.Inserted),
		slog.Int("failures", stats.Failures),
		slog.Duration("duration", stats.Duration),
	)

	if o.sink != nil {
		o.sink.Publish("sync_cycle", stats)
	}

	if o.notifier != nil && stats.Failures > 0 {
		msg := fmt.Sprintf("scraped %d/%d companies, %d new dividends, %d failures",
			stats.Scraped, stats.Companies, stats.Inserted, stats.Failures)
		if nerr := o.notifier.Notify(ctx, "sync_failures", "Dividend sync completed with failures", msg); nerr != nil {
			o.logger.Warn("cycle notification failed", slog.String("error", nerr.Error()))
		}
	}
}
