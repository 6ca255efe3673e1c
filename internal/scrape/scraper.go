package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/quantfold/divtracker/internal/domain"
)

const (
	summaryPath = "/quote/%s?p=%s"
	historyPath = "/quote/%s/history?period1=%d&period2=%d&interval=1mo"

	// defaultStartEpoch is the fixed start of the lookback window, one day
	// after the Unix epoch. The site serves the whole window in a single
	// response, so no pagination is needed.
	defaultStartEpoch = 86400

	maxBodySize = 8 << 20
)

// Config holds the scraper's endpoint and fetch parameters.
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	StartEpoch int64
}

// Scraper fetches company summary and dividend-history pages and delegates to
// the document parser. It performs one GET per operation with no retries; a
// retrying transport can be layered on the HTTP client by the caller.
type Scraper struct {
	baseURL    string
	userAgent  string
	startEpoch int64
	httpClient *http.Client
	archive    domain.PageArchiver
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Scraper. archive may be nil to disable raw-page archiving.
func New(cfg Config, archive domain.PageArchiver, logger *slog.Logger) *Scraper {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	startEpoch := cfg.StartEpoch
	if startEpoch <= 0 {
		startEpoch = defaultStartEpoch
	}
	return &Scraper{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		startEpoch: startEpoch,
		httpClient: &http.Client{Timeout: timeout},
		archive:    archive,
		logger:     logger.With(slog.String("component", "scraper")),
		now:        time.Now,
	}
}

// FetchCompany scrapes the summary page for ticker and returns the company
// identity. Unlike ScrapeDividends, every failure propagates to the caller:
// adding a company is a user-initiated, single-shot action and a bad ticker
// must be visible.
func (s *Scraper) FetchCompany(ctx context.Context, ticker string) (domain.Company, error) {
	url := s.baseURL + fmt.Sprintf(summaryPath, ticker, ticker)

	body, err := s.doGet(ctx, url)
	if err != nil {
		return domain.Company{}, fmt.Errorf("scrape: fetch summary for %s: %w", ticker, err)
	}

	name, err := ParseCompanyName(bytes.NewReader(body))
	if err != nil {
		return domain.Company{}, fmt.Errorf("scrape: company name for %s: %w", ticker, err)
	}

	return domain.Company{Ticker: ticker, Name: name}, nil
}

// ScrapeDividends scrapes the full dividend history for company over the
// fixed lookback window. Fetch and parse failures are logged and produce an
// empty dividend list so that one bad page never aborts a sync cycle. Malformed rows are logged and skipped while the
// rest of the page continues parsing.
func (s *Scraper) ScrapeDividends(ctx context.Context, company domain.Company) domain.ScrapedResult {
	result := domain.ScrapedResult{Company: company}

	url := s.baseURL + fmt.Sprintf(historyPath, company.Ticker, s.startEpoch, s.now().Unix())

	body, err := s.doGet(ctx, url)
	if err != nil {
		s.logger.ErrorContext(ctx, "history fetch failed",
			slog.String("ticker", company.Ticker),
			slog.String("error", err.Error()),
		)
		return result
	}

	s.archivePage(ctx, company.Ticker, body)

	rows, rowErr := ParseDividendHistory(bytes.NewReader(body))
	if rowErr != nil {
		s.logger.WarnContext(ctx, "skipped malformed dividend rows",
			slog.String("ticker", company.Ticker),
			slog.String("error", rowErr.Error()),
		)
	}

	result.Dividends = make([]domain.DividendEvent, 0, len(rows))
	for _, row := range rows {
		result.Dividends = append(result.Dividends, domain.DividendEvent{
			CompanyID: company.ID,
			Date:      row.Date,
			Amount:    row.Amount,
		})
	}
	return result
}

// archivePage stores the raw history page for replay. Archive failures are
// logged and swallowed.
func (s *Scraper) archivePage(ctx context.Context, ticker string, body []byte) {
	if s.archive == nil {
		return
	}
	if err := s.archive.ArchivePage(ctx, ticker, s.now().UTC(), body); err != nil {
		s.logger.WarnContext(ctx, "page archive failed",
			slog.String("ticker", ticker),
			slog.String("error", err.Error()),
		)
	}
}

// doGet issues a single GET and returns the response body. Network failures
// and non-2xx statuses wrap domain.ErrFetch.
func (s *Scraper) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrFetch, err)
	}
	return body, nil
}
