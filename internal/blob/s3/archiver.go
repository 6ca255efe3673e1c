package s3blob

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantfold/divtracker/internal/domain"
)

// PageArchive implements domain.PageArchiver. It stores gzipped raw history
// pages so scrapes can be replayed against old markup, and JSON tombstones of
// a company's full history taken just before a cascade delete.
//
// Key layout:
//
//	scrapes/{ticker}/{RFC3339 timestamp}.html.gz
//	tombstones/{ticker}/{RFC3339 timestamp}.json
type PageArchive struct {
	writer domain.BlobWriter
}

// NewPageArchive creates a PageArchive on top of the given blob writer.
func NewPageArchive(writer domain.BlobWriter) *PageArchive {
	return &PageArchive{writer: writer}
}

// ArchivePage stores one raw scraped page, gzip-compressed.
func (a *PageArchive) ArchivePage(ctx context.Context, ticker string, fetchedAt time.Time, body []byte) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(body); err != nil {
		return fmt.Errorf("s3blob: compress page for %s: %w", ticker, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("s3blob: compress page for %s: %w", ticker, err)
	}

	key := PagePrefix(ticker) + fetchedAt.UTC().Format(time.RFC3339) + ".html.gz"
	if err := a.writer.Put(ctx, key, &buf, "application/gzip"); err != nil {
		return fmt.Errorf("s3blob: archive page for %s: %w", ticker, err)
	}
	return nil
}

// ArchiveTombstone stores a company's full dividend history as JSON before
// the company is deleted.
func (a *PageArchive) ArchiveTombstone(ctx context.Context, result domain.ScrapedResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal tombstone for %s: %w", result.Company.Ticker, err)
	}

	key := fmt.Sprintf("tombstones/%s/%s.json",
		result.Company.Ticker, time.Now().UTC().Format(time.RFC3339))
	if err := a.writer.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive tombstone for %s: %w", result.Company.Ticker, err)
	}
	return nil
}

// PagePrefix returns the key prefix under which a ticker's archived pages
// live. Shared with the archive-listing handler.
func PagePrefix(ticker string) string {
	return "scrapes/" + ticker + "/"
}

// Compile-time interface check.
var _ domain.PageArchiver = (*PageArchive)(nil)
