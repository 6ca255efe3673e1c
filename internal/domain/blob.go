package domain

import (
	"context"
	"io"
	"time"
)

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobReader retrieves data from object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// PageArchiver stores raw scraped pages and company tombstones in cold
// storage so scrapes can be replayed when the source site changes its markup.
// A nil PageArchiver disables archiving; failures are never fatal to a scrape.
type PageArchiver interface {
	ArchivePage(ctx context.Context, ticker string, fetchedAt time.Time, body []byte) error
	ArchiveTombstone(ctx context.Context, result ScrapedResult) error
}
