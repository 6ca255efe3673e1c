package domain

import (
	"time"

	"github.com/google/uuid"
)

// Company identifies a tracked, publicly traded company. A company is created
// the first time its ticker is successfully scraped and is immutable after
// that; the ticker is the natural key, Name is the display name used for
// autocomplete and cache keys.
type Company struct {
	ID        uuid.UUID
	Ticker    string
	Name      string
	CreatedAt time.Time
}

// DividendEvent is one recorded payout: an amount on a payout date for one
// company. Events are append-only; no two stored events may share
// (CompanyID, Date). Amount is kept as decimal text to avoid float rounding.
type DividendEvent struct {
	CompanyID uuid.UUID
	Date      time.Time
	Amount    string
}

// ScrapedResult is the transient aggregate produced by one scrape of one
// company. It is never persisted as a unit; each event is merged into the
// store independently with an insert-if-absent check.
type ScrapedResult struct {
	Company   Company
	Dividends []DividendEvent
}
