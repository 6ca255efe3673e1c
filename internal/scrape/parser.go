// Package scrape turns the finance site's semi-structured HTML into typed
// dividend records. Parsing is best-effort: rows that are not dividend rows
// are skipped, while a dividend-shaped row with an unrecognised month token
// is surfaced as a malformed-row error because it signals a format break.
package scrape

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/quantfold/divtracker/internal/domain"
)

// dividendMarker is the trailing label that distinguishes dividend rows from
// split and price rows in the historical-prices table.
const dividendMarker = "Dividend"

// months resolves the leading token of a dividend row to a month number.
var months = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// DividendRow is one parsed dividend row: the payout date and the payout
// amount as normalised decimal text.
type DividendRow struct {
	Date   time.Time
	Amount string
}

// ParseDividendHistory extracts dividend rows from a historical-prices page.
// It returns every well-formed dividend row in document order. Rows whose
// trailing label is not the dividend marker are skipped silently; a dividend
// row whose month token is unrecognised contributes a domain.ErrMalformedRow
// to the joined error while the rest of the page continues parsing. The
// returned rows are valid even when the error is non-nil.
func ParseDividendHistory(r io.Reader) ([]DividendRow, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("scrape: parse history document: %w", err)
	}

	var rows []DividendRow
	var rowErrs []error

	walkRows(doc, func(text string) {
		row, err := parseDividendRow(text)
		if err != nil {
			if errors.Is(err, domain.ErrMalformedRow) {
				rowErrs = append(rowErrs, err)
			}
			// Any other shape mismatch means this is not a dividend row.
			return
		}
		rows = append(rows, row)
	})

	return rows, errors.Join(rowErrs...)
}

// errNotDividendRow marks rows that do not carry the dividend label. They are
// skipped without being reported.
var errNotDividendRow = errors.New("not a dividend row")

// parseDividendRow parses the flattened text of one table row, expected as
// "Month Day, Year ... Amount Dividend".
func parseDividendRow(text string) (DividendRow, error) {
	if !strings.HasSuffix(text, dividendMarker) {
		return DividendRow{}, errNotDividendRow
	}

	fields := strings.Fields(text)
	if len(fields) < 5 {
		return DividendRow{}, errNotDividendRow
	}

	month, ok := months[fields[0]]
	if !ok {
		return DividendRow{}, fmt.Errorf("scrape: unexpected month token %q: %w", fields[0], domain.ErrMalformedRow)
	}

	day, err := strconv.Atoi(strings.TrimSuffix(fields[1], ","))
	if err != nil {
		return DividendRow{}, errNotDividendRow
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return DividendRow{}, errNotDividendRow
	}

	amount, err := decimal.NewFromString(fields[3])
	if err != nil {
		return DividendRow{}, errNotDividendRow
	}

	return DividendRow{
		Date:   time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		Amount: amount.String(),
	}, nil
}

// walkRows visits every <tr> in the document and calls fn with the row's
// flattened, whitespace-normalised text.
func walkRows(n *html.Node, fn func(text string)) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
		text := strings.Join(strings.Fields(collectText(n)), " ")
		if text != "" {
			fn(text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkRows(c, fn)
	}
}

// ParseCompanyName extracts the company display name from a summary page: the
// text of the first level-1 heading, split on " - ", trimmed prefix. It
// returns domain.ErrNoTitle when the page has no <h1>.
func ParseCompanyName(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("scrape: parse summary document: %w", err)
	}

	h1 := findFirst(doc, atom.H1)
	if h1 == nil {
		return "", domain.ErrNoTitle
	}

	title := strings.Join(strings.Fields(collectText(h1)), " ")
	name := strings.TrimSpace(strings.SplitN(title, " - ", 2)[0])
	if name == "" {
		return "", domain.ErrNoTitle
	}
	return name, nil
}

// findFirst returns the first element with the given atom in document order.
func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

// collectText flattens all text nodes under n.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
