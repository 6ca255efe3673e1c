package scrape

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/quantfold/divtracker/internal/domain"
)

func historyPage(rows ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body><table><tbody>")
	for _, r := range rows {
		sb.WriteString(r)
	}
	sb.WriteString("</tbody></table></body></html>")
	return sb.String()
}

func TestParseDividendHistory(t *testing.T) {
	tests := []struct {
		name    string
		rows    []string
		want    []DividendRow
		wantErr bool
	}{
		{
			name: "single dividend row",
			rows: []string{
				"<tr><td>May 05, 2022</td><td>0.44</td><td>Dividend</td></tr>",
			},
			want: []DividendRow{
				{Date: time.Date(2022, time.May, 5, 0, 0, 0, 0, time.UTC), Amount: "0.44"},
			},
		},
		{
			name: "splits and price rows are skipped",
			rows: []string{
				"<tr><td>Jun 10, 2022</td><td>142.21</td><td>145.00</td><td>141.97</td><td>144.87</td><td>144.87</td><td>73,409,200</td></tr>",
				"<tr><td>Aug 31, 2020</td><td>4:1</td><td>Stock Split</td></tr>",
				"<tr><td>Feb 04, 2022</td><td>0.22</td><td>Dividend</td></tr>",
			},
			want: []DividendRow{
				{Date: time.Date(2022, time.February, 4, 0, 0, 0, 0, time.UTC), Amount: "0.22"},
			},
		},
		{
			name: "amount is normalised",
			rows: []string{
				"<tr><td>Nov 05, 2021</td><td>0.2200</td><td>Dividend</td></tr>",
			},
			want: []DividendRow{
				{Date: time.Date(2021, time.November, 5, 0, 0, 0, 0, time.UTC), Amount: "0.22"},
			},
		},
		{
			name: "unknown month surfaces error but parsing continues",
			rows: []string{
				"<tr><td>Mai 05, 2022</td><td>0.44</td><td>Dividend</td></tr>",
				"<tr><td>Feb 04, 2022</td><td>0.22</td><td>Dividend</td></tr>",
			},
			want: []DividendRow{
				{Date: time.Date(2022, time.February, 4, 0, 0, 0, 0, time.UTC), Amount: "0.22"},
			},
			wantErr: true,
		},
		{
			name: "multiple rows keep document order",
			rows: []string{
				"<tr><td>May 05, 2022</td><td>0.44</td><td>Dividend</td></tr>",
				"<tr><td>Feb 04, 2022</td><td>0.42</td><td>Dividend</td></tr>",
				"<tr><td>Nov 05, 2021</td><td>0.42</td><td>Dividend</td></tr>",
			},
			want: []DividendRow{
				{Date: time.Date(2022, time.May, 5, 0, 0, 0, 0, time.UTC), Amount: "0.44"},
				{Date: time.Date(2022, time.February, 4, 0, 0, 0, 0, time.UTC), Amount: "0.42"},
				{Date: time.Date(2021, time.November, 5, 0, 0, 0, 0, time.UTC), Amount: "0.42"},
			},
		},
		{
			name: "empty table",
			rows: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDividendHistory(strings.NewReader(historyPage(tt.rows...)))
			if tt.wantErr {
				if !errors.Is(err, domain.ErrMalformedRow) {
					t.Fatalf("ParseDividendHistory() error = %v, want ErrMalformedRow", err)
				}
			} else if err != nil {
				t.Fatalf("ParseDividendHistory() unexpected error: %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("ParseDividendHistory() = %d rows, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !got[i].Date.Equal(tt.want[i].Date) {
					t.Errorf("row %d: date = %v, want %v", i, got[i].Date, tt.want[i].Date)
				}
				if got[i].Amount != tt.want[i].Amount {
					t.Errorf("row %d: amount = %q, want %q", i, got[i].Amount, tt.want[i].Amount)
				}
			}
		})
	}
}

func TestParseCompanyName(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    string
		wantErr error
	}{
		{
			name: "title with ticker suffix",
			html: `<html><body><h1>Coca-Cola Company (The) (KO) - Stock Price</h1></body></html>`,
			want: "Coca-Cola Company (The) (KO)",
		},
		{
			name: "title without separator",
			html: `<html><body><h1>Apple Inc. (AAPL)</h1></body></html>`,
			want: "Apple Inc. (AAPL)",
		},
		{
			name: "first heading wins",
			html: `<html><body><h1>3M Company (MMM) - Overview</h1><h1>Other</h1></body></html>`,
			want: "3M Company (MMM)",
		},
		{
			name:    "missing heading",
			html:    `<html><body><p>nothing here</p></body></html>`,
			wantErr: domain.ErrNoTitle,
		},
		{
			name:    "empty heading",
			html:    `<html><body><h1>   </h1></body></html>`,
			wantErr: domain.ErrNoTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCompanyName(strings.NewReader(tt.html))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseCompanyName() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCompanyName() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCompanyName() = %q, want %q", got, tt.want)
			}
		})
	}
}
