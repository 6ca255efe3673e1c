package pipeline

import (
	"testing"
	"time"
)

func TestParseCronField(t *testing.T) {
	tests := []struct {
		field   string
		val     int
		want    bool
		wantErr bool
	}{
		{"*", 59, true, false},
		{"0", 0, true, false},
		{"0", 1, false, false},
		{"1,15", 15, true, false},
		{"1,15", 2, false, false},
		{"abc", 0, false, true},
	}

	for _, tt := range tests {
		f, err := parseCronField(tt.field)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseCronField(%q) expected error", tt.field)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseCronField(%q) unexpected error: %v", tt.field, err)
			continue
		}
		if got := f.matches(tt.val); got != tt.want {
			t.Errorf("parseCronField(%q).matches(%d) = %v, want %v", tt.field, tt.val, got, tt.want)
		}
	}
}

func TestNextCronTime(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		after time.Time
		want  time.Time
	}{
		{
			name:  "daily at midnight",
			expr:  "0 0 * * *",
			after: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
			want:  time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "every minute",
			expr:  "* * * * *",
			after: time.Date(2024, 3, 1, 12, 30, 15, 0, time.UTC),
			want:  time.Date(2024, 3, 1, 12, 31, 0, 0, time.UTC),
		},
		{
			name:  "specific hour later today",
			expr:  "0 18 * * *",
			after: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
			want:  time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC),
		},
		{
			name:  "first of month",
			expr:  "0 0 1 * *",
			after: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextCronTime(tt.expr, tt.after)
			if err != nil {
				t.Fatalf("nextCronTime() unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("nextCronTime(%q, %v) = %v, want %v", tt.expr, tt.after, got, tt.want)
			}
		})
	}
}

func TestNextCronTimeInvalid(t *testing.T) {
	if _, err := nextCronTime("not a cron", time.Now()); err == nil {
		t.Error("nextCronTime with invalid expression expected error")
	}
	if _, err := nextCronTime("* * * *", time.Now()); err == nil {
		t.Error("nextCronTime with 4 fields expected error")
	}
}
