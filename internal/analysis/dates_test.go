package analysis

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"date only", "2025-04-15", time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)},
		{"datetime", "2025-04-15 08:30:00", time.Date(2025, 4, 15, 8, 30, 0, 0, time.UTC)},
		{"iso datetime", "2025-04-15T08:30:00", time.Date(2025, 4, 15, 8, 30, 0, 0, time.UTC)},
		{"rfc3339", "2025-04-15T08:30:00Z", time.Date(2025, 4, 15, 8, 30, 0, 0, time.UTC)},
		{"padded", "  2025-04-15  ", time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)},
		{"garbage falls back to now", "not a date", now},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeDate(tc.raw, now)
			if !got.Equal(tc.want) {
				t.Fatalf("NormalizeDate(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestMonthLabel(t *testing.T) {
	d := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
	if got := MonthLabel(d, LangRussian); got != "Апрель 2025" {
		t.Errorf("russian label = %q", got)
	}
	if got := MonthLabel(d, LangEnglish); got != "April 2025" {
		t.Errorf("english label = %q", got)
	}
	dec := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)
	if got := MonthLabel(dec, LangRussian); got != "Декабрь 2024" {
		t.Errorf("december label = %q", got)
	}
}

func TestDayOf(t *testing.T) {
	in := time.Date(2025, 4, 15, 23, 59, 59, 0, time.UTC)
	want := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	if got := dayOf(in); !got.Equal(want) {
		t.Fatalf("dayOf = %v, want %v", got, want)
	}
}
