package analysis

import (
	"strconv"
	"strings"
	"time"
)

// Output languages supported by the pipeline.
const (
	LangRussian = "ru"
	LangEnglish = "en"
)

// DefaultLanguage is used when a submission carries no language.
const DefaultLanguage = LangRussian

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// NormalizeDate parses raw into a timestamp. Unparseable values fall back to
// now so date handling itself never fails; callers treat only an empty raw
// value as "no date".
func NormalizeDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}

var russianMonths = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// MonthLabel renders a date as a month-year label in the output language,
// e.g. "Апрель 2025" or "April 2025".
func MonthLabel(t time.Time, lang string) string {
	if lang == LangEnglish {
		return t.Format("January 2006")
	}
	return russianMonths[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// dayOf truncates a timestamp to its UTC calendar day.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
