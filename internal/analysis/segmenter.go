package analysis

import (
	"sort"
	"strings"
	"time"

	"mirrormind/pkg/domain"
)

const (
	// Spans shorter than this stay a single period.
	minSegmentSpanDays = 30
	// Spans longer than a year get four windows instead of three.
	yearSpanDays = 365
)

// Period is one contiguous chronological window of the chat history. Start
// and End are inclusive UTC day bounds.
type Period struct {
	Index    int
	Label    string
	Start    time.Time
	End      time.Time
	Messages []domain.Message
}

type datedMessage struct {
	msg domain.Message
	day time.Time
}

// Segment splits messages into chronological periods. Messages without a
// date field are left out of every period, including the single-period
// fallback; the single-pass branch analyzes them because it never segments.
//
// Spans under 30 days yield exactly one period over all dated messages.
// Longer spans are cut into equal-length day windows (four when the span
// exceeds a year, three otherwise); the last window absorbs the division
// remainder so the windows partition [min_date, max_date] exactly. Windows
// that end up with zero messages are still emitted.
func Segment(messages []domain.Message, lang string, now time.Time) []Period {
	dated := make([]datedMessage, 0, len(messages))
	for _, msg := range messages {
		if strings.TrimSpace(msg.Date) == "" {
			continue
		}
		dated = append(dated, datedMessage{msg: msg, day: dayOf(NormalizeDate(msg.Date, now))})
	}
	if len(dated) == 0 {
		return nil
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].day.Before(dated[j].day) })

	minDay := dated[0].day
	maxDay := dated[len(dated)-1].day
	spanDays := int(maxDay.Sub(minDay).Hours() / 24)

	if spanDays < minSegmentSpanDays {
		all := make([]domain.Message, 0, len(dated))
		for _, dm := range dated {
			all = append(all, dm.msg)
		}
		return []Period{{
			Index:    0,
			Label:    singlePeriodLabel(lang),
			Start:    minDay,
			End:      maxDay,
			Messages: all,
		}}
	}

	numPeriods := 3
	if spanDays > yearSpanDays {
		numPeriods = 4
	}
	chunkDays := spanDays / numPeriods

	periods := make([]Period, 0, numPeriods)
	for i := 0; i < numPeriods; i++ {
		start := minDay.AddDate(0, 0, i*chunkDays)
		end := minDay.AddDate(0, 0, (i+1)*chunkDays-1)
		if i == numPeriods-1 {
			end = maxDay
		}
		periods = append(periods, Period{
			Index: i,
			Label: fallbackLabel(i, numPeriods, lang),
			Start: start,
			End:   end,
		})
	}

	for _, dm := range dated {
		for i := range periods {
			if !dm.day.Before(periods[i].Start) && !dm.day.After(periods[i].End) {
				periods[i].Messages = append(periods[i].Messages, dm.msg)
				break
			}
		}
	}
	return periods
}

func singlePeriodLabel(lang string) string {
	if lang == LangEnglish {
		return "All messages"
	}
	return "Все сообщения"
}

func fallbackLabel(index, numPeriods int, lang string) string {
	if lang == LangEnglish {
		switch {
		case index == 0:
			return "Opening period"
		case index == numPeriods-1:
			return "Final period"
		case numPeriods == 4 && index == 1:
			return "Second period"
		case numPeriods == 4 && index == 2:
			return "Third period"
		default:
			return "Middle period"
		}
	}
	switch {
	case index == 0:
		return "Начальный период"
	case index == numPeriods-1:
		return "Последний период"
	case numPeriods == 4 && index == 1:
		return "Второй период"
	case numPeriods == 4 && index == 2:
		return "Третий период"
	default:
		return "Средний период"
	}
}
