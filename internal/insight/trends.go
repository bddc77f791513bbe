package insight

import (
	"sort"
	"strings"
	"time"

	"directory-workers/internal/models"
)

const dateLayout = "2006-01-02"

type TermCount struct {
	Term      string `json:"term"`
	Frequency int    `json:"frequency"`
}

type DailyTotal struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

// TermAttempts counts searches for a term that returned nothing.
type TermAttempts struct {
	Term     string `json:"term"`
	Attempts int    `json:"attempts"`
}

type Trends struct {
	TopTerms []TermCount    `json:"topTerms"`
	Trend    []DailyTotal   `json:"trend"`
	DataGaps []TermAttempts `json:"dataGaps"`
}

// SearchTrends aggregates the search log between since and until. Terms are
// compared trimmed and lowercased. Every UTC day in the window appears in
// Trend, with zero for days without searches. TopTerms and DataGaps are
// ordered by count descending, then term, and capped at limit.
func SearchTrends(entries []models.SearchLogEntry, since, until time.Time, limit int) Trends {
	freq := map[string]int{}
	gaps := map[string]int{}
	daily := map[string]int{}

	for _, e := range entries {
		term := strings.ToLower(strings.TrimSpace(e.Term))
		if term == "" {
			continue
		}
		freq[term]++
		if e.ResultCount == 0 {
			gaps[term]++
		}
		daily[e.CreatedAt.UTC().Format(dateLayout)]++
	}

	top := make([]TermCount, 0, len(freq))
	for term, n := range freq {
		top = append(top, TermCount{Term: term, Frequency: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Frequency != top[j].Frequency {
			return top[i].Frequency > top[j].Frequency
		}
		return top[i].Term < top[j].Term
	})

	missing := make([]TermAttempts, 0, len(gaps))
	for term, n := range gaps {
		missing = append(missing, TermAttempts{Term: term, Attempts: n})
	}
	sort.Slice(missing, func(i, j int) bool {
		if missing[i].Attempts != missing[j].Attempts {
			return missing[i].Attempts > missing[j].Attempts
		}
		return missing[i].Term < missing[j].Term
	})

	return Trends{
		TopTerms: capSlice(top, limit),
		Trend:    dailySeries(daily, since, until),
		DataGaps: capSlice(missing, limit),
	}
}

func dailySeries(daily map[string]int, since, until time.Time) []DailyTotal {
	start := truncateDay(since)
	end := truncateDay(until)

	series := []DailyTotal{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		series = append(series, DailyTotal{Date: key, Total: daily[key]})
	}
	return series
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func capSlice[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
