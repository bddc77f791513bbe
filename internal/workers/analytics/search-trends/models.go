// internal/workers/analytics/search-trends/models.go
package searchtrends

import "directory-workers/internal/insight"

// Input fields are optional; zero values fall back to the configured window
// and term cap.
type Input struct {
	Days  int `json:"days,omitempty"`
	Limit int `json:"limit,omitempty"`
}

type Output struct {
	TopTerms []insight.TermCount    `json:"topTerms"`
	Trend    []insight.DailyTotal   `json:"trend"`
	DataGaps []insight.TermAttempts `json:"dataGaps"`
	Since    string                 `json:"since"`
	Until    string                 `json:"until"`
	Searches int                    `json:"searches"`
}
