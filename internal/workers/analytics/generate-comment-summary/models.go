// internal/workers/analytics/generate-comment-summary/models.go
package generatecommentsummary

type Input struct {
	ProviderID int64 `json:"providerId"`
}

type Output struct {
	ProviderID       int64    `json:"providerId"`
	Summary          string   `json:"summary"`
	CommentsAnalyzed int      `json:"commentsAnalyzed"`
	AverageRating    float64  `json:"averageRating"`
	Keywords         []string `json:"keywords"`
	Persisted        bool     `json:"persisted"`
}
