// internal/workers/directory/apply-relevance-ranking/models.go
package applyrelevanceranking

import (
	"directory-workers/internal/models"
	"directory-workers/internal/ranking"
)

// Input carries a candidate set fetched earlier in the process, typically by
// the query-postgresql or query-elasticsearch task.
type Input struct {
	Candidates []models.Provider `json:"candidates"`
	Query      string            `json:"query"`
	Latitude   *float64          `json:"latitude,omitempty"`
	Longitude  *float64          `json:"longitude,omitempty"`
	Offset     int               `json:"offset"`
	Limit      int               `json:"limit"`
	Weights    *ranking.Weights  `json:"weights,omitempty"`
}

type Output struct {
	RankedProviders []ranking.ScoredResult `json:"rankedProviders"`
	Total           int                    `json:"total"`
	Scores          map[int64]float64      `json:"scores"`
}
