// Package ranking scores directory providers against a search query and
// orders them by relevance.
package ranking

import (
	"directory-workers/internal/analytics"
	"directory-workers/internal/models"
)

// MaxDistanceKm is the distance at which the distance factor reaches zero.
const MaxDistanceKm = 100.0

// Query is a relevance request. Offset must be >= 0 and Limit > 0; both are
// applied only after the full candidate set has been ranked.
type Query struct {
	Text      string   `json:"query"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Offset    int      `json:"offset"`
	Limit     int      `json:"limit"`
}

// Origin returns the requester coordinates, or nil when either is missing.
func (q Query) Origin() *analytics.Coordinates {
	return analytics.NewCoordinates(q.Latitude, q.Longitude)
}

// Factors is the per-factor breakdown of a relevance score, each in [0,1].
type Factors struct {
	Distance   float64 `json:"distance"`
	Rating     float64 `json:"rating"`
	Service    float64 `json:"serviceMatch"`
	Conversion float64 `json:"conversion"`
}

// ScoredResult is a provider with its relevance score for one request.
type ScoredResult struct {
	Provider   models.Provider `json:"provider"`
	Score      float64         `json:"relevanceScore"`
	Factors    Factors         `json:"factors"`
	DistanceKm *float64        `json:"distanceKm,omitempty"`
}

// Page is one slice of a ranked result set.
type Page struct {
	Results []ScoredResult `json:"results"`
	Total   int            `json:"total"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
}

// Scores maps provider id to score, the shape handed to score caches.
func (p Page) Scores() map[int64]float64 {
	return ScoreMap(p.Results)
}

// ScoreMap maps provider id to score for results.
func ScoreMap(results []ScoredResult) map[int64]float64 {
	out := make(map[int64]float64, len(results))
	for _, r := range results {
		out[r.Provider.ID] = r.Score
	}
	return out
}
