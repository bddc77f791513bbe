// internal/models/provider.go
package models

import "time"

// Provider is a searchable directory entry. RelevanceScore and Summary are
// computed outputs persisted on a best-effort basis; they are never the
// source of truth for ranking.
type Provider struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	District       string   `json:"district"`
	Rating         float64  `json:"rating"`
	TotalViews     int      `json:"totalViews"`
	TotalComments  int      `json:"totalComments"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Services       []string `json:"services"`
	OwnerID        string   `json:"ownerId,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	RelevanceScore float64  `json:"relevanceScore,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (p Provider) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// RatingSample is a single customer rating with its free-text comment.
type RatingSample struct {
	ProviderID int64     `json:"providerId"`
	Score      int       `json:"score"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Scores extracts the integer scores of samples in order.
func Scores(samples []RatingSample) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = s.Score
	}
	return out
}
