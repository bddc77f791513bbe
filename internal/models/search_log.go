// internal/models/search_log.go
package models

import "time"

// SearchLogEntry records one search request for trend analytics.
type SearchLogEntry struct {
	ID          int64     `json:"id,omitempty"`
	Term        string    `json:"term"`
	UserID      string    `json:"userId,omitempty"`
	ResultCount int       `json:"resultCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
