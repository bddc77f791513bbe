// internal/workers/directory/search-providers/models.go
package searchproviders

import "directory-workers/internal/ranking"

type Input struct {
	Query     string           `json:"query"`
	Latitude  *float64         `json:"latitude,omitempty"`
	Longitude *float64         `json:"longitude,omitempty"`
	Offset    int              `json:"offset"`
	Limit     int              `json:"limit,omitempty"`
	UserID    string           `json:"userId,omitempty"`
	Weights   *ranking.Weights `json:"weights,omitempty"`
}

type Output struct {
	Results []ranking.ScoredResult `json:"results"`
	Total   int                    `json:"total"`
	Offset  int                    `json:"offset"`
	Limit   int                    `json:"limit"`
}

const inputSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["query"],
	"properties": {
		"query":     {"type": "string", "minLength": 2, "maxLength": 255},
		"latitude":  {"type": "number", "minimum": -90, "maximum": 90},
		"longitude": {"type": "number", "minimum": -180, "maximum": 180},
		"offset":    {"type": "integer", "minimum": 0},
		"limit":     {"type": "integer", "minimum": 1},
		"userId":    {"type": "string"},
		"weights": {
			"type": "object",
			"properties": {
				"distance":   {"type": "number", "minimum": 0, "maximum": 1},
				"rating":     {"type": "number", "minimum": 0, "maximum": 1},
				"service":    {"type": "number", "minimum": 0, "maximum": 1},
				"conversion": {"type": "number", "minimum": 0, "maximum": 1}
			}
		}
	}
}`
