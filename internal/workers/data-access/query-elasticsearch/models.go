// internal/workers/data-access/query-elasticsearch/models.go
package queryelasticsearch

import "directory-workers/internal/models"

type Input struct {
	IndexName  string     `json:"indexName,omitempty"`
	QueryType  string     `json:"queryType"`
	Keywords   string     `json:"keywords,omitempty"`
	District   string     `json:"district,omitempty"`
	MinRating  float64    `json:"minRating,omitempty"`
	ProviderID int64      `json:"providerId,omitempty"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Output struct {
	Data      []models.Provider `json:"data"`
	TotalHits int64             `json:"totalHits"`
	MaxScore  float64           `json:"maxScore"`
	Took      int64             `json:"took"` // milliseconds
}
