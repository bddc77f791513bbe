package queries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"directory-workers/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type QueryResult struct {
	Data      []models.Provider
	TotalHits int64
	MaxScore  float64
	Took      int64
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			Source models.Provider `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Execute runs sq against the cluster. Page sizes outside [1, MaxPageSize]
// are replaced with the default or the cap.
func Execute(ctx context.Context, esClient *elasticsearch.Client, sq SearchQuery) (*QueryResult, error) {
	if sq.Pagination.Size < 1 {
		sq.Pagination.Size = DefaultPageSize
	}
	if sq.Pagination.Size > MaxPageSize {
		sq.Pagination.Size = MaxPageSize
	}
	if sq.Pagination.From < 0 {
		sq.Pagination.From = 0
	}

	req, err := BuildQuery(sq)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := req.Do(ctx, esClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, sq.Index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	data := make([]models.Provider, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		p := hit.Source
		if p.Services == nil {
			p.Services = []string{}
		}
		data = append(data, p)
	}

	maxScore := 0.0
	if r.Hits.MaxScore != nil {
		maxScore = *r.Hits.MaxScore
	}

	return &QueryResult{
		Data:      data,
		TotalHits: r.Hits.Total.Value,
		MaxScore:  maxScore,
		Took:      time.Since(start).Milliseconds(),
	}, nil
}
