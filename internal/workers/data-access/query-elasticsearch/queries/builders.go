package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"directory-workers/internal/store"
)

const (
	QueryTypeProviderSearch   = "provider_search"
	QueryTypeRelatedProviders = "related_providers"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
	ErrIndexNotFound    = errors.New("index not found")
)

// SearchQuery defines the structure of a query request
type SearchQuery struct {
	Index      string
	QueryType  string
	Keywords   string
	District   string
	MinRating  float64
	ProviderID int64
	Pagination Pagination
}

type Pagination struct {
	From int
	Size int
}

// BuildQuery builds a search request for the query type.
func BuildQuery(sq SearchQuery) (*esapi.SearchRequest, error) {
	if sq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch sq.QueryType {
	case QueryTypeProviderSearch:
		queryBody = buildProviderSearchQuery(sq)
	case QueryTypeRelatedProviders:
		queryBody = buildRelatedProvidersQuery(sq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, sq.QueryType)
	}

	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	return &esapi.SearchRequest{
		Index: []string{sq.Index},
		Body:  bytes.NewReader(body),
		From:  &sq.Pagination.From,
		Size:  &sq.Pagination.Size,
	}, nil
}

// buildProviderSearchQuery reuses the candidate multi_match and narrows it
// with optional district and minimum rating filters.
func buildProviderSearchQuery(sq SearchQuery) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	keywords := strings.TrimSpace(sq.Keywords)
	if keywords != "" {
		candidate := store.CandidateQuery(keywords)
		mustClauses = append(mustClauses, candidate["query"])
	} else {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	if sq.District != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"match": map[string]interface{}{
				"district": map[string]interface{}{"query": sq.District, "operator": "and"},
			},
		})
	}

	if sq.MinRating > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"rating": map[string]interface{}{"gte": sq.MinRating},
			},
		})
	}

	boolQuery := map[string]interface{}{"must": mustClauses}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"id": map[string]interface{}{"order": "asc"}},
		},
	}
}

// buildRelatedProvidersQuery finds providers similar to ProviderID.
func buildRelatedProvidersQuery(sq SearchQuery) map[string]interface{} {
	if sq.ProviderID <= 0 {
		return map[string]interface{}{
			"query": map[string]interface{}{
				"match_none": map[string]interface{}{},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"more_like_this": map[string]interface{}{
				"fields": []string{"name", "district", "services"},
				"like": []map[string]interface{}{
					{"_index": sq.Index, "_id": fmt.Sprintf("%d", sq.ProviderID)},
				},
				"min_term_freq":   1,
				"max_query_terms": 12,
				"min_doc_freq":    1,
				"min_word_length": 3,
			},
		},
	}
}
