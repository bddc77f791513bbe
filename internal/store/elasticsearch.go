package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"directory-workers/internal/models"
)

const DefaultProviderIndex = "providers"

// Elasticsearch is a CandidateSource backed by the provider index. Documents
// are stored in the models.Provider JSON shape.
type Elasticsearch struct {
	client        *elasticsearch.Client
	index         string
	maxCandidates int
}

func NewElasticsearch(client *elasticsearch.Client, index string, maxCandidates int) *Elasticsearch {
	if index == "" {
		index = DefaultProviderIndex
	}
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Elasticsearch{client: client, index: index, maxCandidates: maxCandidates}
}

// Keyword sub-fields matched by CandidateQuery.
var candidateFields = []string{"name.keyword", "district.keyword", "services.keyword"}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// EscapeWildcard escapes wildcard metacharacters so term matches literally.
func EscapeWildcard(term string) string {
	return wildcardEscaper.Replace(term)
}

// CandidateQuery matches term as a case-insensitive substring of the name,
// district or any service tag, like the Postgres ILIKE search.
func CandidateQuery(term string) map[string]interface{} {
	pattern := "*" + EscapeWildcard(term) + "*"

	should := make([]interface{}, 0, len(candidateFields))
	for _, field := range candidateFields {
		should = append(should, map[string]interface{}{
			"wildcard": map[string]interface{}{
				field: map[string]interface{}{
					"value":            pattern,
					"case_insensitive": true,
				},
			},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               should,
				"minimum_should_match": 1,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"id": map[string]interface{}{"order": "asc"}},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Source models.Provider `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *Elasticsearch) SearchCandidates(ctx context.Context, term string) ([]models.Provider, error) {
	body, err := json.Marshal(CandidateQuery(term))
	if err != nil {
		return nil, fmt.Errorf("encode candidate query: %w", err)
	}

	size := e.maxCandidates
	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: index %s", ErrIndexNotFound, e.index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search candidates: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}

	providers := make([]models.Provider, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		p := hit.Source
		if p.Services == nil {
			p.Services = []string{}
		}
		providers = append(providers, p)
	}
	return providers, nil
}
