// internal/workers/data-access/query-postgresql/queries/registry.go
package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"directory-workers/internal/models"
	"directory-workers/internal/store"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// Store is the read side of the directory database.
type Store interface {
	store.CandidateSource
	store.ProviderReader
	store.RatingSource
	store.SearchLogReader
}

// Params carries the optional job variables a query may need.
type Params struct {
	Term       string
	ProviderID int64
	OwnerID    string
	Since      time.Time
}

// QueryFunc returns: data, rowCount, error
type QueryFunc func(ctx context.Context, st Store, params Params) (interface{}, int, error)

var Registry = map[models.QueryType]QueryFunc{
	models.QueryTypeProviderCandidates: ProviderCandidates,
	models.QueryTypeProviderDetails:    ProviderDetails,
	models.QueryTypeProviderRatings:    ProviderRatings,
	models.QueryTypeRatingHistory:      RatingHistory,
	models.QueryTypeSearchLog:          SearchLog,
}

// Execute runs the registered query and reports its execution time in ms.
func Execute(ctx context.Context, st Store, queryType models.QueryType, params Params) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}

	start := time.Now()
	data, rowCount, err := fn(ctx, st, params)
	if err != nil {
		return nil, 0, 0, err
	}
	return data, rowCount, time.Since(start).Milliseconds(), nil
}
