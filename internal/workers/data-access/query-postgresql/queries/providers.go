// internal/workers/data-access/query-postgresql/queries/providers.go
package queries

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"directory-workers/internal/analytics"
	"directory-workers/internal/models"
)

func ProviderCandidates(ctx context.Context, st Store, params Params) (interface{}, int, error) {
	term := strings.TrimSpace(params.Term)
	if term == "" {
		return nil, 0, fmt.Errorf("%w: term", ErrMissingParam)
	}

	providers, err := st.SearchCandidates(ctx, term)
	if err != nil {
		return nil, 0, err
	}
	return providers, len(providers), nil
}

func ProviderDetails(ctx context.Context, st Store, params Params) (interface{}, int, error) {
	if params.ProviderID <= 0 {
		return nil, 0, fmt.Errorf("%w: providerId", ErrMissingParam)
	}

	provider, err := st.GetProvider(ctx, params.ProviderID)
	if err != nil {
		return nil, 0, err
	}
	return provider, 1, nil
}

// RatingStats is the per-provider rating digest returned by provider_ratings.
type RatingStats struct {
	ProviderID int64    `json:"providerId"`
	Count      int      `json:"count"`
	Mean       float64  `json:"mean"`
	StdDev     *float64 `json:"stddev"`
}

// ProviderRatings summarizes the rating history of every provider owned by
// params.OwnerID (all providers when empty), ordered by provider ID.
func ProviderRatings(ctx context.Context, st Store, params Params) (interface{}, int, error) {
	byProvider, err := st.RatingsByProvider(ctx, params.OwnerID)
	if err != nil {
		return nil, 0, err
	}

	stats := make([]RatingStats, 0, len(byProvider))
	for id, samples := range byProvider {
		d := analytics.Dispersion(analytics.IntsToFloats(models.Scores(samples)), analytics.DefaultMinSampleSize)
		stats = append(stats, RatingStats{
			ProviderID: id,
			Count:      d.Count,
			Mean:       d.Mean,
			StdDev:     d.StdDev,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ProviderID < stats[j].ProviderID })

	return stats, len(stats), nil
}

func RatingHistory(ctx context.Context, st Store, params Params) (interface{}, int, error) {
	if params.ProviderID <= 0 {
		return nil, 0, fmt.Errorf("%w: providerId", ErrMissingParam)
	}

	samples, err := st.RatingHistory(ctx, params.ProviderID)
	if err != nil {
		return nil, 0, err
	}
	return samples, len(samples), nil
}

func SearchLog(ctx context.Context, st Store, params Params) (interface{}, int, error) {
	if params.Since.IsZero() {
		return nil, 0, fmt.Errorf("%w: since", ErrMissingParam)
	}

	entries, err := st.SearchLog(ctx, params.Since)
	if err != nil {
		return nil, 0, err
	}
	return entries, len(entries), nil
}
