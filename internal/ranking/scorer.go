package ranking

import (
	"sort"
	"strings"

	"directory-workers/internal/analytics"
	"directory-workers/internal/models"
)

const (
	serviceMatchFull = 1.0
	serviceMatchName = 0.5
	serviceMatchNone = 0.0
	maxRating        = 5.0
)

// Score computes the weighted relevance of p for q.
func Score(p models.Provider, q Query, w Weights) ScoredResult {
	distance, distanceKm := distanceFactor(p, q)

	f := Factors{
		Distance:   distance,
		Rating:     analytics.Normalize(p.Rating, 0, maxRating, false),
		Service:    serviceMatchFactor(p, q.Text),
		Conversion: analytics.ConversionRate(p.TotalComments, p.TotalViews),
	}

	score := w.Distance*f.Distance +
		w.Rating*f.Rating +
		w.Service*f.Service +
		w.Conversion*f.Conversion

	return ScoredResult{
		Provider:   p,
		Score:      score,
		Factors:    f,
		DistanceKm: distanceKm,
	}
}

// Rank scores every candidate and sorts by score descending. Equal scores are
// ordered by ascending provider id so the output is deterministic.
func Rank(candidates []models.Provider, q Query, w Weights) []ScoredResult {
	results := make([]ScoredResult, 0, len(candidates))
	for _, p := range candidates {
		results = append(results, Score(p, q, w))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Provider.ID < results[j].Provider.ID
	})

	return results
}

// Paginate returns the [offset, offset+limit) window of ranked results.
// Negative offsets are treated as zero; a non-positive limit yields nothing.
func Paginate(ranked []ScoredResult, offset, limit int) []ScoredResult {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(ranked) {
		return []ScoredResult{}
	}

	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[offset:end]
}

// RankPage ranks the full candidate set and then slices the requested page.
func RankPage(candidates []models.Provider, q Query, w Weights) Page {
	ranked := Rank(candidates, q, w)
	return Page{
		Results: Paginate(ranked, q.Offset, q.Limit),
		Total:   len(ranked),
		Offset:  q.Offset,
		Limit:   q.Limit,
	}
}

// distanceFactor is neutral when either side lacks coordinates. Distances are
// clamped to [0, MaxDistanceKm] so the factor never leaves [0,1].
func distanceFactor(p models.Provider, q Query) (float64, *float64) {
	origin := q.Origin()
	target := analytics.NewCoordinates(p.Latitude, p.Longitude)
	if origin == nil || target == nil {
		return analytics.NeutralFactor, nil
	}

	km := origin.DistanceTo(*target)
	clamped := analytics.Clamp(km, 0, MaxDistanceKm)
	return analytics.Normalize(clamped, 0, MaxDistanceKm, true), &km
}

// serviceMatchFactor is 1.0 when the query is a case-insensitive substring of
// any service tag, 0.5 when it only matches the name, 0 otherwise.
func serviceMatchFactor(p models.Provider, text string) float64 {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return serviceMatchNone
	}

	for _, s := range p.Services {
		if strings.Contains(strings.ToLower(s), needle) {
			return serviceMatchFull
		}
	}
	if strings.Contains(strings.ToLower(p.Name), needle) {
		return serviceMatchName
	}
	return serviceMatchNone
}
