package searchproviders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directory-workers/internal/cache"
	apperrors "directory-workers/internal/common/errors"
	"directory-workers/internal/common/logger"
	"directory-workers/internal/models"
	"directory-workers/internal/ranking"
	"directory-workers/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeCandidates struct {
	providers []models.Provider
	err       error
	gotTerm   string
}

func (f *fakeCandidates) SearchCandidates(_ context.Context, term string) ([]models.Provider, error) {
	f.gotTerm = term
	return f.providers, f.err
}

type fakeScoreCache struct {
	got map[int64]float64
	err error
}

func (f *fakeScoreCache) StoreScores(_ context.Context, scores map[int64]float64) error {
	f.got = scores
	return f.err
}

type fakeSearchLog struct {
	entries []models.SearchLogEntry
	err     error
}

func (f *fakeSearchLog) LogSearch(_ context.Context, e models.SearchLogEntry) error {
	f.entries = append(f.entries, e)
	return f.err
}

func ptr(v float64) *float64 { return &v }

func createTestConfig() *Config {
	cfg := LoadConfig()
	cfg.Timeout = 5 * time.Second
	cfg.MaxLimit = 50
	return cfg
}

func testProviders() []models.Provider {
	return []models.Provider{
		{ID: 1, Name: "Notaría Sur", Rating: 3.0, Services: []string{"legalizaciones"}},
		{ID: 2, Name: "Notaría Poderes Express", Rating: 4.0, TotalViews: 10, TotalComments: 5},
		{ID: 3, Name: "Notaría Centro", Rating: 5.0, Services: []string{"Poderes", "testamentos"}, TotalViews: 100, TotalComments: 50},
		{ID: 4, Name: "Notaría Norte", Rating: 0},
	}
}

// newTestHandler keeps nil fakes out of the interfaces so the optional
// steps are skipped rather than called on a nil receiver.
func newTestHandler(t *testing.T, candidates *fakeCandidates, scores *fakeScoreCache, searchLog *fakeSearchLog) *Handler {
	var sc cache.ScoreCache
	if scores != nil {
		sc = scores
	}
	var sl store.SearchLogger
	if searchLog != nil {
		sl = searchLog
	}
	return NewHandler(createTestConfig(), candidates, sc, sl, nil, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_RanksAndPaginates(t *testing.T) {
	candidates := &fakeCandidates{providers: testProviders()}
	scores := &fakeScoreCache{}
	searchLog := &fakeSearchLog{}
	h := newTestHandler(t, candidates, scores, searchLog)

	out, err := h.Execute(context.Background(), &Input{Query: "  poderes ", Offset: 0, Limit: 2, UserID: "7"})
	require.NoError(t, err)

	assert.Equal(t, "poderes", candidates.gotTerm)
	assert.Equal(t, 4, out.Total)
	require.Len(t, out.Results, 2)
	assert.Equal(t, int64(3), out.Results[0].Provider.ID)
	assert.Equal(t, int64(2), out.Results[1].Provider.ID)
	assert.GreaterOrEqual(t, out.Results[0].Score, out.Results[1].Score)

	// service match 1.0, rating 1.0, conversion 0.5, distance neutral
	assert.InDelta(t, 0.4*0.5+0.3*1.0+0.2*1.0+0.1*0.5, out.Results[0].Score, 1e-9)

	assert.Len(t, scores.got, 4, "every candidate score is cached, not only the page")
	require.Len(t, searchLog.entries, 1)
	assert.Equal(t, "poderes", searchLog.entries[0].Term)
	assert.Equal(t, 4, searchLog.entries[0].ResultCount)
	assert.Equal(t, "7", searchLog.entries[0].UserID)
}

func TestHandler_Execute_OffsetBeyondResults(t *testing.T) {
	h := newTestHandler(t, &fakeCandidates{providers: testProviders()}, nil, nil)

	out, err := h.Execute(context.Background(), &Input{Query: "notaría", Offset: 10, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Total)
	assert.Empty(t, out.Results)
}

func TestHandler_Execute_LimitDefaultsAndCap(t *testing.T) {
	providers := make([]models.Provider, 120)
	for i := range providers {
		providers[i] = models.Provider{ID: int64(i + 1), Name: "Notaría", Rating: 4}
	}
	h := newTestHandler(t, &fakeCandidates{providers: providers}, nil, nil)

	out, err := h.Execute(context.Background(), &Input{Query: "notaría"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, out.Limit)
	assert.Len(t, out.Results, DefaultLimit)

	out, err = h.Execute(context.Background(), &Input{Query: "notaría", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 50, out.Limit)
	assert.Len(t, out.Results, 50)
	assert.Equal(t, 120, out.Total)
}

func TestHandler_Execute_WithLocation(t *testing.T) {
	providers := []models.Provider{
		{ID: 1, Name: "Cerca", Rating: 3, Latitude: ptr(-12.05), Longitude: ptr(-77.05)},
		{ID: 2, Name: "Lejos", Rating: 3, Latitude: ptr(-13.5), Longitude: ptr(-77.05)},
	}
	h := newTestHandler(t, &fakeCandidates{providers: providers}, nil, nil)

	out, err := h.Execute(context.Background(), &Input{Query: "xx", Latitude: ptr(-12.05), Longitude: ptr(-77.05), Limit: 10})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, int64(1), out.Results[0].Provider.ID)
	require.NotNil(t, out.Results[0].DistanceKm)
	assert.InDelta(t, 0.0, *out.Results[0].DistanceKm, 1e-9)
	assert.Equal(t, 0.0, out.Results[1].Factors.Distance)
}

func TestHandler_Execute_CustomWeights(t *testing.T) {
	h := newTestHandler(t, &fakeCandidates{providers: testProviders()}, nil, nil)

	w := ranking.Weights{Rating: 1}
	out, err := h.Execute(context.Background(), &Input{Query: "notaría", Limit: 10, Weights: &w})
	require.NoError(t, err)
	for _, r := range out.Results {
		assert.InDelta(t, r.Provider.Rating/5, r.Score, 1e-9)
	}
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
		code  apperrors.ErrorCode
	}{
		{name: "nil input", input: nil, code: apperrors.ErrCodeInvalidSearchInput},
		{name: "single character", input: &Input{Query: "a"}, code: apperrors.ErrCodeInvalidSearchInput},
		{name: "short after trim", input: &Input{Query: "  a   "}, code: apperrors.ErrCodeInvalidSearchInput},
		{name: "negative offset", input: &Input{Query: "poderes", Offset: -1}, code: apperrors.ErrCodeInvalidSearchInput},
		{name: "negative limit", input: &Input{Query: "poderes", Limit: -3}, code: apperrors.ErrCodeInvalidSearchInput},
		{name: "latitude out of range", input: &Input{Query: "poderes", Latitude: ptr(95), Longitude: ptr(0)}, code: apperrors.ErrCodeInvalidSearchInput},
		{name: "latitude without longitude", input: &Input{Query: "poderes", Latitude: ptr(-12)}, code: apperrors.ErrCodeInvalidSearchInput},
		{name: "weights do not sum to one", input: &Input{Query: "poderes", Weights: &ranking.Weights{Distance: 0.5, Rating: 0.1}}, code: apperrors.ErrCodeInvalidWeights},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := &fakeCandidates{providers: testProviders()}
			h := newTestHandler(t, candidates, nil, nil)

			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
			assert.Empty(t, candidates.gotTerm, "store must not be queried")
		})
	}
}

// ==========================
// Collaborator Failure Tests
// ==========================

func TestHandler_Execute_CandidateSourceFails(t *testing.T) {
	h := newTestHandler(t, &fakeCandidates{err: errors.New("connection refused")}, nil, nil)

	_, err := h.Execute(context.Background(), &Input{Query: "poderes"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCandidateQueryFailed))
}

func TestHandler_Execute_BestEffortWritesDoNotFail(t *testing.T) {
	scores := &fakeScoreCache{err: errors.New("redis down")}
	searchLog := &fakeSearchLog{err: errors.New("insert failed")}
	h := newTestHandler(t, &fakeCandidates{providers: testProviders()}, scores, searchLog)

	out, err := h.Execute(context.Background(), &Input{Query: "poderes", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Total)
	assert.Len(t, searchLog.entries, 1)
}

func TestHandler_Execute_NoCandidates(t *testing.T) {
	searchLog := &fakeSearchLog{}
	scores := &fakeScoreCache{}
	h := newTestHandler(t, &fakeCandidates{providers: []models.Provider{}}, scores, searchLog)

	out, err := h.Execute(context.Background(), &Input{Query: "apostilla"})
	require.NoError(t, err)
	assert.Zero(t, out.Total)
	assert.Empty(t, out.Results)
	assert.Nil(t, scores.got)
	require.Len(t, searchLog.entries, 1)
	assert.Zero(t, searchLog.entries[0].ResultCount)
}
