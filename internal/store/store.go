// Package store reads providers, ratings and the search log from the
// directory's backing stores.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"directory-workers/internal/models"
)

var (
	ErrNotFound      = errors.New("provider not found")
	ErrInvalidInput  = errors.New("invalid store input")
	ErrIndexNotFound = errors.New("index not found")
)

// MaxTermLength bounds the logged search term, in runes.
const MaxTermLength = 255

// MaxUserIDLength bounds the user id stored with a search log entry.
const MaxUserIDLength = 128

type CandidateSource interface {
	SearchCandidates(ctx context.Context, term string) ([]models.Provider, error)
}

type ProviderReader interface {
	GetProvider(ctx context.Context, id int64) (*models.Provider, error)
	ListProviders(ctx context.Context, ownerID string) ([]models.Provider, error)
}

type RatingSource interface {
	RatingHistory(ctx context.Context, providerID int64) ([]models.RatingSample, error)
	RatingsByProvider(ctx context.Context, ownerID string) (map[int64][]models.RatingSample, error)
}

type SummaryWriter interface {
	SaveSummary(ctx context.Context, providerID int64, summary string) error
}

type SearchLogger interface {
	LogSearch(ctx context.Context, entry models.SearchLogEntry) error
}

type SearchLogReader interface {
	SearchLog(ctx context.Context, since time.Time) ([]models.SearchLogEntry, error)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters so term matches literally under
// ESCAPE '\'.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// ContainsPattern returns the ILIKE pattern matching term anywhere.
func ContainsPattern(term string) string {
	return "%" + EscapeLike(term) + "%"
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func sortedIDs(scores map[int64]float64) []int64 {
	ids := make([]int64, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
