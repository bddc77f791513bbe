// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeProviderCandidates QueryType = "provider_candidates"
	QueryTypeProviderDetails    QueryType = "provider_details"
	QueryTypeProviderRatings    QueryType = "provider_ratings"
	QueryTypeRatingHistory      QueryType = "rating_history"
	QueryTypeSearchLog          QueryType = "search_log"
)
