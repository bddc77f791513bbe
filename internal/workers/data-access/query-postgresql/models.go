// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import "directory-workers/internal/models"

type Input struct {
	QueryType  string `json:"queryType"`
	Term       string `json:"term,omitempty"`
	ProviderID int64  `json:"providerId,omitempty"`
	OwnerID    string `json:"ownerId,omitempty"`
	SinceDays  int    `json:"sinceDays,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

var (
	QueryTypeProviderCandidates = models.QueryTypeProviderCandidates
	QueryTypeProviderDetails    = models.QueryTypeProviderDetails
	QueryTypeProviderRatings    = models.QueryTypeProviderRatings
	QueryTypeRatingHistory      = models.QueryTypeRatingHistory
	QueryTypeSearchLog          = models.QueryTypeSearchLog
)
