// internal/workers/analytics/detect-quality-alerts/models.go
package detectqualityalerts

import (
	"directory-workers/internal/notify"
	"directory-workers/internal/quality"
)

// Input overrides the configured thresholds per run. OwnerID restricts the
// scan to one owner's providers.
type Input struct {
	OwnerID         string   `json:"ownerId,omitempty"`
	MinSampleSize   *int     `json:"minSampleSize,omitempty"`
	MeanThreshold   *float64 `json:"meanThreshold,omitempty"`
	StdDevThreshold *float64 `json:"stddevThreshold,omitempty"`
}

type Output struct {
	Alerts             []quality.QualityAlert `json:"alerts"`
	Count              int                    `json:"count"`
	ProvidersEvaluated int                    `json:"providersEvaluated"`
	Thresholds         quality.Thresholds     `json:"thresholds"`
	Notification       *notify.Result         `json:"notification,omitempty"`
}
