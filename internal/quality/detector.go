package quality

import (
	"sort"

	"directory-workers/internal/analytics"
	"directory-workers/internal/models"
)

// AdvisoryMessage is attached to every alert.
const AdvisoryMessage = "Alta polarización en calificaciones - posible manipulación o inconsistencia"

// QualityAlert flags a provider whose ratings are both high on average and
// polarized.
type QualityAlert struct {
	ProviderID  int64   `json:"providerId"`
	Name        string  `json:"name"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"stddev"`
	SampleCount int     `json:"sampleCount"`
	Message     string  `json:"message"`
}

// Evaluate returns an alert for p when its ratings pass the sample gate and
// both thresholds are exceeded, nil otherwise.
func Evaluate(p models.Provider, samples []models.RatingSample, t Thresholds) *QualityAlert {
	scores := analytics.IntsToFloats(models.Scores(samples))
	d := analytics.Dispersion(scores, t.MinSampleSize)
	if !d.Valid {
		return nil
	}

	if d.Mean <= t.MeanThreshold || *d.StdDev <= t.StdDevThreshold {
		return nil
	}

	return &QualityAlert{
		ProviderID:  p.ID,
		Name:        p.Name,
		Mean:        d.Mean,
		StdDev:      *d.StdDev,
		SampleCount: d.Count,
		Message:     AdvisoryMessage,
	}
}

// EvaluateAll evaluates every provider against its samples, keyed by provider
// id. Alerts are ordered by standard deviation descending, then provider id.
func EvaluateAll(providers []models.Provider, samples map[int64][]models.RatingSample, t Thresholds) []QualityAlert {
	alerts := []QualityAlert{}
	for _, p := range providers {
		if a := Evaluate(p, samples[p.ID], t); a != nil {
			alerts = append(alerts, *a)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].StdDev != alerts[j].StdDev {
			return alerts[i].StdDev > alerts[j].StdDev
		}
		return alerts[i].ProviderID < alerts[j].ProviderID
	})
	return alerts
}

// GroupByProvider buckets samples by provider id.
func GroupByProvider(samples []models.RatingSample) map[int64][]models.RatingSample {
	out := make(map[int64][]models.RatingSample)
	for _, s := range samples {
		out[s.ProviderID] = append(out[s.ProviderID], s)
	}
	return out
}
