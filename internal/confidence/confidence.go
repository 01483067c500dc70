// Package confidence scores how much an analysis can be trusted.
package confidence

import (
	"math"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// Term weights and adjustments.
const (
	WeightDataQuality = 0.4
	WeightSimilarity  = 0.3
	WeightAgreement   = 0.3

	// DegradationCost is subtracted from the data quality term per note.
	DegradationCost = 0.05

	// SimilarityFloor stands in for the similarity term without comparables.
	SimilarityFloor = 0.2
)

// Assess combines data quality, the best comparable similarity and model
// agreement, then discounts by the combined penalties.
func Assess(f core.AgentFinding, agreement float64, penalties ...float64) core.ConfidenceMetrics {
	quality := f.DataQuality
	if quality == "" {
		quality = core.DataQualityMedium
	}
	dq := clamp01(quality.Score() - DegradationCost*float64(len(f.Degradations)))

	hs := SimilarityFloor
	if len(f.HistoricalComparisons) > 0 {
		hs = math.Max(SimilarityFloor, clamp01(f.BestSimilarity()))
	}

	ma := clamp01(agreement)
	penalty := CombinePenalties(penalties...)
	raw := WeightDataQuality*dq + WeightSimilarity*hs + WeightAgreement*ma

	return core.ConfidenceMetrics{
		DataQuality:          round4(dq),
		HistoricalSimilarity: round4(hs),
		ModelAgreement:       round4(ma),
		Penalty:              round4(penalty),
		Score:                round4(clamp01(raw * (1 - penalty))),
	}
}

// CombinePenalties returns 1 - Π(1 - p), with each p clamped to [0,1].
func CombinePenalties(penalties ...float64) float64 {
	keep := 1.0
	for _, p := range penalties {
		keep *= 1 - clamp01(p)
	}
	return 1 - keep
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }
