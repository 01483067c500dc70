package ensemble

import (
	"math"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// HistoricalModel averages the realized impact of the agent's comparables,
// weighting the closest ones highest.
type HistoricalModel struct{}

func NewHistoricalModel() *HistoricalModel { return &HistoricalModel{} }

func (m *HistoricalModel) Name() string { return core.ModelHistorical }

// Predict abstains without comparables.
func (m *HistoricalModel) Predict(ev core.NormalizedEvent, f core.AgentFinding) (core.PredictionOutput, bool) {
	mags := rescaled(f.HistoricalComparisons, severityOf(ev, f), ev.Scope)
	if len(mags) == 0 {
		return core.PredictionOutput{}, false
	}

	var sum, wsum float64
	for i, x := range mags {
		w := 1 / float64(i+1)
		sum += w * x
		wsum += w
	}
	mean := sum / wsum

	var ss float64
	for i, x := range mags {
		w := 1 / float64(i+1)
		ss += w * (x - mean) * (x - mean)
	}
	sd := math.Sqrt(ss / wsum)

	return core.PredictionOutput{
		ModelName:          core.ModelHistorical,
		PredictedImpactPct: round2(-mean),
		Interval: core.ConfidenceInterval{
			Lower: round2(-(mean + 1.96*sd)),
			Upper: round2(-math.Max(0, mean-1.96*sd)),
			Level: 0.95,
		},
		Confidence: 0.3 + 0.5*f.BestSimilarity(),
		Details: map[string]float64{
			"comparisons":     float64(len(mags)),
			"best_similarity": f.BestSimilarity(),
			"weighted_sd":     round2(sd),
		},
	}, true
}

// rescaled converts each comparable's realized impact into a magnitude at the
// analyzed event's severity and scope, keeping rank order.
func rescaled(comps []core.HistoricalComparison, severity int, scope core.Scope) []float64 {
	out := make([]float64, 0, len(comps))
	for _, c := range comps {
		r := row(c.Category)
		sevRatio := r[severity-1] / r[core.ClampSeverity(c.Severity)-1]
		scopeRatio := scope.Factor() / c.Scope.Factor()
		out = append(out, math.Abs(c.MarketImpactPct)*sevRatio*scopeRatio)
	}
	return out
}
