package ensemble

import (
	"math"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// Regression weights. The intercept keeps even a minimal event above zero.
const (
	regIntercept = 0.15
	regSeverity  = 0.55
	regScope     = 0.30
	regQuality   = 0.05
)

// RegressionModel is a static weighted-feature estimate that reports how much
// each feature contributed.
type RegressionModel struct{}

func NewRegressionModel() *RegressionModel { return &RegressionModel{} }

func (m *RegressionModel) Name() string { return core.ModelRegression }

// Predict never abstains.
func (m *RegressionModel) Predict(ev core.NormalizedEvent, f core.AgentFinding) (core.PredictionOutput, bool) {
	severity := severityOf(ev, f)
	base := row(ev.Category)[4]
	dq := qualityOf(ev, f).Score()

	terms := map[string]float64{
		"intercept":    regIntercept,
		"severity":     regSeverity * float64(severity-1) / 4,
		"scope":        regScope * float64(ev.Scope.Index()) / 3,
		"data_quality": regQuality * (1 - dq),
	}
	var total float64
	for _, v := range terms {
		total += v
	}
	importance := make(map[string]float64, len(terms))
	for k, v := range terms {
		importance[k] = round4(v / total)
	}

	mag := base * total
	width := (0.2 + 0.3*(1-dq)) * mag
	return core.PredictionOutput{
		ModelName:          core.ModelRegression,
		PredictedImpactPct: round2(-mag),
		Interval: core.ConfidenceInterval{
			Lower: round2(-(mag + width)),
			Upper: round2(-math.Max(0, mag-width)),
			Level: 0.8,
		},
		Confidence:        0.35 + 0.25*dq,
		Details:           map[string]float64{"category_base": base},
		FeatureImportance: importance,
	}, true
}
