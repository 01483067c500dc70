package ensemble

import (
	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// ruleTable is the broad-index impact magnitude (%) of a global event at
// severity 1..5, per category.
var ruleTable = map[core.Category][5]float64{
	core.CategoryPandemic:        {2, 5, 10, 20, 35},
	core.CategoryTerrorism:       {0.5, 1.5, 3, 6, 12},
	core.CategoryNaturalDisaster: {1, 3, 6, 12, 20},
	core.CategoryEconomicCrisis:  {3, 8, 15, 30, 50},
	core.CategoryGeopolitical:    {1, 3, 7, 14, 25},
	core.CategoryCyber:           {0.5, 1.5, 3, 6, 12},
	core.CategoryClimate:         {1, 2.5, 5, 10, 18},
	core.CategoryPolycrisis:      {3, 8, 15, 28, 45},
	core.CategoryRecession:       {2, 5, 10, 20, 35},
	core.CategoryInflation:       {0.5, 1.5, 3, 6, 10},
	core.CategoryRateDecision:    {0.3, 1, 2, 4, 8},
	core.CategoryGeneric:         {1, 3, 6, 12, 20},
}

// row returns the table for c, or the generic row.
func row(c core.Category) [5]float64 {
	if r, ok := ruleTable[c]; ok {
		return r
	}
	return ruleTable[core.CategoryGeneric]
}

// RuleModel is the static severity lookup. It is the fastest model and the
// fallback when everything else abstains.
type RuleModel struct {
	table map[core.Category][5]float64
}

// NewRuleModel creates a RuleModel over the built-in table.
func NewRuleModel() *RuleModel {
	return &RuleModel{table: ruleTable}
}

func (m *RuleModel) Name() string { return core.ModelRule }

// Predict abstains when the category has no table row.
func (m *RuleModel) Predict(ev core.NormalizedEvent, f core.AgentFinding) (core.PredictionOutput, bool) {
	r, ok := m.table[ev.Category]
	if !ok {
		return core.PredictionOutput{}, false
	}
	return rulePrediction(r, severityOf(ev, f), ev.Scope), true
}

func rulePrediction(r [5]float64, severity int, scope core.Scope) core.PredictionOutput {
	mag := r[severity-1] * scope.Factor()
	return core.PredictionOutput{
		ModelName:          core.ModelRule,
		PredictedImpactPct: round2(-mag),
		Interval: core.ConfidenceInterval{
			Lower: round2(-mag * 1.3),
			Upper: round2(-mag * 0.7),
			Level: 0.8,
		},
		Confidence: 0.5,
		Details: map[string]float64{
			"severity":     float64(severity),
			"scope_factor": scope.Factor(),
		},
	}
}
