package normalize

import (
	"math"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// signal maps a numeric field onto severity 1..5 through four ascending cut
// points: a magnitude at or above cuts[i] reaches severity i+2.
type signal struct {
	field string
	cuts  [4]float64
}

func (s signal) level(v float64) int {
	v = math.Abs(v)
	sev := 1
	for _, c := range s.cuts {
		if v >= c {
			sev++
		}
	}
	return sev
}

// severitySignals lists, per category, the fields that can establish severity
// when none is declared.
var severitySignals = map[core.Category][]signal{
	core.CategoryPandemic: {
		{"r0", [4]float64{1.0, 1.5, 2.5, 3.5}},
		{"mortality_rate", [4]float64{0.001, 0.005, 0.01, 0.03}},
		{"cases", [4]float64{1e3, 1e5, 1e6, 1e7}},
		{"countries_affected", [4]float64{2, 10, 30, 80}},
	},
	core.CategoryTerrorism: {
		{"casualties", [4]float64{1, 10, 100, 1000}},
	},
	core.CategoryNaturalDisaster: {
		{"magnitude", [4]float64{5.0, 6.0, 7.0, 8.0}},
		{"casualties", [4]float64{10, 100, 1000, 10000}},
		{"economic_damage_bn", [4]float64{0.1, 1, 10, 100}},
	},
	core.CategoryEconomicCrisis: {
		{"market_drop_pct", [4]float64{5, 10, 20, 35}},
		{"gdp_impact_pct", [4]float64{0.5, 1, 3, 6}},
		{"bank_failures", [4]float64{1, 3, 10, 30}},
		{"systemic_risk_score", [4]float64{0.2, 0.4, 0.6, 0.8}},
	},
	core.CategoryGeopolitical: {
		{"escalation_level", [4]float64{2, 3, 4, 5}},
		{"countries_involved", [4]float64{2, 3, 5, 10}},
		{"oil_price_change_pct", [4]float64{5, 10, 25, 50}},
	},
	core.CategoryCyber: {
		{"systems_affected", [4]float64{100, 1e4, 1e5, 1e6}},
		{"downtime_hours", [4]float64{1, 12, 48, 168}},
		{"financial_loss_bn", [4]float64{0.01, 0.1, 1, 10}},
	},
	core.CategoryClimate: {
		{"temperature_anomaly_c", [4]float64{0.5, 1, 1.5, 2.5}},
		{"economic_damage_bn", [4]float64{0.1, 1, 10, 100}},
		{"affected_population_m", [4]float64{0.1, 1, 10, 100}},
	},
	core.CategoryPolycrisis: {
		{"concurrent_crises", [4]float64{2, 3, 4, 5}},
		{"gdp_impact_pct", [4]float64{0.5, 1, 3, 6}},
	},
	core.CategoryRecession: {
		{"gdp_contraction_pct", [4]float64{0.5, 1.5, 3, 6}},
		{"unemployment_rise_pct", [4]float64{0.5, 1.5, 3, 5}},
		{"duration_quarters", [4]float64{1, 2, 4, 6}},
	},
	core.CategoryInflation: {
		{"cpi_yoy_pct", [4]float64{3, 5, 8, 12}},
		{"surprise_pct", [4]float64{0.1, 0.3, 0.6, 1.0}},
	},
	core.CategoryRateDecision: {
		{"rate_change_bps", [4]float64{10, 25, 50, 100}},
		{"surprise_bps", [4]float64{5, 10, 25, 50}},
	},
	core.CategoryGeneric: {
		{"casualties", [4]float64{10, 100, 1000, 10000}},
		{"economic_damage_bn", [4]float64{0.1, 1, 10, 100}},
		{"market_drop_pct", [4]float64{5, 10, 20, 35}},
	},
}

// inferSeverity returns the severity of the strongest present signal and the
// field that produced it. ok is false when no signal field is present.
func inferSeverity(c core.Category, data core.Fields) (sev int, field string, ok bool) {
	for _, s := range severitySignals[c] {
		v, present := data.Float(s.field)
		if !present {
			continue
		}
		if l := s.level(v); !ok || l > sev {
			sev, field, ok = l, s.field, true
		}
	}
	return sev, field, ok
}

// defaultDurationDays is the typical length of the disruption per category.
var defaultDurationDays = map[core.Category]int{
	core.CategoryPandemic:        365,
	core.CategoryTerrorism:       7,
	core.CategoryNaturalDisaster: 60,
	core.CategoryEconomicCrisis:  540,
	core.CategoryGeopolitical:    180,
	core.CategoryCyber:           14,
	core.CategoryClimate:         365,
	core.CategoryPolycrisis:      720,
	core.CategoryRecession:       450,
	core.CategoryInflation:       365,
	core.CategoryRateDecision:    30,
	core.CategoryGeneric:         90,
}
