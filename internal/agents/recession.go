package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

var recessionProfile = profile{
	name:     "recession_agent",
	category: core.CategoryRecession,
	signals: []signalSpec{
		{"gdp_contraction_pct", 0.35, ramp("gdp_contraction_pct", 0, 6)},
		{"unemployment_rise_pct", 0.30, ramp("unemployment_rise_pct", 0, 5)},
		{"duration_quarters", 0.20, ramp("duration_quarters", 1, 8)},
		{"yield_curve_inverted", 0.15, flag("yield_curve_inverted", 1, 0.4)},
	},
	required: []string{"gdp_contraction_pct"},
	sectors: []sectorRange{
		{"consumer_discretionary", -3, -35},
		{"industrials", -3, -30},
		{"financials", -3, -30},
		{"consumer_staples", -1, -8},
		{"utilities", 0, -5},
		{"government_bonds", 1, 12},
	},
	risks: []riskRule{
		{"labor market deterioration", atLeast("unemployment_rise_pct", 3)},
		{"prolonged earnings recession", atLeast("duration_quarters", 4)},
		{"credit defaults rising", severityAtLeast(4)},
	},
}
