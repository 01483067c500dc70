package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

var inflationProfile = profile{
	name:     "inflation_agent",
	category: core.CategoryInflation,
	signals: []signalSpec{
		{"cpi_yoy_pct", 0.40, ramp("cpi_yoy_pct", 2, 12)},
		{"surprise_pct", 0.30, ramp("surprise_pct", 0, 1)},
		{"core_cpi_yoy_pct", 0.15, ramp("core_cpi_yoy_pct", 2, 10)},
		{"wage_growth_pct", 0.15, ramp("wage_growth_pct", 2, 8)},
	},
	required: []string{"cpi_yoy_pct"},
	sectors: []sectorRange{
		{"technology", -2, -30},
		{"real_estate", -2, -22},
		{"consumer_discretionary", -2, -20},
		{"government_bonds", -1, -18},
		{"energy", 1, 15},
		{"commodities", 1, 18},
	},
	risks: []riskRule{
		{"repricing of rate expectations", atLeast("surprise_pct", 0.3)},
		{"wage-price spiral", atLeast("wage_growth_pct", 5)},
		{"real income squeeze", atLeast("cpi_yoy_pct", 8)},
	},
}
