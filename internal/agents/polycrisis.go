package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

var polycrisisProfile = profile{
	name:     "polycrisis_agent",
	category: core.CategoryPolycrisis,
	signals: []signalSpec{
		{"concurrent_crises", 0.40, ramp("concurrent_crises", 1, 5)},
		{"gdp_impact_pct", 0.25, ramp("gdp_impact_pct", 0.5, 8)},
		{"interconnection", 0.20, unit("interconnection")},
		{"policy_capacity", 0.15, inverse("policy_capacity")},
	},
	required: []string{"concurrent_crises"},
	sectors: []sectorRange{
		{"emerging_markets", -4, -50},
		{"equities", -4, -45},
		{"financials", -4, -40},
		{"credit", -2, -25},
		{"energy", -2, -25},
		{"gold", 2, 25},
	},
	risks: []riskRule{
		{"correlated drawdowns across asset classes", func(core.NormalizedEvent, core.Fields) bool { return true }},
		{"cascading failures across systems", atLeast("interconnection", 0.6)},
		{"limited policy response capacity", below("policy_capacity", 0.4)},
	},
}
