package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

// genericProfile backs the fallback agent for unrecognized event types. It
// has no required fields, so it never lowers data quality on its own.
var genericProfile = profile{
	name:     "generic_agent",
	category: core.CategoryGeneric,
	signals: []signalSpec{
		{"economic_damage_bn", 0.35, logRamp("economic_damage_bn", 0.1, 200)},
		{"market_drop_pct", 0.35, ramp("market_drop_pct", 2, 40)},
		{"casualties", 0.30, logRamp("casualties", 10, 10000)},
	},
	sectors: []sectorRange{
		{"broad_market", -1, -20},
		{"insurance", -1, -15},
		{"safe_havens", 1, 10},
	},
	risks: []riskRule{
		{"novel event with no close historical analogue", func(core.NormalizedEvent, core.Fields) bool { return true }},
	},
}
