package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

var geopoliticalProfile = profile{
	name:     "geopolitical_agent",
	category: core.CategoryGeopolitical,
	signals: []signalSpec{
		{"escalation_level", 0.35, ramp("escalation_level", 1, 5)},
		{"oil_price_change_pct", 0.25, ramp("oil_price_change_pct", 0, 60)},
		{"countries_involved", 0.15, ramp("countries_involved", 1, 10)},
		{"nuclear_power_involved", 0.15, flag("nuclear_power_involved", 1, 0)},
		{"sanctions", 0.10, flag("sanctions", 1, 0.3)},
	},
	required: []string{"escalation_level"},
	sectors: []sectorRange{
		{"energy", 2, 30},
		{"defense", 2, 25},
		{"agriculture", 1, 20},
		{"airlines", -2, -25},
		{"emerging_markets", -2, -30},
		{"consumer_discretionary", -1, -15},
	},
	risks: []riskRule{
		{"military escalation", atLeast("escalation_level", 4)},
		{"energy price shock", atLeast("oil_price_change_pct", 20)},
		{"sanctions and trade restrictions", isTrue("sanctions")},
		{"nuclear escalation tail risk", isTrue("nuclear_power_involved")},
	},
}
