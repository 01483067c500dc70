package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

var pandemicProfile = profile{
	name:     "pandemic_agent",
	category: core.CategoryPandemic,
	signals: []signalSpec{
		{"r0", 0.35, ramp("r0", 1, 3)},
		{"mortality_rate", 0.30, ramp("mortality_rate", 0, 0.02)},
		{"vaccine_available", 0.15, firstOf(flag("vaccine_available", 0.3, 1), flag("vaccine_availability", 0.3, 1))},
		{"containment_effectiveness", 0.10, inverse("containment_effectiveness")},
		{"healthcare_capacity", 0.10, inverse("healthcare_capacity")},
	},
	required: []string{"r0", "mortality_rate"},
	sectors: []sectorRange{
		{"airlines", -5, -60},
		{"hospitality", -4, -50},
		{"energy", -2, -35},
		{"retail", -2, -25},
		{"healthcare", 1, 15},
		{"pharmaceuticals", 2, 25},
		{"technology", 0.5, 8},
	},
	risks: []riskRule{
		{"sustained community transmission", atLeast("r0", 2.5)},
		{"no vaccine available", noVaccine},
		{"healthcare system overload", below("healthcare_capacity", 0.3)},
		{"global supply chain disruption", scopeAtLeast(core.ScopeGlobal)},
	},
}

func noVaccine(ev core.NormalizedEvent, d core.Fields) bool {
	if d.Has("vaccine_available") {
		return isFalse("vaccine_available")(ev, d)
	}
	return isFalse("vaccine_availability")(ev, d)
}
