package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

var naturalDisasterProfile = profile{
	name:     "natural_disaster_agent",
	category: core.CategoryNaturalDisaster,
	signals: []signalSpec{
		{"magnitude", 0.35, ramp("magnitude", 5, 9)},
		{"casualties", 0.25, logRamp("casualties", 10, 10000)},
		{"economic_damage_bn", 0.25, logRamp("economic_damage_bn", 0.1, 200)},
		{"infrastructure_damage", 0.15, damage("infrastructure_damage")},
	},
	required: []string{"economic_damage_bn"},
	sectors: []sectorRange{
		{"insurance", -3, -30},
		{"manufacturing", -1, -18},
		{"utilities", -1, -15},
		{"real_estate", -1, -12},
		{"transport", -1, -10},
		{"construction", 1, 15},
	},
	risks: []riskRule{
		{"industrial supply chain disruption", isTrue("industrial_facilities")},
		{"nuclear facility exposure", isTrue("nuclear_facility_affected")},
		{"aftershock risk", atLeast("magnitude", 7.5)},
		{"critical infrastructure damage", damageAtLeast("infrastructure_damage", 0.5)},
	},
	adjust: capLocalWithoutIndustry,
}

// capLocalWithoutIndustry keeps a local disaster with no industrial exposure
// at severity 2 or below: it rarely moves broad markets.
func capLocalWithoutIndustry(ev core.NormalizedEvent, data core.Fields, severity int) (int, string) {
	if ev.Scope != core.ScopeLocal || severity <= 2 {
		return severity, ""
	}
	if industrial, ok := data.Bool("industrial_facilities"); ok && industrial {
		return severity, ""
	}
	return 2, "natural_disaster_agent: local event without industrial exposure, severity capped at 2"
}
