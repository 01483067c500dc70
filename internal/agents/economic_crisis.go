package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

var economicCrisisProfile = profile{
	name:     "economic_crisis_agent",
	category: core.CategoryEconomicCrisis,
	signals: []signalSpec{
		{"market_drop_pct", 0.25, ramp("market_drop_pct", 5, 50)},
		{"gdp_impact_pct", 0.20, ramp("gdp_impact_pct", 0.5, 8)},
		{"systemic_risk_score", 0.15, unit("systemic_risk_score")},
		{"bank_failures", 0.15, logRamp("bank_failures", 1, 50)},
		{"contagion", 0.15, firstOf(flag("contagion", 1, 0.3), unit("contagion_risk"))},
		{"credit_spread_bps", 0.10, ramp("credit_spread_bps", 100, 800)},
	},
	required: []string{"systemic_risk_score"},
	sectors: []sectorRange{
		{"financials", -5, -55},
		{"real_estate", -4, -45},
		{"consumer_discretionary", -3, -35},
		{"industrials", -3, -30},
		{"utilities", -1, -10},
		{"precious_metals", 1, 20},
	},
	risks: []riskRule{
		{"cross-border contagion", contagion},
		{"banking system solvency", atLeast("bank_failures", 3)},
		{"credit market freeze", atLeast("credit_spread_bps", 400)},
		{"systemic financial stress", atLeast("systemic_risk_score", 0.7)},
	},
}

func contagion(ev core.NormalizedEvent, d core.Fields) bool {
	return isTrue("contagion")(ev, d) || atLeast("contagion_risk", 0.5)(ev, d)
}
