package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

var cyberProfile = profile{
	name:     "cyber_agent",
	category: core.CategoryCyber,
	signals: []signalSpec{
		{"systems_affected", 0.30, logRamp("systems_affected", 100, 1e6)},
		{"downtime_hours", 0.25, logRamp("downtime_hours", 1, 336)},
		{"financial_loss_bn", 0.25, logRamp("financial_loss_bn", 0.01, 20)},
		{"critical_infrastructure", 0.20, flag("critical_infrastructure", 1, 0.3)},
	},
	required: []string{"systems_affected"},
	sectors: []sectorRange{
		{"technology", -1, -12},
		{"financials", -1, -10},
		{"utilities", -0.5, -10},
		{"insurance", -1, -8},
		{"retail", -0.5, -6},
		{"cybersecurity", 1, 15},
	},
	risks: []riskRule{
		{"critical infrastructure compromise", isTrue("critical_infrastructure")},
		{"data exfiltration and regulatory fines", isTrue("data_exfiltrated")},
		{"extended operational outage", atLeast("downtime_hours", 48)},
	},
}
