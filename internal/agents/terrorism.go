package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

var terrorismTargets = map[string]float64{
	"financial":      1.0,
	"infrastructure": 0.8,
	"energy":         0.8,
	"government":     0.6,
	"transport":      0.6,
	"civilian":       0.4,
}

var terrorismProfile = profile{
	name:     "terrorism_agent",
	category: core.CategoryTerrorism,
	signals: []signalSpec{
		{"casualties", 0.5, logRamp("casualties", 1, 1000)},
		{"target_type", 0.3, lookup("target_type", terrorismTargets, 0.3)},
		{"coordinated", 0.2, flag("coordinated", 1, 0.4)},
	},
	required: []string{"casualties", "target_type"},
	sectors: []sectorRange{
		{"airlines", -2, -20},
		{"insurance", -2, -15},
		{"hospitality", -1, -12},
		{"financials", -1, -8},
		{"defense", 1, 12},
		{"security_services", 1, 10},
	},
	risks: []riskRule{
		{"financial infrastructure targeted", textIs("target_type", "financial")},
		{"risk of follow-on attacks", isTrue("coordinated")},
		{"prolonged consumer confidence shock", atLeast("casualties", 100)},
	},
}
