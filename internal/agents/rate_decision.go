package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

var forwardGuidance = map[string]float64{
	"hawkish": 1.0,
	"neutral": 0.5,
	"dovish":  0.2,
}

var rateDecisionProfile = profile{
	name:     "rate_decision_agent",
	category: core.CategoryRateDecision,
	signals: []signalSpec{
		{"rate_change_bps", 0.40, ramp("rate_change_bps", 0, 100)},
		{"surprise_bps", 0.40, ramp("surprise_bps", 0, 50)},
		{"forward_guidance", 0.20, lookup("forward_guidance", forwardGuidance, 0.5)},
	},
	required: []string{"rate_change_bps"},
	sectors: []sectorRange{
		{"technology", -1, -20},
		{"real_estate", -1, -18},
		{"utilities", -1, -12},
		{"government_bonds", -1, -10},
		{"banks", 0.5, 6},
	},
	risks: []riskRule{
		{"policy surprise volatility", atLeast("surprise_bps", 25)},
		{"tighter financial conditions", textIs("forward_guidance", "hawkish")},
		{"easing signals growth concerns", below("rate_change_bps", 0)},
	},
}
