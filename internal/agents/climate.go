package agents

import "github.com/hugo-lorenzo-mato/shockcast/internal/core"

var climateProfile = profile{
	name:     "climate_agent",
	category: core.CategoryClimate,
	signals: []signalSpec{
		{"temperature_anomaly_c", 0.30, ramp("temperature_anomaly_c", 0, 3)},
		{"economic_damage_bn", 0.30, logRamp("economic_damage_bn", 0.1, 200)},
		{"affected_population_m", 0.20, logRamp("affected_population_m", 0.1, 100)},
		{"crop_loss_pct", 0.20, ramp("crop_loss_pct", 0, 50)},
	},
	required: []string{"economic_damage_bn"},
	sectors: []sectorRange{
		{"agriculture", -2, -30},
		{"insurance", -2, -25},
		{"utilities", -1, -15},
		{"real_estate", -1, -12},
		{"consumer_staples", -1, -10},
		{"renewables", 1, 12},
	},
	risks: []riskRule{
		{"stranded asset repricing", atLeast("temperature_anomaly_c", 1.5)},
		{"food price inflation", atLeast("crop_loss_pct", 20)},
		{"recurring physical risk", isTrue("recurring")},
	},
}
