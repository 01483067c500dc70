package testutil

import (
	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// NewTestInput returns the reference pandemic event: r0 3.0, mortality 1%, no
// vaccine, global, high-quality data. Use functional options to override
// specific fields.
func NewTestInput(opts ...func(*core.EventInput)) core.EventInput {
	in := core.EventInput{
		EventType:   "pandemic",
		Scope:       "global",
		DataQuality: "high",
		Data: core.Fields{
			"r0":                   3.0,
			"mortality_rate":       0.01,
			"vaccine_availability": false,
		},
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

// LocalDisasterInput is a local natural disaster with catastrophic
// infrastructure damage and no industrial facilities affected.
func LocalDisasterInput() core.EventInput {
	return core.EventInput{
		EventType:   "earthquake",
		Scope:       "local",
		DataQuality: "high",
		Data: core.Fields{
			"magnitude":             7.1,
			"infrastructure_damage": "catastrophic",
			"industrial_facilities": false,
		},
	}
}

// NewTestEvents returns a small reference dataset covering two categories.
func NewTestEvents() []core.ReferenceEvent {
	return []core.ReferenceEvent{
		{Name: "Spanish flu", Year: 1918, Category: core.CategoryPandemic, Severity: 5, Scope: core.ScopeGlobal, MarketImpactPct: -25, RecoveryDays: 700},
		{Name: "SARS", Year: 2003, Category: core.CategoryPandemic, Severity: 3, Scope: core.ScopeRegional, MarketImpactPct: -5, RecoveryDays: 60},
		{Name: "COVID-19", Year: 2020, Category: core.CategoryPandemic, Severity: 5, Scope: core.ScopeGlobal, MarketImpactPct: -34, RecoveryDays: 148},
		{Name: "Dot-com crash", Year: 2000, Category: core.CategoryEconomicCrisis, Severity: 4, Scope: core.ScopeGlobal, MarketImpactPct: -49, RecoveryDays: 2500},
	}
}
