package normalize

import (
	"sort"
	"strings"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// aliases maps canonical keys (see canonicalKey) to categories.
var aliases = map[string]core.Category{
	"pandemic":         core.CategoryPandemic,
	"epidemic":         core.CategoryPandemic,
	"outbreak":         core.CategoryPandemic,
	"covid":            core.CategoryPandemic,
	"covid_19":         core.CategoryPandemic,
	"coronavirus":      core.CategoryPandemic,
	"influenza":        core.CategoryPandemic,
	"flu":              core.CategoryPandemic,
	"sars":             core.CategoryPandemic,
	"ebola":            core.CategoryPandemic,
	"virus":            core.CategoryPandemic,
	"disease_outbreak": core.CategoryPandemic,

	"terrorism":        core.CategoryTerrorism,
	"terror":           core.CategoryTerrorism,
	"terrorist":        core.CategoryTerrorism,
	"terrorist_attack": core.CategoryTerrorism,
	"terror_attack":    core.CategoryTerrorism,
	"bombing":          core.CategoryTerrorism,
	"attack":           core.CategoryTerrorism,
	"mass_shooting":    core.CategoryTerrorism,
	"hostage":          core.CategoryTerrorism,

	"natural_disaster": core.CategoryNaturalDisaster,
	"disaster":         core.CategoryNaturalDisaster,
	"earthquake":       core.CategoryNaturalDisaster,
	"quake":            core.CategoryNaturalDisaster,
	"tsunami":          core.CategoryNaturalDisaster,
	"hurricane":        core.CategoryNaturalDisaster,
	"typhoon":          core.CategoryNaturalDisaster,
	"cyclone":          core.CategoryNaturalDisaster,
	"tornado":          core.CategoryNaturalDisaster,
	"flood":            core.CategoryNaturalDisaster,
	"volcano":          core.CategoryNaturalDisaster,
	"eruption":         core.CategoryNaturalDisaster,
	"landslide":        core.CategoryNaturalDisaster,

	"economic_crisis":   core.CategoryEconomicCrisis,
	"financial_crisis":  core.CategoryEconomicCrisis,
	"banking_crisis":    core.CategoryEconomicCrisis,
	"bank_run":          core.CategoryEconomicCrisis,
	"bank_failure":      core.CategoryEconomicCrisis,
	"market_crash":      core.CategoryEconomicCrisis,
	"crash":             core.CategoryEconomicCrisis,
	"debt_crisis":       core.CategoryEconomicCrisis,
	"sovereign_default": core.CategoryEconomicCrisis,
	"credit_crunch":     core.CategoryEconomicCrisis,
	"currency_crisis":   core.CategoryEconomicCrisis,
	"liquidity_crisis":  core.CategoryEconomicCrisis,

	"geopolitical":      core.CategoryGeopolitical,
	"geopolitics":       core.CategoryGeopolitical,
	"war":               core.CategoryGeopolitical,
	"invasion":          core.CategoryGeopolitical,
	"military_conflict": core.CategoryGeopolitical,
	"armed_conflict":    core.CategoryGeopolitical,
	"conflict":          core.CategoryGeopolitical,
	"coup":              core.CategoryGeopolitical,
	"sanctions":         core.CategoryGeopolitical,
	"trade_war":         core.CategoryGeopolitical,
	"embargo":           core.CategoryGeopolitical,
	"blockade":          core.CategoryGeopolitical,

	"cyber":         core.CategoryCyber,
	"cyberattack":   core.CategoryCyber,
	"cyber_attack":  core.CategoryCyber,
	"cybersecurity": core.CategoryCyber,
	"ransomware":    core.CategoryCyber,
	"malware":       core.CategoryCyber,
	"data_breach":   core.CategoryCyber,
	"breach":        core.CategoryCyber,
	"hack":          core.CategoryCyber,
	"ddos":          core.CategoryCyber,
	"it_outage":     core.CategoryCyber,

	"climate":         core.CategoryClimate,
	"climate_change":  core.CategoryClimate,
	"climate_event":   core.CategoryClimate,
	"extreme_weather": core.CategoryClimate,
	"heatwave":        core.CategoryClimate,
	"heat_wave":       core.CategoryClimate,
	"drought":         core.CategoryClimate,
	"wildfire":        core.CategoryClimate,
	"sea_level_rise":  core.CategoryClimate,

	"polycrisis":       core.CategoryPolycrisis,
	"compound_crisis":  core.CategoryPolycrisis,
	"multiple_crises":  core.CategoryPolycrisis,
	"systemic_crisis":  core.CategoryPolycrisis,
	"cascading_crisis": core.CategoryPolycrisis,

	"recession":       core.CategoryRecession,
	"depression":      core.CategoryRecession,
	"downturn":        core.CategoryRecession,
	"contraction":     core.CategoryRecession,
	"gdp_contraction": core.CategoryRecession,
	"slowdown":        core.CategoryRecession,

	"inflation":       core.CategoryInflation,
	"hyperinflation":  core.CategoryInflation,
	"stagflation":     core.CategoryInflation,
	"cpi":             core.CategoryInflation,
	"cpi_surprise":    core.CategoryInflation,
	"price_shock":     core.CategoryInflation,
	"inflation_shock": core.CategoryInflation,

	"rate_decision":   core.CategoryRateDecision,
	"interest_rate":   core.CategoryRateDecision,
	"rate_hike":       core.CategoryRateDecision,
	"rate_cut":        core.CategoryRateDecision,
	"rate_change":     core.CategoryRateDecision,
	"monetary_policy": core.CategoryRateDecision,
	"fomc":            core.CategoryRateDecision,
	"fed_decision":    core.CategoryRateDecision,
	"central_bank":    core.CategoryRateDecision,
	"tightening":      core.CategoryRateDecision,
}

// exactOnly aliases name a category only on their own. As a token they are too
// ambiguous: "plane_crash" is not a market crash and "heart_attack" is not
// terrorism.
var exactOnly = map[string]bool{
	"attack": true,
	"breach": true,
	"crash":  true,
	"virus":  true,
}

// aliasKeys returns every alias, sorted, for fuzzy matching.
func aliasKeys() []string {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// canonicalKey lowercases s and folds spaces, dashes, dots and slashes into
// single underscores: "Natural Disaster" and "natural-disaster" both become
// "natural_disaster".
func canonicalKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '-', '_', '.', '/', '\t':
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
