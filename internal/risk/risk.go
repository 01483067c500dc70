// Package risk turns severity, impact and confidence into the externally
// visible risk summary.
package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// Thresholds on |impact| in percent.
const (
	CriticalImpactPct = 25
	HighImpactPct     = 10
	ModerateImpactPct = 3

	// LowConfidence raises a low result to moderate.
	LowConfidence = 0.4

	maxSectorRisks = 3
)

// Input carries everything the summary is built from.
type Input struct {
	Severity        int
	ImpactPct       float64
	Confidence      float64
	RecoveryDays    int
	Sectors         map[string]float64
	StructuralRisks []string
}

// Level maps severity and impact onto a risk level. An uncertain low result
// is reported as moderate.
func Level(severity int, impactPct, confidence float64) core.RiskLevel {
	mag := math.Abs(impactPct)
	var level core.RiskLevel
	switch {
	case severity >= 4 || mag >= CriticalImpactPct:
		level = core.RiskCritical
	case severity == 3 || mag >= HighImpactPct:
		level = core.RiskHigh
	case severity == 2 || mag >= ModerateImpactPct:
		level = core.RiskModerate
	default:
		level = core.RiskLow
	}
	if level == core.RiskLow && confidence < LowConfidence {
		level = core.RiskModerate
	}
	return level
}

// Summarize builds the RiskSummary.
func Summarize(in Input) core.RiskSummary {
	level := Level(in.Severity, in.ImpactPct, in.Confidence)
	return core.RiskSummary{
		OverallRiskLevel:         level,
		SeverityScore:            core.ClampSeverity(in.Severity),
		PredictedMarketImpactPct: in.ImpactPct,
		EstimatedRecoveryDays:    in.RecoveryDays,
		KeyRisks:                 KeyRisks(in.Sectors, in.StructuralRisks),
		RecommendedActions:       Actions(level, in.Confidence, in.Sectors, in.StructuralRisks),
		ImmediateActionsRequired: level == core.RiskHigh || level == core.RiskCritical,
		Confidence:               in.Confidence,
	}
}

type sectorImpact struct {
	name string
	pct  float64
}

// rankSectors orders sectors by |impact| descending, then by name.
func rankSectors(sectors map[string]float64) []sectorImpact {
	out := make([]sectorImpact, 0, len(sectors))
	for name, pct := range sectors {
		out = append(out, sectorImpact{name, pct})
	}
	sort.Slice(out, func(i, j int) bool {
		mi, mj := math.Abs(out[i].pct), math.Abs(out[j].pct)
		if mi != mj {
			return mi > mj
		}
		return out[i].name < out[j].name
	})
	return out
}

// KeyRisks lists the three most affected sectors followed by the structural
// risks, without duplicates.
func KeyRisks(sectors map[string]float64, structural []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for i, s := range rankSectors(sectors) {
		if i == maxSectorRisks {
			break
		}
		out = append(out, fmt.Sprintf("%s: %+.1f%%", s.name, s.pct))
	}
	for _, r := range structural {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// actionsByLevel are the baseline recommendations per level.
var actionsByLevel = map[core.RiskLevel][]string{
	core.RiskCritical: {
		"activate crisis hedges on the most exposed sectors",
		"review liquidity and margin buffers",
		"reduce gross exposure until volatility subsides",
	},
	core.RiskHigh: {
		"hedge exposure to the most affected sectors",
		"rebalance toward defensive assets",
	},
	core.RiskModerate: {
		"monitor exposed sectors and tighten stop levels",
	},
	core.RiskLow: {
		"monitor, no portfolio action required",
	},
}

// structuralActions adds a recommendation when a structural risk mentions the keyword.
var structuralActions = []struct {
	keyword string
	action  string
}{
	{"contagion", "stress-test counterparty and credit exposure"},
	{"supply chain", "review holdings dependent on disrupted supply chains"},
	{"energy", "hedge energy price exposure"},
	{"infrastructure", "review infrastructure and utility holdings"},
	{"sanctions", "audit exposure to sanctioned jurisdictions"},
	{"credit", "review credit spreads and refinancing needs"},
}

// Actions derives recommendations from the level, the confidence, the sector
// winners and the structural risks.
func Actions(level core.RiskLevel, confidence float64, sectors map[string]float64, structural []string) []string {
	out := append([]string(nil), actionsByLevel[level]...)
	seen := map[string]bool{}
	for _, a := range out {
		seen[a] = true
	}
	add := func(a string) {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}

	for _, r := range structural {
		lr := strings.ToLower(r)
		for _, sa := range structuralActions {
			if strings.Contains(lr, sa.keyword) {
				add(sa.action)
			}
		}
	}

	for _, s := range rankSectors(sectors) {
		if s.pct >= 5 {
			add(fmt.Sprintf("consider relative-value exposure to %s", s.name))
			break
		}
	}

	if confidence < LowConfidence {
		add("treat the estimate as indicative until better data is available")
	}
	return out
}
