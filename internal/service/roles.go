package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// RoleInput is the immutable view every consensus role reads.
type RoleInput struct {
	Event    core.NormalizedEvent
	Finding  core.AgentFinding
	Ensemble core.EnsemblePrediction
}

// Role is one analytical perspective in the consensus layer.
type Role interface {
	Name() string
	Opine(ctx context.Context, in RoleInput) (core.RoleOpinion, error)
}

// Refiner is implemented by roles that revise their own opinion after seeing
// their peers. Roles without it move toward the peers' median.
type Refiner interface {
	Refine(ctx context.Context, own core.RoleOpinion, peers []core.RoleOpinion) (core.RoleOpinion, error)
}

type builtinRole struct {
	name  string
	opine func(RoleInput) core.RoleOpinion
}

func (r builtinRole) Name() string { return r.name }

func (r builtinRole) Opine(ctx context.Context, in RoleInput) (core.RoleOpinion, error) {
	if err := ctx.Err(); err != nil {
		return core.RoleOpinion{}, err
	}
	op := r.opine(in)
	op.Role = r.name
	op.Severity = math.Max(1, math.Min(5, op.Severity))
	op.Confidence = math.Max(0, math.Min(1, op.Confidence))
	return op, nil
}

// BuiltinRole returns the deterministic implementation of a configurable role.
func BuiltinRole(name string) (Role, bool) {
	switch name {
	case core.RoleDataAnalysis:
		return builtinRole{name, dataAnalysisOpinion}, true
	case core.RoleForecasting:
		return builtinRole{name, forecastingOpinion}, true
	case core.RoleBehavioral:
		return builtinRole{name, behavioralOpinion}, true
	case core.RoleEconomic:
		return builtinRole{name, economicOpinion}, true
	case core.RoleStrategy:
		return builtinRole{name, strategyOpinion}, true
	}
	return nil, false
}

// dataAnalysisOpinion trusts the comparables most.
func dataAnalysisOpinion(in RoleInput) core.RoleOpinion {
	impact := in.Ensemble.PredictedImpactPct
	if m, ok := modelOutput(in.Ensemble, core.ModelHistorical); ok {
		impact = m.PredictedImpactPct
	}
	best := in.Finding.BestSimilarity()
	return core.RoleOpinion{
		Severity:   float64(in.Finding.SeverityAssessment),
		ImpactPct:  impact,
		Confidence: math.Max(0.2, best),
		KeyRisks:   topSectors(in.Finding.SectoralImpact, 3),
		Rationale:  fmt.Sprintf("%d historical comparables, best similarity %.2f", len(in.Finding.HistoricalComparisons), best),
	}
}

// forecastingOpinion deepens the estimate for long disruptions.
func forecastingOpinion(in RoleInput) core.RoleOpinion {
	persistence := math.Min(1, float64(in.Event.EstimatedDurationDays)/365)
	risks := topSectors(in.Finding.SectoralImpact, 2)
	if in.Event.EstimatedDurationDays > 180 {
		risks = append(risks, "prolonged drawdown")
	}
	return core.RoleOpinion{
		Severity:   float64(in.Finding.SeverityAssessment),
		ImpactPct:  in.Ensemble.PredictedImpactPct * (0.9 + 0.2*persistence),
		Confidence: in.Ensemble.ModelAgreement,
		KeyRisks:   risks,
		Rationale:  fmt.Sprintf("expected disruption of %d days", in.Event.EstimatedDurationDays),
	}
}

// behavioralOpinion amplifies severe and global shocks for crowd reaction.
func behavioralOpinion(in RoleInput) core.RoleOpinion {
	sev := float64(in.Finding.SeverityAssessment)
	amp := 1 + 0.1*(sev-3)
	risks := topSectors(in.Finding.SectoralImpact, 1)
	if sev >= 4 {
		risks = append(risks, "panic selling")
	}
	if in.Event.Scope == core.ScopeGlobal {
		amp += 0.05
		risks = append(risks, "flight to quality")
		if sev >= 4 {
			sev += 0.5
		}
	}
	if in.Finding.DataQuality == core.DataQualityLow {
		risks = append(risks, "rumor-driven volatility")
	}
	return core.RoleOpinion{
		Severity:   sev,
		ImpactPct:  in.Ensemble.PredictedImpactPct * amp,
		Confidence: 0.5,
		KeyRisks:   risks,
		Rationale:  fmt.Sprintf("sentiment amplification %.2f", amp),
	}
}

// economicOpinion anchors on the rule estimate and the structural risks.
func economicOpinion(in RoleInput) core.RoleOpinion {
	impact := in.Ensemble.PredictedImpactPct
	if m, ok := modelOutput(in.Ensemble, core.ModelRule); ok {
		impact = 0.5*m.PredictedImpactPct + 0.5*impact
	}
	risks := append(topSectors(in.Finding.SectoralImpact, 1), in.Finding.StructuralRisks...)
	return core.RoleOpinion{
		Severity:   float64(in.Finding.SeverityAssessment),
		ImpactPct:  impact,
		Confidence: in.Finding.DataQuality.Score(),
		KeyRisks:   risks,
		Rationale:  "rule anchor blended with the ensemble",
	}
}

// strategyOpinion takes the ensemble at face value and lists what to act on.
func strategyOpinion(in RoleInput) core.RoleOpinion {
	risks := topSectors(in.Finding.SectoralImpact, 3)
	if len(in.Finding.StructuralRisks) > 0 {
		risks = append(risks, in.Finding.StructuralRisks[0])
	}
	return core.RoleOpinion{
		Severity:   float64(in.Finding.SeverityAssessment),
		ImpactPct:  in.Ensemble.PredictedImpactPct,
		Confidence: 0.6,
		KeyRisks:   risks,
		Rationale:  "ensemble estimate",
	}
}

func modelOutput(p core.EnsemblePrediction, name string) (core.PredictionOutput, bool) {
	for _, m := range p.Models {
		if m.ModelName == name {
			return m, true
		}
	}
	return core.PredictionOutput{}, false
}

// topSectors returns the names of the n most affected sectors.
func topSectors(sectors map[string]float64, n int) []string {
	names := make([]string, 0, len(sectors))
	for name := range sectors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		mi, mj := math.Abs(sectors[names[i]]), math.Abs(sectors[names[j]])
		if mi != mj {
			return mi > mj
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// refineTowardMedian moves own rate of the way toward the peers' median
// impact and severity.
func refineTowardMedian(own core.RoleOpinion, peers []core.RoleOpinion, rate float64) core.RoleOpinion {
	if len(peers) == 0 || rate <= 0 {
		return own
	}
	impacts := make([]float64, len(peers))
	severities := make([]float64, len(peers))
	for i, p := range peers {
		impacts[i] = p.ImpactPct
		severities[i] = p.Severity
	}
	own.ImpactPct += rate * (median(impacts) - own.ImpactPct)
	own.Severity += rate * (median(severities) - own.Severity)
	return own
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
