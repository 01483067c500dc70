// Package agents contains one specialized analyst per event category. Each
// agent turns a normalized event and its raw record into a finding: a severity
// assessment, sector impacts, structural risks and historical comparables.
package agents

import (
	"fmt"
	"math"
	"sort"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/reference"
)

// Agent analyzes events of a single category.
type Agent interface {
	Name() string
	Category() core.Category
	Analyze(ev core.NormalizedEvent, data core.Fields) core.AgentFinding
}

// Params bounds the historical comparison search. SectorScale multiplies
// every sector sensitivity; zero means 1.
type Params struct {
	MinSimilarity  float64
	MaxComparisons int
	SectorScale    float64
}

// DefaultParams returns the built-in settings.
func DefaultParams() Params {
	return Params{MinSimilarity: 0.4, MaxComparisons: 8, SectorScale: 1}
}

// signalSpec contributes score (in [0,1]) with weight when the field is present.
type signalSpec struct {
	field  string
	weight float64
	score  func(core.Fields) (float64, bool)
}

// sectorRange is the signed % impact on a sector at severity 1 (lo) and 5 (hi).
type sectorRange struct {
	sector string
	lo, hi float64
}

// riskRule adds a structural risk when its predicate holds.
type riskRule struct {
	risk string
	when func(ev core.NormalizedEvent, data core.Fields) bool
}

// adjustment may override the assessed severity, returning a note when it does.
type adjustment func(ev core.NormalizedEvent, data core.Fields, severity int) (int, string)

// profile is everything that distinguishes one category's analyst.
type profile struct {
	name     string
	category core.Category
	signals  []signalSpec
	required []string
	sectors  []sectorRange
	risks    []riskRule
	adjust   adjustment
}

// profileAgent is the Agent implementation shared by every category.
type profileAgent struct {
	p      profile
	ref    core.ReferenceSource
	params Params
}

func newProfileAgent(p profile, ref core.ReferenceSource, params Params) *profileAgent {
	return &profileAgent{p: p, ref: ref, params: params}
}

func (a *profileAgent) Name() string            { return a.p.name }
func (a *profileAgent) Category() core.Category { return a.p.category }

// Analyze never fails: missing inputs lower data quality and add notes.
func (a *profileAgent) Analyze(ev core.NormalizedEvent, data core.Fields) core.AgentFinding {
	degradations := append([]string(nil), ev.Degradations...)
	quality := ev.DataQuality

	var missing []string
	for _, f := range a.p.required {
		if !data.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		quality = quality.Lower()
		for _, f := range missing {
			degradations = append(degradations, fmt.Sprintf("%s: required field %s missing", a.p.name, f))
		}
	}

	severity := a.assessSeverity(ev, data)
	if a.p.adjust != nil {
		if adjusted, note := a.p.adjust(ev, data, severity); note != "" {
			severity = adjusted
			degradations = append(degradations, note)
		}
	}
	severity = core.ClampSeverity(severity)

	return core.AgentFinding{
		Agent:              a.p.name,
		Category:           a.p.category,
		SeverityAssessment: severity,
		SectoralImpact:     sectorImpacts(a.p.sectors, severity, ev.Scope, a.params.SectorScale),
		HistoricalComparisons: reference.Nearest(a.ref.Events(),
			reference.Query{Category: a.p.category, Severity: severity, Scope: ev.Scope},
			a.params.MaxComparisons, a.params.MinSimilarity),
		StructuralRisks: a.structuralRisks(ev, data),
		DataQuality:     quality,
		Degradations:    degradations,
	}
}

// assessSeverity maps the weighted mean of the present signal scores onto
// 1..5 and blends it 50/50 with a declared severity. Without any signal the
// normalizer's severity stands.
func (a *profileAgent) assessSeverity(ev core.NormalizedEvent, data core.Fields) int {
	var sum, weights float64
	for _, s := range a.p.signals {
		v, ok := s.score(data)
		if !ok {
			continue
		}
		sum += s.weight * clamp01(v)
		weights += s.weight
	}
	if weights == 0 {
		return ev.Severity
	}

	fromSignals := 1 + int(math.Round(4*sum/weights))
	if !ev.SeverityInferred {
		return int(math.Round(0.5*float64(fromSignals) + 0.5*float64(ev.Severity)))
	}
	return fromSignals
}

func (a *profileAgent) structuralRisks(ev core.NormalizedEvent, data core.Fields) []string {
	var out []string
	for _, r := range a.p.risks {
		if r.when(ev, data) {
			out = append(out, r.risk)
		}
	}
	return out
}

// sectorImpacts interpolates each sector between its severity-1 and severity-5
// values and scales by how far the scope reaches into broad markets.
func sectorImpacts(sectors []sectorRange, severity int, scope core.Scope, scale float64) map[string]float64 {
	if scale <= 0 {
		scale = 1
	}
	out := make(map[string]float64, len(sectors))
	t := float64(core.ClampSeverity(severity)-1) / 4
	for _, s := range sectors {
		v := (s.lo + (s.hi-s.lo)*t) * scope.Factor() * scale
		out[s.sector] = math.Round(v*100) / 100
	}
	return out
}

// Registry dispatches categories to agents, falling back to the generic agent.
type Registry struct {
	agents   map[core.Category]Agent
	fallback Agent
}

// NewRegistry creates one agent per known category plus the generic fallback.
func NewRegistry(ref core.ReferenceSource, params Params) *Registry {
	r := &Registry{
		agents:   make(map[core.Category]Agent),
		fallback: newProfileAgent(genericProfile, ref, params),
	}
	for _, p := range profiles() {
		r.agents[p.category] = newProfileAgent(p, ref, params)
	}
	return r
}

// For returns the agent for c, or the generic agent.
func (r *Registry) For(c core.Category) Agent {
	if a, ok := r.agents[c]; ok {
		return a
	}
	return r.fallback
}

// Register replaces the agent for its category.
func (r *Registry) Register(a Agent) {
	if a.Category() == core.CategoryGeneric {
		r.fallback = a
		return
	}
	r.agents[a.Category()] = a
}

// Categories lists the categories with a dedicated agent, sorted.
func (r *Registry) Categories() []core.Category {
	out := make([]core.Category, 0, len(r.agents))
	for c := range r.agents {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func profiles() []profile {
	return []profile{
		pandemicProfile,
		terrorismProfile,
		naturalDisasterProfile,
		economicCrisisProfile,
		geopoliticalProfile,
		cyberProfile,
		climateProfile,
		polycrisisProfile,
		recessionProfile,
		inflationProfile,
		rateDecisionProfile,
	}
}
