package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/normalize"
	"github.com/hugo-lorenzo-mato/shockcast/internal/reference"
)

func newRegistry() *Registry {
	return NewRegistry(reference.NewStaticStore(reference.Builtin()), DefaultParams())
}

func analyze(t *testing.T, in core.EventInput) core.AgentFinding {
	t.Helper()
	ev, err := normalize.New(normalize.DefaultOptions()).Normalize(in)
	require.NoError(t, err)
	return newRegistry().For(ev.Category).Analyze(ev, in.Data)
}

func TestRegistry_Dispatch(t *testing.T) {
	r := newRegistry()
	for _, c := range core.KnownCategories() {
		a := r.For(c)
		assert.Equal(t, c, a.Category(), "agent for %s", c)
		assert.NotEmpty(t, a.Name())
	}
	assert.Equal(t, core.CategoryGeneric, r.For(core.CategoryGeneric).Category())
	assert.Equal(t, core.CategoryGeneric, r.For("meteor").Category())
	assert.Len(t, r.Categories(), len(core.KnownCategories()))
}

type stubAgent struct{ c core.Category }

func (s stubAgent) Name() string            { return "stub" }
func (s stubAgent) Category() core.Category { return s.c }
func (s stubAgent) Analyze(ev core.NormalizedEvent, _ core.Fields) core.AgentFinding {
	return core.AgentFinding{Agent: "stub", Category: s.c, SeverityAssessment: ev.Severity}
}

func TestRegistry_Register(t *testing.T) {
	r := newRegistry()
	r.Register(stubAgent{core.CategoryCyber})
	r.Register(stubAgent{core.CategoryGeneric})

	assert.Equal(t, "stub", r.For(core.CategoryCyber).Name())
	assert.Equal(t, "stub", r.For("unknown").Name())
	assert.Equal(t, "pandemic_agent", r.For(core.CategoryPandemic).Name())
}

func TestPandemic_HighR0NoVaccine(t *testing.T) {
	f := analyze(t, core.EventInput{
		EventType:   "pandemic",
		Scope:       "global",
		DataQuality: "high",
		Data:        core.Fields{"r0": 3.0, "mortality_rate": 0.01, "vaccine_available": false},
	})

	assert.GreaterOrEqual(t, f.SeverityAssessment, 4)
	assert.Equal(t, core.DataQualityHigh, f.DataQuality)
	assert.Empty(t, f.Degradations)
	assert.Contains(t, f.StructuralRisks, "sustained community transmission")
	assert.Contains(t, f.StructuralRisks, "no vaccine available")
	assert.Less(t, f.SectoralImpact["airlines"], -40.0)
	assert.Greater(t, f.SectoralImpact["pharmaceuticals"], 0.0)

	require.NotEmpty(t, f.HistoricalComparisons)
	assert.Equal(t, core.CategoryPandemic, f.HistoricalComparisons[0].Category)
	assert.GreaterOrEqual(t, f.BestSimilarity(), 0.9)
}

func TestAgent_MissingRequiredFieldLowersQuality(t *testing.T) {
	f := analyze(t, core.EventInput{
		EventType:   "pandemic",
		Scope:       "national",
		DataQuality: "high",
		Data:        core.Fields{"r0": 2.0},
	})

	assert.Equal(t, core.DataQualityMedium, f.DataQuality)
	require.Len(t, f.Degradations, 1)
	assert.Contains(t, f.Degradations[0], "mortality_rate")
}

func TestAgent_CarriesNormalizerDegradations(t *testing.T) {
	f := analyze(t, core.EventInput{EventType: "cyber", Data: core.Fields{"systems_affected": 5000}})

	assert.Equal(t, core.DataQualityMedium, f.DataQuality)
	assert.Contains(t, f.Degradations, "geographic_scope missing, assumed national")
}

func TestAgent_DeclaredSeverityBlends(t *testing.T) {
	// Signals alone say 5; the declared 1 pulls the assessment to 3.
	f := analyze(t, core.EventInput{
		EventType:   "terrorism",
		Scope:       "national",
		DataQuality: "high",
		Data:        core.Fields{"severity": 1, "casualties": 5000, "target_type": "financial", "coordinated": true},
	})
	assert.Equal(t, 3, f.SeverityAssessment)
}

func TestNaturalDisaster_LocalCap(t *testing.T) {
	data := core.Fields{"magnitude": 7.8, "casualties": 2000, "economic_damage_bn": 40}

	local := analyze(t, core.EventInput{EventType: "earthquake", Scope: "local", DataQuality: "high", Data: data})
	assert.LessOrEqual(t, local.SeverityAssessment, 2)
	assert.NotEmpty(t, local.Degradations)

	withIndustry := data.Clone()
	withIndustry["industrial_facilities"] = true
	industrial := analyze(t, core.EventInput{EventType: "earthquake", Scope: "local", DataQuality: "high", Data: withIndustry})
	assert.Greater(t, industrial.SeverityAssessment, 2)
	assert.Contains(t, industrial.StructuralRisks, "industrial supply chain disruption")

	national := analyze(t, core.EventInput{EventType: "earthquake", Scope: "national", DataQuality: "high", Data: data})
	assert.Greater(t, national.SeverityAssessment, 2)
}

func TestGenericAgent(t *testing.T) {
	f := analyze(t, core.EventInput{EventType: "asteroid impact", Scope: "global", DataQuality: "high"})

	assert.Equal(t, "generic_agent", f.Agent)
	assert.Equal(t, 3, f.SeverityAssessment)
	assert.Equal(t, core.DataQualityHigh, f.DataQuality)
	assert.NotEmpty(t, f.StructuralRisks)
	assert.Contains(t, f.SectoralImpact, "broad_market")
}

func TestSectorImpacts_ScaleWithSeverityAndScope(t *testing.T) {
	sectors := []sectorRange{{"airlines", -5, -60}}

	assert.InDelta(t, -5.0, sectorImpacts(sectors, 1, core.ScopeGlobal, 1)["airlines"], 1e-9)
	assert.InDelta(t, -60.0, sectorImpacts(sectors, 5, core.ScopeGlobal, 1)["airlines"], 1e-9)
	assert.InDelta(t, -15.0, sectorImpacts(sectors, 5, core.ScopeLocal, 1)["airlines"], 1e-9)
	assert.InDelta(t, -30.0, sectorImpacts(sectors, 5, core.ScopeGlobal, 0.5)["airlines"], 1e-9)
	assert.InDelta(t, -60.0, sectorImpacts(sectors, 5, core.ScopeGlobal, 0)["airlines"], 1e-9, "zero scale means unscaled")

	prev := 0.0
	for sev := 1; sev <= 5; sev++ {
		v := sectorImpacts(sectors, sev, core.ScopeNational, 1)["airlines"]
		assert.Less(t, v, prev)
		prev = v
	}
}

func TestScorers(t *testing.T) {
	d := core.Fields{"r0": 2.0, "cases": 1000, "capacity": 0.25, "flag": "yes", "target": "Financial"}

	v, ok := ramp("r0", 1, 3)(d)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-9)

	v, _ = logRamp("cases", 10, 100000)(d)
	assert.InDelta(t, 0.5, v, 1e-9)

	v, _ = inverse("capacity")(d)
	assert.InDelta(t, 0.75, v, 1e-9)

	v, _ = flag("flag", 1, 0.2)(d)
	assert.Equal(t, 1.0, v)

	v, _ = lookup("target", terrorismTargets, 0.3)(d)
	assert.Equal(t, 1.0, v)

	_, ok = ramp("missing", 0, 1)(d)
	assert.False(t, ok)
}

func TestProfiles_WellFormed(t *testing.T) {
	for _, p := range append(profiles(), genericProfile) {
		t.Run(string(p.category), func(t *testing.T) {
			assert.NotEmpty(t, p.signals)
			assert.NotEmpty(t, p.sectors)
			total := 0.0
			for _, s := range p.signals {
				total += s.weight
			}
			assert.InDelta(t, 1.0, total, 1e-9, "signal weights")
			for _, s := range p.sectors {
				assert.Equal(t, s.lo > 0, s.hi > 0, "sector %s changes sign", s.sector)
			}
		})
	}
}
