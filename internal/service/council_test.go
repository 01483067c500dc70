package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
	"github.com/hugo-lorenzo-mato/shockcast/internal/testutil"
)

type stubRole struct {
	name   string
	op     core.RoleOpinion
	err    error
	delay  time.Duration
	panics bool
}

func (s stubRole) Name() string { return s.name }

func (s stubRole) Opine(ctx context.Context, _ RoleInput) (core.RoleOpinion, error) {
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return core.RoleOpinion{}, ctx.Err()
		}
	}
	return s.op, s.err
}

type refiningRole struct {
	stubRole
	refined float64
	delay   time.Duration
}

func (r refiningRole) Refine(ctx context.Context, own core.RoleOpinion, _ []core.RoleOpinion) (core.RoleOpinion, error) {
	if r.delay > 0 {
		<-ctx.Done()
		return own, ctx.Err()
	}
	own.ImpactPct = r.refined
	return own, nil
}

func pandemicRoleInput() RoleInput {
	return RoleInput{
		Event: core.NormalizedEvent{
			EventType:             "pandemic",
			Category:              core.CategoryPandemic,
			Severity:              4,
			EstimatedDurationDays: 400,
			Scope:                 core.ScopeGlobal,
			DataQuality:           core.DataQualityHigh,
		},
		Finding: core.AgentFinding{
			Agent:              "pandemic_agent",
			Category:           core.CategoryPandemic,
			SeverityAssessment: 4,
			SectoralImpact:     map[string]float64{"airlines": -48, "hospitality": -30, "healthcare": 10},
			HistoricalComparisons: []core.HistoricalComparison{
				{Name: "COVID-19", Category: core.CategoryPandemic, Severity: 5, Scope: core.ScopeGlobal, MarketImpactPct: -34, Similarity: 0.925},
			},
			StructuralRisks: []string{"healthcare system overload"},
			DataQuality:     core.DataQualityHigh,
		},
		Ensemble: core.EnsemblePrediction{
			PredictedImpactPct: -30,
			ModelAgreement:     0.8,
			Models: []core.PredictionOutput{
				{ModelName: core.ModelRule, PredictedImpactPct: -28, Confidence: 0.5},
				{ModelName: core.ModelHistorical, PredictedImpactPct: -34, Confidence: 0.76},
			},
		},
	}
}

func testCouncilOptions() CouncilOptions {
	opts := DefaultCouncilOptions()
	opts.RoleTimeout = 50 * time.Millisecond
	return opts
}

func TestCouncil_BuiltinRoles(t *testing.T) {
	c, err := NewCouncil(DefaultCouncilOptions())
	require.NoError(t, err)

	out := c.Deliberate(context.Background(), "a-1", pandemicRoleInput())

	assert.Equal(t, core.ConsensusSynthesized, out.State)
	assert.True(t, out.Applied)
	assert.Empty(t, out.Abstained)
	assert.Zero(t, out.Penalty)
	require.Len(t, out.Opinions, len(core.Roles)+1)
	assert.Equal(t, core.RoleSynthesis, out.Opinions[len(out.Opinions)-1].Role)
	assert.Contains(t, []int{4, 5}, out.Severity)
	assert.Less(t, out.ImpactPct, 0.0)
	assert.GreaterOrEqual(t, out.AgreementScore, 0.0)
	assert.LessOrEqual(t, out.AgreementScore, 1.0)
}

func TestNewCouncil_UnknownRole(t *testing.T) {
	opts := DefaultCouncilOptions()
	opts.Roles = []string{"economic", "oracle"}

	_, err := NewCouncil(opts)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestCouncil_TimeoutAbstains(t *testing.T) {
	opts := testCouncilOptions()
	c := NewCouncilWithRoles(opts,
		stubRole{name: "fast", op: core.RoleOpinion{Severity: 3, ImpactPct: -10, Confidence: 0.5}},
		stubRole{name: "slow", op: core.RoleOpinion{Severity: 5, ImpactPct: -50, Confidence: 0.9}, delay: time.Second},
	)

	start := time.Now()
	out := c.Deliberate(context.Background(), "a-1", pandemicRoleInput())

	assert.Less(t, time.Since(start), 500*time.Millisecond, "a slow role must not block the analysis")
	assert.True(t, out.Applied)
	assert.Equal(t, []string{"slow"}, out.Abstained)
	assert.InDelta(t, opts.AbstentionPenalty/2, out.Penalty, 1e-9)
	assert.InDelta(t, -10, out.ImpactPct, 1e-9)
	assert.Equal(t, 3, out.Severity)
}

func TestCouncil_ErrorsAndPanicsAbstain(t *testing.T) {
	c := NewCouncilWithRoles(testCouncilOptions(),
		stubRole{name: "ok", op: core.RoleOpinion{Severity: 4, ImpactPct: -20, Confidence: 0.6}},
		stubRole{name: "failing", err: errors.New("no data")},
		stubRole{name: "panicking", panics: true},
	)

	out := c.Deliberate(context.Background(), "a-1", pandemicRoleInput())

	assert.ElementsMatch(t, []string{"failing", "panicking"}, out.Abstained)
	assert.InDelta(t, 0.2*2/3, out.Penalty, 1e-4)
	assert.InDelta(t, -20, out.ImpactPct, 1e-9)
}

func TestCouncil_AllAbstain(t *testing.T) {
	opts := testCouncilOptions()
	c := NewCouncilWithRoles(opts,
		stubRole{name: "a", err: errors.New("down")},
		stubRole{name: "b", delay: time.Second},
	)
	in := pandemicRoleInput()

	out := c.Deliberate(context.Background(), "a-1", in)

	assert.Equal(t, core.ConsensusSynthesized, out.State)
	assert.False(t, out.Applied)
	assert.Equal(t, opts.AbstentionPenalty, out.Penalty)
	assert.Equal(t, in.Ensemble.PredictedImpactPct, out.ImpactPct)
	assert.Equal(t, in.Finding.SeverityAssessment, out.Severity)
	assert.Empty(t, out.Opinions)
}

func TestCouncil_RefinesTowardPeers(t *testing.T) {
	c := NewCouncilWithRoles(testCouncilOptions(),
		stubRole{name: "low", op: core.RoleOpinion{Severity: 2, ImpactPct: -10, Confidence: 0.5}},
		stubRole{name: "high", op: core.RoleOpinion{Severity: 4, ImpactPct: -30, Confidence: 0.5}},
	)

	out := c.Deliberate(context.Background(), "a-1", pandemicRoleInput())

	require.Len(t, out.Opinions, 3)
	// low moves halfway to -30, then high moves halfway to the revised -20.
	assert.InDelta(t, -20, out.Opinions[0].ImpactPct, 1e-9)
	assert.InDelta(t, 3, out.Opinions[0].Severity, 1e-9)
	assert.InDelta(t, -25, out.Opinions[1].ImpactPct, 1e-9)
	assert.InDelta(t, 3.5, out.Opinions[1].Severity, 1e-9)
	assert.True(t, out.Opinions[0].Revised)
	assert.True(t, out.Opinions[1].Revised)
	assert.InDelta(t, -22.5, out.ImpactPct, 1e-9)
	assert.Equal(t, 3, out.Severity)
}

func TestCouncil_CustomRefiner(t *testing.T) {
	c := NewCouncilWithRoles(testCouncilOptions(),
		refiningRole{stubRole: stubRole{name: "custom", op: core.RoleOpinion{Severity: 3, ImpactPct: -10, Confidence: 1}}, refined: -12},
		refiningRole{stubRole: stubRole{name: "stuck", op: core.RoleOpinion{Severity: 3, ImpactPct: -14, Confidence: 1}}, delay: time.Second},
	)

	out := c.Deliberate(context.Background(), "a-1", pandemicRoleInput())

	require.Len(t, out.Opinions, 3)
	assert.Equal(t, -12.0, out.Opinions[0].ImpactPct)
	assert.True(t, out.Opinions[0].Revised)
	assert.Equal(t, -14.0, out.Opinions[1].ImpactPct, "a timed-out refinement keeps the opinion")
	assert.False(t, out.Opinions[1].Revised)
	assert.Empty(t, out.Abstained)
}

func TestCouncil_PublishesTransitions(t *testing.T) {
	pub := testutil.NewRecordingPublisher()
	opts := testCouncilOptions()
	opts.Publisher = pub
	metrics := NewMetricsCollector()
	opts.Metrics = metrics
	c := NewCouncilWithRoles(opts,
		stubRole{name: "one", op: core.RoleOpinion{Severity: 3, ImpactPct: -5, Confidence: 0.5, KeyRisks: []string{"energy"}}},
		stubRole{name: "two", op: core.RoleOpinion{Severity: 3, ImpactPct: -5, Confidence: 0.5, KeyRisks: []string{"retail"}}},
		stubRole{name: "three", err: errors.New("down")},
	)

	c.Deliberate(context.Background(), "a-1", pandemicRoleInput())

	var states []string
	for _, e := range pub.OfType(events.TypeConsensusState) {
		states = append(states, e.(events.ConsensusStateEvent).To)
	}
	assert.Equal(t, []string{"dispatched", "collecting", "refining", "synthesized"}, states)

	synth := pub.OfType(events.TypeConsensusSynthesized)
	require.Len(t, synth, 1)
	se := synth[0].(events.ConsensusSynthesizedEvent)
	assert.Equal(t, []string{"three"}, se.Abstained)
	require.Len(t, se.Divergences, 1)
	assert.Equal(t, "one", se.Divergences[0].Role1)

	opinions := pub.OfType(events.TypeRoleOpinion)
	// two opinions, one abstention, one synthesis; identical opinions are not revised
	assert.Len(t, opinions, 4)
	assert.Equal(t, 1, metrics.GetRoleMetrics()["three"].Abstentions)
}

func TestBuiltinRoles(t *testing.T) {
	in := pandemicRoleInput()

	for _, name := range core.Roles {
		r, ok := BuiltinRole(name)
		require.True(t, ok, name)
		op, err := r.Opine(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, name, op.Role)
		assert.Less(t, op.ImpactPct, 0.0, name)
		assert.GreaterOrEqual(t, op.Severity, 1.0)
		assert.LessOrEqual(t, op.Severity, 5.0)
		assert.GreaterOrEqual(t, op.Confidence, 0.0)
		assert.LessOrEqual(t, op.Confidence, 1.0)
	}

	_, ok := BuiltinRole(core.RoleSynthesis)
	assert.False(t, ok, "synthesis is not a dispatchable role")
}

func TestBuiltinRoles_Specifics(t *testing.T) {
	in := pandemicRoleInput()

	op := dataAnalysisOpinion(in)
	assert.Equal(t, -34.0, op.ImpactPct)
	assert.Equal(t, 0.925, op.Confidence)
	assert.Equal(t, []string{"airlines", "hospitality", "healthcare"}, op.KeyRisks)

	op = forecastingOpinion(in)
	assert.InDelta(t, -33, op.ImpactPct, 1e-9)
	assert.Contains(t, op.KeyRisks, "prolonged drawdown")

	op = behavioralOpinion(in)
	assert.InDelta(t, -34.5, op.ImpactPct, 1e-9)
	assert.Equal(t, 4.5, op.Severity)
	assert.Contains(t, op.KeyRisks, "panic selling")
	assert.Contains(t, op.KeyRisks, "flight to quality")

	op = economicOpinion(in)
	assert.InDelta(t, -29, op.ImpactPct, 1e-9)
	assert.Contains(t, op.KeyRisks, "healthcare system overload")

	op = strategyOpinion(in)
	assert.Equal(t, []string{"airlines", "hospitality", "healthcare", "healthcare system overload"}, op.KeyRisks)
}

func TestBuiltinRole_CancelledContext(t *testing.T) {
	r, _ := BuiltinRole(core.RoleStrategy)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Opine(ctx, pandemicRoleInput())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
}

func TestTopSectors(t *testing.T) {
	sectors := map[string]float64{"a": -5, "b": 10, "c": -10, "d": 1}
	assert.Equal(t, []string{"b", "c"}, topSectors(sectors, 2))
	assert.Len(t, topSectors(sectors, 10), 4)
}
