package service_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/shockcast/internal/config"
	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
	"github.com/hugo-lorenzo-mato/shockcast/internal/service"
	"github.com/hugo-lorenzo-mato/shockcast/internal/testutil"
)

func newAnalyzer(t *testing.T, deps service.Deps, mutate ...func(*config.Config)) *service.Analyzer {
	t.Helper()
	cfg := config.Defaults()
	for _, m := range mutate {
		m(cfg)
	}
	a, err := service.NewAnalyzer(cfg, deps)
	require.NoError(t, err)
	return a
}

func request(in core.EventInput) service.AnalyzeRequest {
	return service.AnalyzeRequest{
		EventType:   in.EventType,
		Data:        in.Data,
		Scope:       in.Scope,
		DataQuality: in.DataQuality,
	}
}

func TestAnalyze_PandemicScenario(t *testing.T) {
	a := newAnalyzer(t, service.Deps{})

	res, err := a.Analyze(context.Background(), request(testutil.NewTestInput()))
	require.NoError(t, err)

	assert.Equal(t, core.CategoryPandemic, res.Normalized.Category)
	assert.Contains(t, []int{4, 5}, res.Finding.SeverityAssessment)
	assert.Less(t, res.Risk.PredictedMarketImpactPct, 0.0)
	assert.Equal(t, core.RiskCritical, res.Risk.OverallRiskLevel)
	assert.True(t, res.Risk.ImmediateActionsRequired)
	assert.NotEmpty(t, res.Risk.KeyRisks)
	assert.NotEmpty(t, res.ID)
	assert.Nil(t, res.Consensus)

	require.NotEmpty(t, res.Forecast.Points)
	assert.Equal(t, res.Immunity.AdjustedImpactPct, res.Forecast.Points[0].PredictedImpactPct)
	assert.Equal(t, res.Forecast.FullRecoveryDay, res.Risk.EstimatedRecoveryDays)
	assert.Equal(t, core.ImmunitySourceNone, res.Immunity.Context.Source)
}

func TestAnalyze_ImmunityOnResubmission(t *testing.T) {
	a := newAnalyzer(t, service.Deps{})
	ctx := context.Background()

	first, err := a.Analyze(ctx, request(testutil.NewTestInput()))
	require.NoError(t, err)

	req := request(testutil.NewTestInput())
	n := 2
	req.Options.PriorSimilarEventCount = &n
	second, err := a.Analyze(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, core.ImmunitySourceCaller, second.Immunity.Context.Source)
	assert.Equal(t, 2, second.Immunity.Context.PriorSimilarEventCount)
	assert.Less(t, math.Abs(second.Risk.PredictedMarketImpactPct), math.Abs(first.Risk.PredictedMarketImpactPct))
	assert.Less(t, second.Risk.PredictedMarketImpactPct, 0.0)
}

func TestAnalyze_GenericFallbackHasLowerConfidence(t *testing.T) {
	a := newAnalyzer(t, service.Deps{})
	ctx := context.Background()

	known, err := a.Analyze(ctx, service.AnalyzeRequest{
		EventType:   "terrorism",
		Scope:       "national",
		DataQuality: "high",
		Data:        core.Fields{"severity": 3, "casualties": 50, "target_type": "transport"},
	})
	require.NoError(t, err)

	unknown, err := a.Analyze(ctx, service.AnalyzeRequest{
		EventType:   "zorblax incursion",
		Scope:       "national",
		DataQuality: "high",
		Data:        core.Fields{"severity": 3},
	})
	require.NoError(t, err)

	assert.Equal(t, core.CategoryGeneric, unknown.Normalized.Category)
	assert.NotEmpty(t, unknown.Risk.OverallRiskLevel)
	assert.NotEmpty(t, unknown.Forecast.Points)
	assert.Less(t, unknown.Risk.Confidence, known.Risk.Confidence)
}

func TestAnalyze_LocalDisasterStaysModerate(t *testing.T) {
	a := newAnalyzer(t, service.Deps{})

	res, err := a.Analyze(context.Background(), request(testutil.LocalDisasterInput()))
	require.NoError(t, err)

	assert.Equal(t, core.CategoryNaturalDisaster, res.Normalized.Category)
	assert.LessOrEqual(t, res.Risk.OverallRiskLevel.Rank(), core.RiskModerate.Rank())
}

func TestAnalyze_ValidationErrors(t *testing.T) {
	pub := testutil.NewRecordingPublisher()
	metrics := service.NewMetricsCollector()
	a := newAnalyzer(t, service.Deps{Publisher: pub, Metrics: metrics})

	tests := []service.AnalyzeRequest{
		{EventType: ""},
		{EventType: "pandemic", Scope: "galactic"},
		{EventType: "pandemic", DataQuality: "excellent"},
	}
	for _, req := range tests {
		res, err := a.Analyze(context.Background(), req)
		require.Error(t, err)
		assert.Nil(t, res)
		assert.True(t, core.IsValidation(err))
	}

	assert.Len(t, pub.Priority(), 3)
	assert.Equal(t, 3, metrics.GetTotals().Failed)
}

func TestAnalyze_MissingOptionalFieldsDegrade(t *testing.T) {
	a := newAnalyzer(t, service.Deps{})

	res, err := a.Analyze(context.Background(), service.AnalyzeRequest{EventType: "pandemic"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Finding.Degradations)
	assert.NotEqual(t, core.DataQualityHigh, res.Finding.DataQuality)
	assert.GreaterOrEqual(t, res.Risk.Confidence, 0.0)
	assert.LessOrEqual(t, res.Risk.Confidence, 1.0)
}

func TestAnalyze_NonFiniteDataIsDropped(t *testing.T) {
	a := newAnalyzer(t, service.Deps{})
	data := core.Fields{"r0": math.Inf(1), "mortality_rate": 0.01}

	res, err := a.Analyze(context.Background(), service.AnalyzeRequest{
		EventType:   "pandemic",
		Scope:       "global",
		DataQuality: "high",
		Data:        data,
	})
	require.NoError(t, err)

	assert.False(t, res.Input.Data.Has("r0"))
	assert.True(t, res.Input.Data.Has("mortality_rate"))
	assert.True(t, data.Has("r0"), "caller data must not be modified")
	assert.Contains(t, res.Normalized.Degradations, "event_data.r0 is not a finite number, ignored")

	_, err = json.Marshal(res)
	assert.NoError(t, err)
}

func TestAnalyze_ConfidenceAndAgreementInRange(t *testing.T) {
	a := newAnalyzer(t, service.Deps{})
	inputs := []service.AnalyzeRequest{
		{EventType: "cyber attack", Scope: "global", DataQuality: "low"},
		{EventType: "bank run", Scope: "national", Data: core.Fields{"systemic_risk_score": 0.9, "contagion_risk": 0.8}},
		{EventType: "rate hike", Scope: "national", DataQuality: "high", Data: core.Fields{"rate_change_bps": 75}},
		{EventType: "heatwave", Scope: "regional"},
		{EventType: "mystery", Scope: "local", DataQuality: "low"},
	}
	for _, req := range inputs {
		res, err := a.Analyze(context.Background(), req)
		require.NoError(t, err, req.EventType)
		assert.GreaterOrEqual(t, res.Risk.Confidence, 0.0, req.EventType)
		assert.LessOrEqual(t, res.Risk.Confidence, 1.0, req.EventType)
		assert.GreaterOrEqual(t, res.Ensemble.ModelAgreement, 0.0, req.EventType)
		assert.LessOrEqual(t, res.Ensemble.ModelAgreement, 1.0, req.EventType)
		assert.LessOrEqual(t, res.Risk.PredictedMarketImpactPct, 0.0, req.EventType)
	}
}

func TestAnalyze_Consensus(t *testing.T) {
	pub := testutil.NewRecordingPublisher()
	a := newAnalyzer(t, service.Deps{Publisher: pub})

	req := request(testutil.NewTestInput())
	on := true
	req.Options.Consensus = &on
	res, err := a.Analyze(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, res.Consensus)
	assert.True(t, res.Consensus.Applied)
	assert.Equal(t, core.ConsensusSynthesized, res.Consensus.State)
	assert.Equal(t, res.Consensus.ImpactPct, res.Immunity.BaseImpactPct)
	assert.Equal(t, res.Consensus.Severity, res.Risk.SeverityScore)
	assert.Less(t, res.Risk.PredictedMarketImpactPct, 0.0)
	assert.NotEmpty(t, pub.OfType(events.TypeConsensusSynthesized))
}

func TestAnalyze_ConsensusFromConfig(t *testing.T) {
	a := newAnalyzer(t, service.Deps{}, func(c *config.Config) {
		c.Consensus.Enabled = true
		c.Consensus.Roles = []string{"economic", "strategy"}
	})

	res, err := a.Analyze(context.Background(), request(testutil.NewTestInput()))
	require.NoError(t, err)
	require.NotNil(t, res.Consensus)
	assert.Len(t, res.Consensus.Opinions, 3)

	off := false
	req := request(testutil.NewTestInput())
	req.Options.Consensus = &off
	res, err = a.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, res.Consensus)
}

func TestAnalyze_History(t *testing.T) {
	store := testutil.NewMockHistoryStore()
	a := newAnalyzer(t, service.Deps{History: store})
	ctx := context.Background()

	first, err := a.Analyze(ctx, request(testutil.NewTestInput()))
	require.NoError(t, err)
	assert.Equal(t, core.ImmunitySourceNone, first.Immunity.Context.Source)

	second, err := a.Analyze(ctx, request(testutil.NewTestInput()))
	require.NoError(t, err)
	assert.Equal(t, core.ImmunitySourceHistory, second.Immunity.Context.Source)
	assert.Equal(t, 1, second.Immunity.Context.PriorSimilarEventCount)

	recs := store.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, first.ID, recs[0].ID)
	assert.Equal(t, core.CategoryPandemic, recs[0].Category)
	assert.Equal(t, first.Risk.OverallRiskLevel, recs[0].RiskLevel)
}

func TestAnalyze_HistoryFailuresDegrade(t *testing.T) {
	store := testutil.NewMockHistoryStore().
		WithRecordError(testutil.ErrTest).
		WithCountError(testutil.ErrTest)
	metrics := service.NewMetricsCollector()
	a := newAnalyzer(t, service.Deps{History: store, Metrics: metrics})

	res, err := a.Analyze(context.Background(), request(testutil.NewTestInput()))
	require.NoError(t, err)
	assert.Equal(t, core.ImmunitySourceNone, res.Immunity.Context.Source)
	assert.Equal(t, 1, metrics.GetTotals().HistoryErrors)
}

func TestAnalyze_PublishesLifecycle(t *testing.T) {
	pub := testutil.NewRecordingPublisher()
	metrics := service.NewMetricsCollector()
	a := newAnalyzer(t, service.Deps{Publisher: pub, Metrics: metrics})

	res, err := a.Analyze(context.Background(), request(testutil.NewTestInput()))
	require.NoError(t, err)

	all := pub.Events()
	require.NotEmpty(t, all)
	assert.Equal(t, events.TypeAnalysisStarted, all[0].EventType())
	assert.Equal(t, events.TypeAnalysisCompleted, all[len(all)-1].EventType())
	assert.Len(t, pub.OfType(events.TypeStageCompleted), len(core.Stages)-1)
	for _, e := range all {
		assert.Equal(t, res.ID, e.AnalysisID())
	}

	totals := metrics.GetTotals()
	assert.Equal(t, 1, totals.Analyses)
	_, ok := metrics.GetStageMetrics(core.StageConsensus)
	assert.False(t, ok, "consensus did not run")
}

func TestNewAnalyzer_InvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Ensemble.Models = []string{"crystal_ball"}

	_, err := service.NewAnalyzer(cfg, service.Deps{})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestNewAnalyzer_NilConfigUsesDefaults(t *testing.T) {
	a, err := service.NewAnalyzer(nil, service.Deps{})
	require.NoError(t, err)
	assert.NotEmpty(t, a.Reference().Events())
}
