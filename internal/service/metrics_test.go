package service_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/service"
)

func TestMetricsCollector_Stages(t *testing.T) {
	collector := service.NewMetricsCollector()

	collector.RecordStage(core.StageEnsemble, 10*time.Millisecond, false)
	collector.RecordStage(core.StageEnsemble, 30*time.Millisecond, true)

	sm, ok := collector.GetStageMetrics(core.StageEnsemble)
	assert.True(t, ok, "stage metrics should exist")
	assert.Equal(t, 2, sm.Runs)
	assert.Equal(t, 1, sm.Degraded)
	assert.Equal(t, 20*time.Millisecond, sm.AvgDuration)
	assert.Equal(t, 30*time.Millisecond, sm.MaxDuration)

	_, ok = collector.GetStageMetrics(core.StageForecast)
	assert.False(t, ok, "unrecorded stage should be missing")
}

func TestMetricsCollector_Roles(t *testing.T) {
	collector := service.NewMetricsCollector()

	collector.RecordRole(core.RoleBehavioral, service.RoleRun{Duration: time.Millisecond})
	collector.RecordRole(core.RoleBehavioral, service.RoleRun{Duration: 3 * time.Millisecond, Abstained: true, TimedOut: true})
	collector.RecordRole(core.RoleEconomic, service.RoleRun{Revised: true})

	roles := collector.GetRoleMetrics()
	assert.Len(t, roles, 2)

	behavioral := roles[core.RoleBehavioral]
	assert.Equal(t, 2, behavioral.Invocations)
	assert.Equal(t, 1, behavioral.Abstentions)
	assert.Equal(t, 1, behavioral.Timeouts)
	assert.Equal(t, 2*time.Millisecond, behavioral.AvgDuration)
	assert.Equal(t, 1, roles[core.RoleEconomic].Revisions)
}

func TestMetricsCollector_Analyses(t *testing.T) {
	collector := service.NewMetricsCollector()

	collector.RecordAnalysis(service.AnalysisMetrics{
		AnalysisID: "a-1",
		Category:   "pandemic",
		RiskLevel:  "critical",
		ImpactPct:  -32,
		Duration:   4 * time.Millisecond,
		Degraded:   true,
	}, 1, true)
	collector.RecordAnalysis(service.AnalysisMetrics{AnalysisID: "a-2", RiskLevel: "low", Duration: 2 * time.Millisecond}, 0, false)
	collector.RecordFailure()
	collector.RecordHistoryError()
	collector.RecordScenarioBatch()

	totals := collector.GetTotals()
	assert.Equal(t, 2, totals.Analyses)
	assert.Equal(t, 1, totals.Failed)
	assert.Equal(t, 1, totals.Degraded)
	assert.Equal(t, 1, totals.ConsensusRuns)
	assert.Equal(t, 1, totals.ScenarioBatches)
	assert.Equal(t, 1, totals.HistoryErrors)
	assert.Equal(t, 1, totals.AbstainedModels)
	assert.Equal(t, 3*time.Millisecond, totals.AvgDuration)
	assert.Equal(t, 1, totals.RiskLevels["critical"])

	recent := collector.GetRecent()
	assert.Len(t, recent, 2)
	assert.Equal(t, "a-1", recent[0].AnalysisID)
	assert.False(t, recent[0].Timestamp.IsZero(), "timestamp should be set")
}

func TestMetricsCollector_RecentIsBounded(t *testing.T) {
	collector := service.NewMetricsCollector()

	for i := 0; i < 150; i++ {
		collector.RecordAnalysis(service.AnalysisMetrics{RiskLevel: "low"}, 0, false)
	}

	assert.Len(t, collector.GetRecent(), 100)
	assert.Equal(t, 150, collector.GetTotals().Analyses)
}

func TestMetricsCollector_CopiesAreIndependent(t *testing.T) {
	collector := service.NewMetricsCollector()
	collector.RecordAnalysis(service.AnalysisMetrics{RiskLevel: "high"}, 0, false)
	collector.RecordStage(core.StageRisk, time.Millisecond, false)

	totals := collector.GetTotals()
	totals.RiskLevels["high"] = 99
	stages := collector.GetAllStageMetrics()
	stages[core.StageRisk].Runs = 99

	assert.Equal(t, 1, collector.GetTotals().RiskLevels["high"])
	sm, _ := collector.GetStageMetrics(core.StageRisk)
	assert.Equal(t, 1, sm.Runs)
}

func TestMetricsCollector_Snapshot(t *testing.T) {
	collector := service.NewMetricsCollector()
	collector.RecordStage(core.StageNormalize, time.Millisecond, false)
	collector.RecordRole(core.RoleStrategy, service.RoleRun{})

	data, err := json.Marshal(collector.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"normalize"`)
	assert.Contains(t, string(data), `"strategy"`)
}

func TestMetricsCollector_Reset(t *testing.T) {
	collector := service.NewMetricsCollector()

	collector.RecordAnalysis(service.AnalysisMetrics{RiskLevel: "low"}, 2, true)
	collector.RecordStage(core.StageAgent, time.Millisecond, false)
	collector.RecordRole(core.RoleForecasting, service.RoleRun{})

	collector.Reset()

	assert.Equal(t, 0, collector.GetTotals().Analyses)
	assert.Empty(t, collector.GetAllStageMetrics())
	assert.Empty(t, collector.GetRoleMetrics())
	assert.Empty(t, collector.GetRecent())
}

func TestMetricsCollector_Concurrent(t *testing.T) {
	collector := service.NewMetricsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				collector.RecordStage(core.StageForecast, time.Microsecond, false)
				collector.RecordAnalysis(service.AnalysisMetrics{RiskLevel: "moderate"}, 0, false)
				_ = collector.Snapshot()
			}
		}()
	}
	wg.Wait()

	sm, _ := collector.GetStageMetrics(core.StageForecast)
	assert.Equal(t, 100, sm.Runs)
	assert.Equal(t, 100, collector.GetTotals().Analyses)
}
