package service

import (
	"sync"
	"time"
)

// MetricsCollector collects in-process analysis metrics. It is safe for
// concurrent use by parallel scenario runs.
type MetricsCollector struct {
	totals AnalysisTotals
	stages map[string]*StageMetrics
	roles  map[string]*RoleMetrics
	recent []AnalysisMetrics
	limit  int
	mu     sync.RWMutex
}

// AnalysisTotals holds process-wide counters.
type AnalysisTotals struct {
	StartTime       time.Time      `json:"start_time"`
	Analyses        int            `json:"analyses"`
	Failed          int            `json:"failed"`
	Degraded        int            `json:"degraded"`
	ConsensusRuns   int            `json:"consensus_runs"`
	ScenarioBatches int            `json:"scenario_batches"`
	TotalDuration   time.Duration  `json:"total_duration"`
	AvgDuration     time.Duration  `json:"avg_duration"`
	RiskLevels      map[string]int `json:"risk_levels"`
	AbstainedModels int            `json:"abstained_models"`
	HistoryErrors   int            `json:"history_errors"`
}

// StageMetrics holds per-stage timings.
type StageMetrics struct {
	Stage         string        `json:"stage"`
	Runs          int           `json:"runs"`
	Degraded      int           `json:"degraded"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
	MaxDuration   time.Duration `json:"max_duration"`
}

// RoleMetrics holds per-role consensus metrics.
type RoleMetrics struct {
	Role          string        `json:"role"`
	Invocations   int           `json:"invocations"`
	Abstentions   int           `json:"abstentions"`
	Timeouts      int           `json:"timeouts"`
	Revisions     int           `json:"revisions"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
}

// AnalysisMetrics summarizes one finished analysis.
type AnalysisMetrics struct {
	AnalysisID string        `json:"analysis_id"`
	Category   string        `json:"category"`
	RiskLevel  string        `json:"risk_level"`
	ImpactPct  float64       `json:"impact_pct"`
	Confidence float64       `json:"confidence"`
	Duration   time.Duration `json:"duration"`
	Degraded   bool          `json:"degraded"`
	Timestamp  time.Time     `json:"timestamp"`
}

// RoleRun describes one role invocation.
type RoleRun struct {
	Duration  time.Duration
	Abstained bool
	TimedOut  bool
	Revised   bool
}

// NewMetricsCollector creates a new metrics collector that keeps the last
// 100 analyses.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		totals: AnalysisTotals{StartTime: time.Now(), RiskLevels: make(map[string]int)},
		stages: make(map[string]*StageMetrics),
		roles:  make(map[string]*RoleMetrics),
		recent: make([]AnalysisMetrics, 0),
		limit:  100,
	}
}

// RecordStage records one stage execution.
func (m *MetricsCollector) RecordStage(stage string, d time.Duration, degraded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sm, ok := m.stages[stage]
	if !ok {
		sm = &StageMetrics{Stage: stage}
		m.stages[stage] = sm
	}
	sm.Runs++
	sm.TotalDuration += d
	sm.AvgDuration = sm.TotalDuration / time.Duration(sm.Runs)
	if d > sm.MaxDuration {
		sm.MaxDuration = d
	}
	if degraded {
		sm.Degraded++
	}
}

// RecordRole records one consensus role invocation.
func (m *MetricsCollector) RecordRole(role string, run RoleRun) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rm, ok := m.roles[role]
	if !ok {
		rm = &RoleMetrics{Role: role}
		m.roles[role] = rm
	}
	rm.Invocations++
	rm.TotalDuration += run.Duration
	rm.AvgDuration = rm.TotalDuration / time.Duration(rm.Invocations)
	if run.Abstained {
		rm.Abstentions++
	}
	if run.TimedOut {
		rm.Timeouts++
	}
	if run.Revised {
		rm.Revisions++
	}
}

// RecordAnalysis records a completed analysis.
func (m *MetricsCollector) RecordAnalysis(am AnalysisMetrics, abstainedModels int, consensus bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if am.Timestamp.IsZero() {
		am.Timestamp = time.Now()
	}
	m.totals.Analyses++
	m.totals.TotalDuration += am.Duration
	m.totals.AvgDuration = m.totals.TotalDuration / time.Duration(m.totals.Analyses)
	m.totals.RiskLevels[am.RiskLevel]++
	m.totals.AbstainedModels += abstainedModels
	if am.Degraded {
		m.totals.Degraded++
	}
	if consensus {
		m.totals.ConsensusRuns++
	}

	m.recent = append(m.recent, am)
	if len(m.recent) > m.limit {
		m.recent = m.recent[len(m.recent)-m.limit:]
	}
}

// RecordFailure records an analysis rejected with an error.
func (m *MetricsCollector) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals.Failed++
}

// RecordHistoryError records a failed history read or write.
func (m *MetricsCollector) RecordHistoryError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals.HistoryErrors++
}

// RecordScenarioBatch records one scenario comparison.
func (m *MetricsCollector) RecordScenarioBatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals.ScenarioBatches++
}

// GetTotals returns the process-wide counters.
func (m *MetricsCollector) GetTotals() AnalysisTotals {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.totals
	out.RiskLevels = make(map[string]int, len(m.totals.RiskLevels))
	for k, v := range m.totals.RiskLevels {
		out.RiskLevels[k] = v
	}
	return out
}

// GetStageMetrics returns metrics for a specific stage.
func (m *MetricsCollector) GetStageMetrics(stage string) (*StageMetrics, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sm, ok := m.stages[stage]
	if !ok {
		return nil, false
	}
	stageCopy := *sm
	return &stageCopy, true
}

// GetAllStageMetrics returns metrics for all stages.
func (m *MetricsCollector) GetAllStageMetrics() map[string]*StageMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*StageMetrics, len(m.stages))
	for k, v := range m.stages {
		stageCopy := *v
		result[k] = &stageCopy
	}
	return result
}

// GetRoleMetrics returns metrics for all consensus roles.
func (m *MetricsCollector) GetRoleMetrics() map[string]*RoleMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*RoleMetrics, len(m.roles))
	for k, v := range m.roles {
		roleCopy := *v
		result[k] = &roleCopy
	}
	return result
}

// GetRecent returns the most recent analyses, oldest first.
func (m *MetricsCollector) GetRecent() []AnalysisMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]AnalysisMetrics{}, m.recent...)
}

// Snapshot bundles every metric for serialization.
type Snapshot struct {
	Totals AnalysisTotals           `json:"totals"`
	Stages map[string]*StageMetrics `json:"stages"`
	Roles  map[string]*RoleMetrics  `json:"roles"`
	Recent []AnalysisMetrics        `json:"recent"`
}

// Snapshot returns a copy of every metric.
func (m *MetricsCollector) Snapshot() Snapshot {
	return Snapshot{
		Totals: m.GetTotals(),
		Stages: m.GetAllStageMetrics(),
		Roles:  m.GetRoleMetrics(),
		Recent: m.GetRecent(),
	}
}

// Reset clears all metrics.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totals = AnalysisTotals{StartTime: time.Now(), RiskLevels: make(map[string]int)}
	m.stages = make(map[string]*StageMetrics)
	m.roles = make(map[string]*RoleMetrics)
	m.recent = make([]AnalysisMetrics, 0)
}
