package events

import "time"

// Event type constants for analysis events.
const (
	TypeAnalysisStarted   = "analysis_started"
	TypeStageCompleted    = "stage_completed"
	TypeAnalysisCompleted = "analysis_completed"
	TypeAnalysisFailed    = "analysis_failed"
	TypeReferenceReloaded = "reference_reloaded"
)

// AnalysisStartedEvent is emitted when an event enters the pipeline.
type AnalysisStartedEvent struct {
	BaseEvent
	Input    string `json:"event_type"`
	Scenario string `json:"scenario,omitempty"`
}

// NewAnalysisStartedEvent creates a new analysis started event.
func NewAnalysisStartedEvent(analysisID, eventType, scenario string) AnalysisStartedEvent {
	return AnalysisStartedEvent{
		BaseEvent: NewBaseEvent(TypeAnalysisStarted, analysisID),
		Input:     eventType,
		Scenario:  scenario,
	}
}

// StageCompletedEvent is emitted after each pipeline stage.
type StageCompletedEvent struct {
	BaseEvent
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
	Degraded bool          `json:"degraded,omitempty"`
}

// NewStageCompletedEvent creates a new stage completed event.
func NewStageCompletedEvent(analysisID, stage string, duration time.Duration, degraded bool) StageCompletedEvent {
	return StageCompletedEvent{
		BaseEvent: NewBaseEvent(TypeStageCompleted, analysisID),
		Stage:     stage,
		Duration:  duration,
		Degraded:  degraded,
	}
}

// AnalysisCompletedEvent carries the headline numbers of a finished analysis.
type AnalysisCompletedEvent struct {
	BaseEvent
	Category   string        `json:"category"`
	RiskLevel  string        `json:"risk_level"`
	ImpactPct  float64       `json:"impact_pct"`
	Confidence float64       `json:"confidence"`
	Duration   time.Duration `json:"duration"`
}

// NewAnalysisCompletedEvent creates a new analysis completed event.
func NewAnalysisCompletedEvent(analysisID, category, riskLevel string, impactPct, confidence float64, duration time.Duration) AnalysisCompletedEvent {
	return AnalysisCompletedEvent{
		BaseEvent:  NewBaseEvent(TypeAnalysisCompleted, analysisID),
		Category:   category,
		RiskLevel:  riskLevel,
		ImpactPct:  impactPct,
		Confidence: confidence,
		Duration:   duration,
	}
}

// AnalysisFailedEvent is emitted when input validation rejects an event.
// This is a PRIORITY event.
type AnalysisFailedEvent struct {
	BaseEvent
	Error string `json:"error"`
}

// NewAnalysisFailedEvent creates a new analysis failed event.
func NewAnalysisFailedEvent(analysisID string, err error) AnalysisFailedEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return AnalysisFailedEvent{
		BaseEvent: NewBaseEvent(TypeAnalysisFailed, analysisID),
		Error:     msg,
	}
}

// ReferenceReloadedEvent is emitted when the comparables dataset is swapped.
type ReferenceReloadedEvent struct {
	BaseEvent
	Path   string `json:"path"`
	Events int    `json:"events"`
	Error  string `json:"error,omitempty"`
}

// NewReferenceReloadedEvent creates a new reference reloaded event.
func NewReferenceReloadedEvent(path string, count int, err error) ReferenceReloadedEvent {
	e := ReferenceReloadedEvent{
		BaseEvent: NewBaseEvent(TypeReferenceReloaded, ""),
		Path:      path,
		Events:    count,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
