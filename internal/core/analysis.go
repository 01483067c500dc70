package core

import "time"

// HistoricalComparison is a past event judged similar to the one under analysis.
type HistoricalComparison struct {
	Name            string   `json:"name"`
	Year            int      `json:"year"`
	Category        Category `json:"category"`
	Severity        int      `json:"severity"`
	Scope           Scope    `json:"scope"`
	MarketImpactPct float64  `json:"market_impact_pct"`
	RecoveryDays    int      `json:"recovery_days"`
	Similarity      float64  `json:"similarity"`
}

// AgentFinding is the output of a specialized agent.
type AgentFinding struct {
	Agent                 string                 `json:"agent"`
	Category              Category               `json:"category"`
	SeverityAssessment    int                    `json:"severity_assessment"`
	SectoralImpact        map[string]float64     `json:"sectoral_impact"`
	HistoricalComparisons []HistoricalComparison `json:"historical_comparisons"`
	StructuralRisks       []string               `json:"structural_risks,omitempty"`
	DataQuality           DataQuality            `json:"data_quality"`
	Degradations          []string               `json:"degradations,omitempty"`
}

// BestSimilarity returns the similarity of the closest comparison, or 0.
func (f AgentFinding) BestSimilarity() float64 {
	if len(f.HistoricalComparisons) == 0 {
		return 0
	}
	return f.HistoricalComparisons[0].Similarity
}

// ConfidenceInterval bounds a prediction at a stated level.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Level float64 `json:"level"`
}

// PredictionOutput is the estimate of a single ensemble model.
type PredictionOutput struct {
	ModelName          string             `json:"model_name"`
	PredictedImpactPct float64            `json:"predicted_impact_pct"`
	Interval           ConfidenceInterval `json:"confidence_interval"`
	Confidence         float64            `json:"confidence"`
	Details            map[string]float64 `json:"details,omitempty"`
	FeatureImportance  map[string]float64 `json:"feature_importance,omitempty"`
}

// EnsemblePrediction combines the non-abstaining model outputs.
type EnsemblePrediction struct {
	PredictedImpactPct float64            `json:"predicted_impact_pct"`
	ModelAgreement     float64            `json:"model_agreement"`
	Models             []PredictionOutput `json:"models"`
	Abstained          []string           `json:"abstained,omitempty"`
	Degraded           bool               `json:"degraded"`
	Calibrated         bool               `json:"calibrated"`
}

// ImmunitySource records where the prior-event count came from.
type ImmunitySource string

const (
	ImmunitySourceCaller      ImmunitySource = "caller"
	ImmunitySourceHistory     ImmunitySource = "history"
	ImmunitySourceComparisons ImmunitySource = "comparisons"
	ImmunitySourceNone        ImmunitySource = "none"
)

// ImmunityContext carries the number of prior similar events.
type ImmunityContext struct {
	PriorSimilarEventCount int            `json:"prior_similar_event_count"`
	Source                 ImmunitySource `json:"source"`
}

// ImmunityAdjustment records the market-immunity rescaling.
type ImmunityAdjustment struct {
	Context           ImmunityContext `json:"context"`
	Factor            float64         `json:"factor"`
	BaseImpactPct     float64         `json:"base_impact_pct"`
	AdjustedImpactPct float64         `json:"adjusted_impact_pct"`
}

// DecayPhase is a segment of the forecast trajectory.
type DecayPhase string

const (
	PhaseInitialShock DecayPhase = "initial_shock"
	PhaseAcute        DecayPhase = "acute"
	PhaseRecovery     DecayPhase = "recovery"
	PhaseLongTerm     DecayPhase = "long_term"
)

// ForecastPoint is the predicted impact on a given day.
type ForecastPoint struct {
	Day                int        `json:"day"`
	PredictedImpactPct float64    `json:"predicted_impact_pct"`
	Phase              DecayPhase `json:"phase"`
}

// Forecast is the fully materialized day-by-day trajectory.
type Forecast struct {
	Points          []ForecastPoint `json:"points"`
	PeakImpactDay   int             `json:"peak_impact_day"`
	PeakImpactPct   float64         `json:"peak_impact_pct"`
	FullRecoveryDay int             `json:"full_recovery_day"`
	Recovered       bool            `json:"recovered"`
	Epsilon         float64         `json:"epsilon"`
}

// ConfidenceMetrics breaks the calibrated confidence into its terms.
type ConfidenceMetrics struct {
	DataQuality          float64 `json:"data_quality"`
	HistoricalSimilarity float64 `json:"historical_similarity"`
	ModelAgreement       float64 `json:"model_agreement"`
	Penalty              float64 `json:"penalty"`
	Score                float64 `json:"score"`
}

// RiskLevel is the categorical outcome of an analysis.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders levels from low (0) to critical (3).
func (l RiskLevel) Rank() int {
	switch l {
	case RiskModerate:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return 0
	}
}

// RiskSummary is the externally visible result of an analysis.
type RiskSummary struct {
	OverallRiskLevel         RiskLevel `json:"overall_risk_level"`
	SeverityScore            int       `json:"severity_score"`
	PredictedMarketImpactPct float64   `json:"predicted_market_impact_pct"`
	EstimatedRecoveryDays    int       `json:"estimated_recovery_days"`
	KeyRisks                 []string  `json:"key_risks"`
	RecommendedActions       []string  `json:"recommended_actions"`
	ImmediateActionsRequired bool      `json:"immediate_actions_required"`
	Confidence               float64   `json:"confidence"`
}

// RoleOpinion is one analytical role's view inside the consensus layer.
type RoleOpinion struct {
	Role       string   `json:"role"`
	Severity   float64  `json:"severity"`
	ImpactPct  float64  `json:"impact_pct"`
	Confidence float64  `json:"confidence"`
	KeyRisks   []string `json:"key_risks,omitempty"`
	Rationale  string   `json:"rationale,omitempty"`
	Revised    bool     `json:"revised"`
}

// ConsensusState is a stage of the consensus state machine.
type ConsensusState string

const (
	ConsensusDispatched  ConsensusState = "dispatched"
	ConsensusCollecting  ConsensusState = "collecting"
	ConsensusRefining    ConsensusState = "refining"
	ConsensusSynthesized ConsensusState = "synthesized"
)

// ConsensusOutcome is the reconciled result of the multi-role layer.
type ConsensusOutcome struct {
	State          ConsensusState `json:"state"`
	Opinions       []RoleOpinion  `json:"opinions"`
	Abstained      []string       `json:"abstained,omitempty"`
	Severity       int            `json:"severity"`
	ImpactPct      float64        `json:"impact_pct"`
	AgreementScore float64        `json:"agreement_score"`
	SharedRisks    []string       `json:"shared_risks,omitempty"`
	Penalty        float64        `json:"penalty"`
	Applied        bool           `json:"applied"`
}

// AnalysisResult nests every stage of a single-event analysis.
type AnalysisResult struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Input      EventInput         `json:"input"`
	Normalized NormalizedEvent    `json:"normalized_event"`
	Finding    AgentFinding       `json:"agent_finding"`
	Ensemble   EnsemblePrediction `json:"ensemble_prediction"`
	Consensus  *ConsensusOutcome  `json:"consensus,omitempty"`
	Immunity   ImmunityAdjustment `json:"immunity"`
	Forecast   Forecast           `json:"forecast"`
	Confidence ConfidenceMetrics  `json:"confidence_metrics"`
	Risk       RiskSummary        `json:"risk_summary"`
}

// ScenarioResult is one entry of a scenario comparison.
type ScenarioResult struct {
	Name   string          `json:"name"`
	Index  int             `json:"index"`
	Rank   int             `json:"rank"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ImpactPct is the scenario's predicted market impact; failed scenarios report 0.
func (s ScenarioResult) ImpactPct() float64 {
	if s.Result == nil {
		return 0
	}
	return s.Result.Risk.PredictedMarketImpactPct
}

// Severity is the scenario's severity score; failed scenarios report 0.
func (s ScenarioResult) Severity() int {
	if s.Result == nil {
		return 0
	}
	return s.Result.Risk.SeverityScore
}

// Confidence is the scenario's confidence; failed scenarios collapse to 0.
func (s ScenarioResult) Confidence() float64 {
	if s.Result == nil {
		return 0
	}
	return s.Result.Risk.Confidence
}

// Comparison ranks a batch of scenarios.
type Comparison struct {
	MostSevere *ScenarioResult  `json:"most_severe"`
	Ranked     []ScenarioResult `json:"ranked_list"`
}
