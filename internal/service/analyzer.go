// Package service wires the analysis stages into the externally visible
// operations: single-event analysis, scenario comparison and the optional
// multi-role consensus layer.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/shockcast/internal/agents"
	"github.com/hugo-lorenzo-mato/shockcast/internal/confidence"
	"github.com/hugo-lorenzo-mato/shockcast/internal/config"
	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/ensemble"
	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
	"github.com/hugo-lorenzo-mato/shockcast/internal/forecast"
	"github.com/hugo-lorenzo-mato/shockcast/internal/immunity"
	"github.com/hugo-lorenzo-mato/shockcast/internal/logging"
	"github.com/hugo-lorenzo-mato/shockcast/internal/normalize"
	"github.com/hugo-lorenzo-mato/shockcast/internal/reference"
	"github.com/hugo-lorenzo-mato/shockcast/internal/risk"
)

// Deps are the collaborators an Analyzer consumes. Every field is optional.
type Deps struct {
	Reference core.ReferenceSource
	History   core.HistoryStore
	Publisher events.Publisher
	Metrics   *MetricsCollector
	Logger    *logging.Logger
}

// AnalyzeOptions tunes a single analysis.
type AnalyzeOptions struct {
	// PriorSimilarEventCount overrides the immunity context lookup.
	PriorSimilarEventCount *int `json:"prior_similar_event_count,omitempty" yaml:"prior_similar_event_count,omitempty"`
	// Consensus overrides consensus.enabled for this request.
	Consensus *bool `json:"consensus,omitempty" yaml:"consensus,omitempty"`
}

// AnalyzeRequest is the analyze_event operation input.
type AnalyzeRequest struct {
	EventType   string         `json:"event_type" yaml:"event_type"`
	Data        core.Fields    `json:"event_data,omitempty" yaml:"event_data,omitempty"`
	Scope       string         `json:"geographic_scope,omitempty" yaml:"geographic_scope,omitempty"`
	DataQuality string         `json:"data_quality,omitempty" yaml:"data_quality,omitempty"`
	Options     AnalyzeOptions `json:"options,omitempty" yaml:"options,omitempty"`
}

// Input returns the raw event description carried by the request.
func (r AnalyzeRequest) Input() core.EventInput {
	return core.EventInput{
		EventType:   r.EventType,
		Scope:       r.Scope,
		DataQuality: r.DataQuality,
		Data:        r.Data.Clone(),
	}
}

// Analyzer runs the analysis pipeline. It holds no per-analysis state and is
// safe for concurrent use.
type Analyzer struct {
	normalizer  *normalize.Normalizer
	agents      *agents.Registry
	ensemble    *ensemble.Ensemble
	immunity    *immunity.Adjuster
	forecaster  *forecast.Forecaster
	council     *Council
	consensus   bool
	maxParallel int

	reference core.ReferenceSource
	history   core.HistoryStore
	pub       events.Publisher
	metrics   *MetricsCollector
	log       *logging.Logger

	now   func() time.Time
	newID func() string
}

// NewAnalyzer builds an Analyzer from a validated configuration.
func NewAnalyzer(cfg *config.Config, deps Deps) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, core.ErrValidation(core.CodeInvalidConfig, "invalid configuration").WithCause(err)
	}

	log := deps.Logger
	if log == nil {
		log = logging.NewNop()
	}
	pub := deps.Publisher
	if pub == nil {
		pub = events.Discard
	}
	ref := deps.Reference
	if ref == nil {
		ref = reference.NewStaticStore(reference.Builtin())
	}

	ens, err := ensemble.New(ensemble.Options{
		Models:            cfg.Ensemble.Models,
		CalibrateSeverity: cfg.Ensemble.CalibrateSeverity,
		EVTCategories:     categories(cfg.Ensemble.EVTCategories),
		EVTMinSamples:     cfg.Ensemble.EVTMinSamples,
		EVTLevel:          cfg.Ensemble.EVTLevel,
		Logger:            log.WithStage(core.StageEnsemble),
	})
	if err != nil {
		return nil, err
	}

	roles := cfg.Consensus.Roles
	if len(roles) == 0 {
		roles = core.Roles
	}
	council, err := NewCouncil(CouncilOptions{
		Roles:             roles,
		RoleTimeout:       config.DurationOr(cfg.Consensus.RoleTimeout, 2*time.Second),
		RefineRate:        cfg.Consensus.RefineRate,
		AbstentionPenalty: cfg.Consensus.AbstentionPenalty,
		Weights:           DefaultWeights(),
		Publisher:         pub,
		Metrics:           deps.Metrics,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}

	decay := make(map[core.Category]float64, len(cfg.Forecast.DecayRates))
	for c, rate := range cfg.Forecast.DecayRates {
		decay[core.Category(c)] = rate
	}

	maxParallel := cfg.Scenarios.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}

	return &Analyzer{
		normalizer: normalize.New(normalize.Options{
			GenericPenalty:   cfg.Normalize.GenericPenalty,
			FuzzyMinCoverage: cfg.Normalize.FuzzyMinCoverage,
			Logger:           log.WithStage(core.StageNormalize),
		}),
		agents: agents.NewRegistry(ref, agents.Params{
			MinSimilarity:  cfg.Agents.MinSimilarity,
			MaxComparisons: cfg.Agents.MaxComparisons,
			SectorScale:    cfg.Agents.SectorScale,
		}),
		ensemble: ens,
		immunity: immunity.New(immunity.Options{
			Coefficient:           cfg.Immunity.Coefficient,
			DeriveFromComparisons: cfg.Immunity.DeriveFromComparisons,
			DeriveMinSimilarity:   cfg.Immunity.DeriveMinSimilarity,
			HistoryWindow:         config.DurationOr(cfg.Immunity.HistoryWindow, 365*24*time.Hour),
			History:               deps.History,
			Logger:                log.WithStage(core.StageImmunity),
		}),
		forecaster: forecast.New(forecast.Options{
			Epsilon:        cfg.Forecast.Epsilon,
			MaxHorizonDays: cfg.Forecast.MaxHorizonDays,
			DecayRates:     decay,
			Logger:         log.WithStage(core.StageForecast),
		}),
		council:     council,
		consensus:   cfg.Consensus.Enabled,
		maxParallel: maxParallel,
		reference:   ref,
		history:     deps.History,
		pub:         pub,
		metrics:     deps.Metrics,
		log:         log,
		now:         time.Now,
		newID:       uuid.NewString,
	}, nil
}

// Reference returns the comparables dataset the agents read.
func (a *Analyzer) Reference() core.ReferenceSource {
	return a.reference
}

// Agents returns the agent registry, so callers can register replacements.
func (a *Analyzer) Agents() *agents.Registry {
	return a.agents
}

// Analyze runs the full pipeline for one event. Only validation errors are
// returned; every other problem degrades the result and lowers its confidence.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*core.AnalysisResult, error) {
	return a.analyze(ctx, req, "")
}

func (a *Analyzer) analyze(ctx context.Context, req AnalyzeRequest, scenario string) (*core.AnalysisResult, error) {
	id := a.newID()
	log := a.log.WithAnalysis(id)
	if scenario != "" {
		log = log.WithScenario(scenario)
	}
	started := time.Now()
	a.pub.Publish(events.NewAnalysisStartedEvent(id, req.EventType, scenario))

	in := req.Input()
	var dropped []string
	in.Data, dropped = in.Data.Finite()
	res := &core.AnalysisResult{ID: id, CreatedAt: a.now().UTC(), Input: in}

	mark := time.Now()
	norm, err := a.normalizer.Normalize(in)
	if err != nil {
		a.pub.PublishPriority(events.NewAnalysisFailedEvent(id, err))
		if a.metrics != nil {
			a.metrics.RecordFailure()
		}
		log.Warn("analysis rejected", "error", err)
		return nil, err
	}
	for _, key := range dropped {
		norm.Degradations = append(norm.Degradations,
			fmt.Sprintf("event_data.%s is not a finite number, ignored", key))
	}
	res.Normalized = norm
	a.stageDone(id, core.StageNormalize, mark, len(norm.Degradations) > 0)

	mark = time.Now()
	finding := a.agents.For(norm.Category).Analyze(norm, in.Data)
	res.Finding = finding
	a.stageDone(id, core.StageAgent, mark, len(finding.Degradations) > len(norm.Degradations))

	mark = time.Now()
	ens := a.ensemble.Predict(norm, finding)
	res.Ensemble = ens
	a.stageDone(id, core.StageEnsemble, mark, ens.Degraded)

	severity := finding.SeverityAssessment
	base := ens.PredictedImpactPct
	penalties := []float64{norm.ConfidencePenalty}

	if a.consensusEnabled(req.Options) {
		mark = time.Now()
		outcome := a.council.Deliberate(ctx, id, RoleInput{Event: norm, Finding: finding, Ensemble: ens})
		res.Consensus = &outcome
		if outcome.Applied {
			severity = outcome.Severity
			base = outcome.ImpactPct
		}
		penalties = append(penalties, outcome.Penalty)
		a.stageDone(id, core.StageConsensus, mark, len(outcome.Abstained) > 0)
	}

	mark = time.Now()
	ic := a.immunity.Context(ctx, req.Options.PriorSimilarEventCount, finding)
	res.Immunity = a.immunity.Adjust(base, ic)
	a.stageDone(id, core.StageImmunity, mark, false)

	mark = time.Now()
	res.Forecast = a.forecaster.Forecast(res.Immunity.AdjustedImpactPct, norm.Category)
	a.stageDone(id, core.StageForecast, mark, !res.Forecast.Recovered)

	mark = time.Now()
	res.Confidence = confidence.Assess(finding, ens.ModelAgreement, penalties...)
	a.stageDone(id, core.StageConfidence, mark, res.Confidence.Penalty > 0)

	mark = time.Now()
	res.Risk = risk.Summarize(risk.Input{
		Severity:        severity,
		ImpactPct:       res.Immunity.AdjustedImpactPct,
		Confidence:      res.Confidence.Score,
		RecoveryDays:    res.Forecast.FullRecoveryDay,
		Sectors:         finding.SectoralImpact,
		StructuralRisks: finding.StructuralRisks,
	})
	a.stageDone(id, core.StageRisk, mark, false)

	a.record(ctx, res, log)

	elapsed := time.Since(started)
	a.pub.Publish(events.NewAnalysisCompletedEvent(id, string(norm.Category), string(res.Risk.OverallRiskLevel),
		res.Risk.PredictedMarketImpactPct, res.Risk.Confidence, elapsed))
	if a.metrics != nil {
		a.metrics.RecordAnalysis(AnalysisMetrics{
			AnalysisID: id,
			Category:   string(norm.Category),
			RiskLevel:  string(res.Risk.OverallRiskLevel),
			ImpactPct:  res.Risk.PredictedMarketImpactPct,
			Confidence: res.Risk.Confidence,
			Duration:   elapsed,
			Degraded:   ens.Degraded || len(finding.Degradations) > 0,
		}, len(ens.Abstained), res.Consensus != nil)
	}

	log.Info("analysis completed",
		"category", norm.Category,
		"severity", res.Risk.SeverityScore,
		"impact_pct", res.Risk.PredictedMarketImpactPct,
		"risk_level", res.Risk.OverallRiskLevel,
		"confidence", res.Risk.Confidence,
		"duration", elapsed,
	)
	return res, nil
}

func (a *Analyzer) consensusEnabled(opts AnalyzeOptions) bool {
	if opts.Consensus != nil {
		return *opts.Consensus
	}
	return a.consensus
}

func (a *Analyzer) stageDone(id, stage string, start time.Time, degraded bool) {
	d := time.Since(start)
	a.pub.Publish(events.NewStageCompletedEvent(id, stage, d, degraded))
	if a.metrics != nil {
		a.metrics.RecordStage(stage, d, degraded)
	}
}

// record persists the analysis. Failures are logged and otherwise ignored.
func (a *Analyzer) record(ctx context.Context, res *core.AnalysisResult, log *logging.Logger) {
	if a.history == nil {
		return
	}
	err := a.history.Record(ctx, core.AnalysisRecord{
		ID:        res.ID,
		EventType: res.Normalized.EventType,
		Category:  res.Normalized.Category,
		Scope:     res.Normalized.Scope,
		Severity:  res.Risk.SeverityScore,
		ImpactPct: res.Risk.PredictedMarketImpactPct,
		RiskLevel: res.Risk.OverallRiskLevel,
		CreatedAt: res.CreatedAt,
	})
	if err != nil {
		log.Warn("recording analysis history failed", "error", fmt.Errorf("history: %w", err))
		if a.metrics != nil {
			a.metrics.RecordHistoryError()
		}
	}
}

func categories(names []string) []core.Category {
	out := make([]core.Category, len(names))
	for i, n := range names {
		out[i] = core.Category(n)
	}
	return out
}
