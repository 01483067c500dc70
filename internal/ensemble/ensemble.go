// Package ensemble runs independent impact models over an agent finding and
// folds the ones that did not abstain into a single estimate.
package ensemble

import (
	"fmt"
	"math"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/logging"
)

// Model is one impact estimator. ok=false means the model abstains.
type Model interface {
	Name() string
	Predict(ev core.NormalizedEvent, f core.AgentFinding) (out core.PredictionOutput, ok bool)
}

// Options configures an Ensemble.
type Options struct {
	Models            []string
	CalibrateSeverity bool
	EVTCategories     []core.Category
	EVTMinSamples     int
	EVTLevel          float64
	Logger            *logging.Logger
}

// DefaultOptions returns the built-in settings.
func DefaultOptions() Options {
	return Options{
		Models:            append([]string(nil), core.Models...),
		CalibrateSeverity: true,
		EVTCategories: []core.Category{
			core.CategoryPandemic,
			core.CategoryNaturalDisaster,
			core.CategoryEconomicCrisis,
			core.CategoryGeopolitical,
			core.CategoryPolycrisis,
			core.CategoryRecession,
			core.CategoryClimate,
			core.CategoryGeneric,
		},
		EVTMinSamples: 5,
		EVTLevel:      0.95,
	}
}

// Ensemble holds the enabled models in configuration order.
type Ensemble struct {
	models    []Model
	calibrate bool
	log       *logging.Logger
}

// New builds the models named in opts.
func New(opts Options) (*Ensemble, error) {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	e := &Ensemble{calibrate: opts.CalibrateSeverity, log: log}
	for _, name := range opts.Models {
		switch name {
		case core.ModelRule:
			e.models = append(e.models, NewRuleModel())
		case core.ModelHistorical:
			e.models = append(e.models, NewHistoricalModel())
		case core.ModelEVT:
			e.models = append(e.models, NewEVTModel(opts.EVTCategories, opts.EVTMinSamples, opts.EVTLevel))
		case core.ModelRegression:
			e.models = append(e.models, NewRegressionModel())
		default:
			return nil, core.ErrValidation(core.CodeInvalidConfig, fmt.Sprintf("unknown ensemble model %q", name))
		}
	}
	return e, nil
}

// NewWithModels builds an Ensemble over arbitrary models.
func NewWithModels(calibrate bool, models ...Model) *Ensemble {
	return &Ensemble{models: models, calibrate: calibrate, log: logging.NewNop()}
}

// Predict runs every model and combines the non-abstaining outputs. It always
// returns an estimate: if all models abstain the generic rule row stands in.
func (e *Ensemble) Predict(ev core.NormalizedEvent, f core.AgentFinding) core.EnsemblePrediction {
	var out core.EnsemblePrediction
	for _, m := range e.models {
		p, ok := m.Predict(ev, f)
		if !ok {
			out.Abstained = append(out.Abstained, m.Name())
			e.log.Debug("model abstained", "model", m.Name(), "category", ev.Category)
			continue
		}
		out.Models = append(out.Models, p)
	}

	if len(out.Models) == 0 {
		fallback := rulePrediction(row(core.CategoryGeneric), severityOf(ev, f), ev.Scope)
		out.Models = []core.PredictionOutput{fallback}
		out.Degraded = true
		e.log.Warn("all ensemble models abstained, using generic rule estimate", "category", ev.Category)
	}

	out.PredictedImpactPct, out.ModelAgreement = Combine(out.Models)

	if e.calibrate {
		out.PredictedImpactPct = -Calibrate(math.Abs(out.PredictedImpactPct), ev.Category, severityOf(ev, f), ev.Scope)
		out.Calibrated = true
	}
	out.PredictedImpactPct = round2(out.PredictedImpactPct)
	return out
}

// Combine returns the confidence-weighted mean impact and the agreement of
// the estimates. Zero total confidence falls back to equal weights.
func Combine(outputs []core.PredictionOutput) (impact, agreement float64) {
	if len(outputs) == 0 {
		return 0, 1
	}
	var sum, weights float64
	values := make([]float64, len(outputs))
	for i, o := range outputs {
		values[i] = o.PredictedImpactPct
		sum += o.Confidence * o.PredictedImpactPct
		weights += o.Confidence
	}
	if weights <= 0 {
		sum, weights = 0, float64(len(outputs))
		for _, v := range values {
			sum += v
		}
	}
	return sum / weights, Agreement(values)
}

// Agreement is 1 minus the coefficient of variation of values, clamped to
// [0,1]. A single value agrees with itself.
func Agreement(values []float64) float64 {
	if len(values) <= 1 {
		return 1
	}
	var mean, meanAbs float64
	for _, v := range values {
		mean += v
		meanAbs += math.Abs(v)
	}
	n := float64(len(values))
	mean /= n
	meanAbs /= n
	if meanAbs == 0 {
		return 1
	}
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(ss / n)
	return 1 - math.Min(1, sd/meanAbs)
}

// Calibrate clamps a magnitude into the band of its severity: from the
// midpoint with the severity below to the midpoint with the severity above,
// scaled by scope. Adjacent bands touch, so the result is monotone in severity.
func Calibrate(mag float64, c core.Category, severity int, scope core.Scope) float64 {
	lo, hi := Band(c, severity, scope)
	return math.Max(lo, math.Min(hi, mag))
}

// Band returns the magnitude band of a severity.
func Band(c core.Category, severity int, scope core.Scope) (lo, hi float64) {
	r := row(c)
	i := core.ClampSeverity(severity) - 1
	if i == 0 {
		lo = r[0] / 2
	} else {
		lo = (r[i-1] + r[i]) / 2
	}
	if i == 4 {
		hi = r[4] + (r[4]-r[3])/2
	} else {
		hi = (r[i] + r[i+1]) / 2
	}
	f := scope.Factor()
	return lo * f, hi * f
}

// severityOf prefers the agent's assessment over the normalizer's severity.
func severityOf(ev core.NormalizedEvent, f core.AgentFinding) int {
	if f.SeverityAssessment > 0 {
		return core.ClampSeverity(f.SeverityAssessment)
	}
	return core.ClampSeverity(ev.Severity)
}

func qualityOf(ev core.NormalizedEvent, f core.AgentFinding) core.DataQuality {
	if f.DataQuality != "" {
		return f.DataQuality
	}
	return ev.DataQuality
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }
