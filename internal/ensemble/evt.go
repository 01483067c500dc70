package ensemble

import (
	"math"
	"sort"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

const (
	evtThresholdQuantile = 0.2
	evtMinXi             = -0.5
	evtMaxXi             = 0.9
)

// EVTModel fits a peaks-over-threshold Generalized Pareto tail to the
// rescaled comparable magnitudes and reports VaR and CVaR.
type EVTModel struct {
	categories map[core.Category]bool
	minSamples int
	level      float64
}

// NewEVTModel creates an EVTModel for the given heavy-tailed categories.
func NewEVTModel(categories []core.Category, minSamples int, level float64) *EVTModel {
	set := make(map[core.Category]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return &EVTModel{categories: set, minSamples: minSamples, level: level}
}

func (m *EVTModel) Name() string { return core.ModelEVT }

// Predict abstains for light-tailed categories, small samples and degenerate fits.
func (m *EVTModel) Predict(ev core.NormalizedEvent, f core.AgentFinding) (core.PredictionOutput, bool) {
	if !m.categories[ev.Category] {
		return core.PredictionOutput{}, false
	}
	mags := rescaled(f.HistoricalComparisons, severityOf(ev, f), ev.Scope)
	if len(mags) < m.minSamples {
		return core.PredictionOutput{}, false
	}
	fit, ok := FitGPD(mags)
	if !ok {
		return core.PredictionOutput{}, false
	}

	v := fit.VaR(m.level)
	cv := fit.CVaR(m.level)
	return core.PredictionOutput{
		ModelName:          core.ModelEVT,
		PredictedImpactPct: round2(-v),
		Interval: core.ConfidenceInterval{
			Lower: round2(-cv),
			Upper: round2(-fit.Threshold),
			Level: m.level,
		},
		Confidence: math.Min(0.7, 0.2+0.05*float64(len(mags))),
		Details: map[string]float64{
			"xi":        round4(fit.Xi),
			"sigma":     round4(fit.Sigma),
			"threshold": round4(fit.Threshold),
			"var_99":    round2(fit.VaR(0.99)),
			"cvar_99":   round2(fit.CVaR(0.99)),
		},
	}, true
}

// GPDFit is a Generalized Pareto tail above Threshold.
type GPDFit struct {
	Threshold  float64
	Xi         float64
	Sigma      float64
	N          int
	Exceedance int
}

// FitGPD fits the tail by the method of moments on the exceedances over the
// 20th percentile. ok is false when there are too few distinct exceedances.
func FitGPD(samples []float64) (GPDFit, bool) {
	xs := append([]float64(nil), samples...)
	sort.Float64s(xs)
	u := quantile(xs, evtThresholdQuantile)

	var ys []float64
	for _, x := range xs {
		if x > u {
			ys = append(ys, x-u)
		}
	}
	if len(ys) < 2 {
		return GPDFit{}, false
	}

	var mean float64
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))
	var variance float64
	for _, y := range ys {
		variance += (y - mean) * (y - mean)
	}
	variance /= float64(len(ys) - 1)
	if variance <= 0 || mean <= 0 {
		return GPDFit{}, false
	}

	xi := 0.5 * (1 - mean*mean/variance)
	xi = math.Max(evtMinXi, math.Min(evtMaxXi, xi))
	return GPDFit{
		Threshold:  u,
		Xi:         xi,
		Sigma:      mean * (1 - xi),
		N:          len(xs),
		Exceedance: len(ys),
	}, true
}

// VaR is the loss magnitude exceeded with probability 1-level.
func (g GPDFit) VaR(level float64) float64 {
	tail := float64(g.N) / float64(g.Exceedance) * (1 - level)
	if math.Abs(g.Xi) < 1e-9 {
		return g.Threshold - g.Sigma*math.Log(tail)
	}
	return g.Threshold + g.Sigma/g.Xi*(math.Pow(tail, -g.Xi)-1)
}

// CVaR is the expected loss magnitude beyond VaR(level).
func (g GPDFit) CVaR(level float64) float64 {
	v := g.VaR(level)
	return (v + g.Sigma - g.Xi*g.Threshold) / (1 - g.Xi)
}

// quantile interpolates linearly over sorted xs.
func quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	pos := q * float64(len(xs)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return xs[lo] + (xs[hi]-xs[lo])*(pos-float64(lo))
}
