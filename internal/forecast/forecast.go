// Package forecast projects an impact estimate into a day-by-day recovery
// trajectory using a four-phase piecewise decay.
package forecast

import (
	"math"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/logging"
)

// Phase boundaries, in days since the event.
const (
	ShockEndDay    = 5
	AcuteEndDay    = 30
	RecoveryEndDay = 180
)

// recoverySlowdown scales λ after the acute phase.
const recoverySlowdown = 0.35

// DefaultDecayRates is λ per category: larger recovers faster.
var DefaultDecayRates = map[core.Category]float64{
	core.CategoryPandemic:        0.03,
	core.CategoryTerrorism:       0.15,
	core.CategoryNaturalDisaster: 0.08,
	core.CategoryEconomicCrisis:  0.01,
	core.CategoryGeopolitical:    0.04,
	core.CategoryCyber:           0.2,
	core.CategoryClimate:         0.02,
	core.CategoryPolycrisis:      0.012,
	core.CategoryRecession:       0.008,
	core.CategoryInflation:       0.015,
	core.CategoryRateDecision:    0.05,
	core.CategoryGeneric:         0.05,
}

// residuals is the share of the peak that persists for structurally
// persistent categories. Everything else decays toward zero.
var residuals = map[core.Category]float64{
	core.CategoryClimate:      0.03,
	core.CategoryPolycrisis:   0.03,
	core.CategoryGeopolitical: 0.02,
}

// growth is how far slow-building crises deepen over the shock phase.
var growth = map[core.Category]float64{
	core.CategoryEconomicCrisis: 1.2,
	core.CategoryRecession:      1.15,
	core.CategoryPolycrisis:     1.25,
	core.CategoryClimate:        1.1,
}

// Options configures a Forecaster.
type Options struct {
	Epsilon        float64
	MaxHorizonDays int
	DecayRates     map[core.Category]float64
	Logger         *logging.Logger
}

// DefaultOptions returns the built-in settings.
func DefaultOptions() Options {
	return Options{Epsilon: 0.05, MaxHorizonDays: 1095}
}

// Forecaster materializes trajectories.
type Forecaster struct {
	opts  Options
	rates map[core.Category]float64
	log   *logging.Logger
}

// New creates a Forecaster. DecayRates entries override the defaults.
func New(opts Options) *Forecaster {
	if opts.Epsilon <= 0 {
		opts.Epsilon = 0.05
	}
	if opts.MaxHorizonDays <= AcuteEndDay {
		opts.MaxHorizonDays = 1095
	}
	rates := make(map[core.Category]float64, len(DefaultDecayRates))
	for c, l := range DefaultDecayRates {
		rates[c] = l
	}
	for c, l := range opts.DecayRates {
		if l > 0 {
			rates[c] = l
		}
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &Forecaster{opts: opts, rates: rates, log: log}
}

// Lambda returns the decay rate used for c.
func (f *Forecaster) Lambda(c core.Category) float64 {
	if l, ok := f.rates[c]; ok {
		return l
	}
	return f.rates[core.CategoryGeneric]
}

// Forecast projects estimate. Point 0 equals estimate; points run through the
// first day whose magnitude falls below epsilon·|peak|, or through the horizon
// when that never happens.
func (f *Forecaster) Forecast(estimate float64, c core.Category) core.Forecast {
	out := core.Forecast{Epsilon: f.opts.Epsilon}
	if estimate == 0 {
		out.Points = []core.ForecastPoint{{Day: 0, PredictedImpactPct: 0, Phase: core.PhaseInitialShock}}
		out.Recovered = true
		return out
	}

	curve := f.curve(estimate, c)
	threshold := f.opts.Epsilon * math.Abs(curve.peak)

	for day := 0; day <= f.opts.MaxHorizonDays; day++ {
		v := curve.at(day)
		if day == 0 {
			v = estimate
		}
		v = math.Round(v*1e4) / 1e4
		out.Points = append(out.Points, core.ForecastPoint{Day: day, PredictedImpactPct: v, Phase: PhaseOf(day)})

		if math.Abs(v) > math.Abs(out.PeakImpactPct) {
			out.PeakImpactPct = v
			out.PeakImpactDay = day
		}
		if day > 0 && math.Abs(v) < threshold {
			out.FullRecoveryDay = day
			out.Recovered = true
			return out
		}
	}

	out.FullRecoveryDay = f.opts.MaxHorizonDays
	f.log.Debug("forecast did not recover within horizon", "category", c, "horizon_days", f.opts.MaxHorizonDays)
	return out
}

// PhaseOf returns the decay phase of a day.
func PhaseOf(day int) core.DecayPhase {
	switch {
	case day <= ShockEndDay:
		return core.PhaseInitialShock
	case day <= AcuteEndDay:
		return core.PhaseAcute
	case day <= RecoveryEndDay:
		return core.PhaseRecovery
	default:
		return core.PhaseLongTerm
	}
}

type curve struct {
	estimate float64
	peak     float64
	lambda   float64
	floor    float64
	endAcute float64
	endRecov float64
}

func (f *Forecaster) curve(estimate float64, c core.Category) curve {
	g := 1.0
	if v, ok := growth[c]; ok {
		g = v
	}
	cv := curve{estimate: estimate, peak: estimate * g, lambda: f.Lambda(c)}
	cv.endAcute = cv.peak * math.Exp(-cv.lambda*float64(AcuteEndDay-ShockEndDay))
	cv.endRecov = cv.endAcute * math.Exp(-cv.lambda*recoverySlowdown*float64(RecoveryEndDay-AcuteEndDay))

	cv.floor = residuals[c] * cv.peak
	if math.Abs(cv.floor) > math.Abs(cv.endRecov) {
		cv.floor = cv.endRecov
	}
	return cv
}

func (cv curve) at(day int) float64 {
	t := float64(day)
	switch {
	case day <= ShockEndDay:
		return cv.estimate + (cv.peak-cv.estimate)*t/ShockEndDay
	case day <= AcuteEndDay:
		return cv.peak * math.Exp(-cv.lambda*(t-ShockEndDay))
	case day <= RecoveryEndDay:
		return cv.endAcute * math.Exp(-cv.lambda*recoverySlowdown*(t-AcuteEndDay))
	default:
		return cv.floor + (cv.endRecov-cv.floor)*math.Exp(-cv.lambda*recoverySlowdown*(t-RecoveryEndDay))
	}
}
