// Package immunity rescales an impact estimate for the diminishing market
// reaction to repeated shocks of the same kind.
package immunity

import (
	"context"
	"math"
	"time"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/logging"
)

// DefaultCoefficient is k in Factor(n) = 1 - 1/(1 + k·n).
const DefaultCoefficient = 0.3

// Options configures an Adjuster.
type Options struct {
	Coefficient           float64
	DeriveFromComparisons bool
	DeriveMinSimilarity   float64
	HistoryWindow         time.Duration
	History               core.HistoryStore
	Logger                *logging.Logger
}

// DefaultOptions returns the built-in settings: no history, no derivation.
func DefaultOptions() Options {
	return Options{
		Coefficient:         DefaultCoefficient,
		DeriveMinSimilarity: 0.8,
		HistoryWindow:       365 * 24 * time.Hour,
	}
}

// Adjuster resolves the prior-event count and applies the immunity factor.
type Adjuster struct {
	opts Options
	log  *logging.Logger
	now  func() time.Time
}

// New creates an Adjuster.
func New(opts Options) *Adjuster {
	if opts.Coefficient <= 0 {
		opts.Coefficient = DefaultCoefficient
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &Adjuster{opts: opts, log: log, now: time.Now}
}

// Factor returns 1 - 1/(1 + k·n). It is 0 at n=0, strictly increasing and
// below 1 for every finite n. Negative n counts as 0.
func Factor(k float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return 1 - 1/(1+k*float64(n))
}

// Apply scales base by 1 - Factor(n).
func Apply(k float64, base float64, n int) float64 {
	return base * (1 - Factor(k, n))
}

// Context resolves how many prior similar events the market has seen: the
// caller's count, then the history store, then (when enabled) the finding's
// close same-category comparables.
func (a *Adjuster) Context(ctx context.Context, caller *int, f core.AgentFinding) core.ImmunityContext {
	if caller != nil {
		return core.ImmunityContext{PriorSimilarEventCount: max(0, *caller), Source: core.ImmunitySourceCaller}
	}

	if a.opts.History != nil {
		since := a.now().Add(-a.opts.HistoryWindow)
		n, err := a.opts.History.CountSimilar(ctx, f.Category, since)
		if err != nil {
			a.log.Warn("history lookup failed, assuming no prior events", "category", f.Category, "error", err)
		} else if n > 0 {
			return core.ImmunityContext{PriorSimilarEventCount: n, Source: core.ImmunitySourceHistory}
		}
	}

	if a.opts.DeriveFromComparisons {
		n := 0
		for _, c := range f.HistoricalComparisons {
			if c.Category == f.Category && c.Similarity >= a.opts.DeriveMinSimilarity {
				n++
			}
		}
		if n > 0 {
			return core.ImmunityContext{PriorSimilarEventCount: n, Source: core.ImmunitySourceComparisons}
		}
	}

	return core.ImmunityContext{Source: core.ImmunitySourceNone}
}

// Adjust applies the immunity factor for ic to base exactly once.
func (a *Adjuster) Adjust(base float64, ic core.ImmunityContext) core.ImmunityAdjustment {
	factor := Factor(a.opts.Coefficient, ic.PriorSimilarEventCount)
	return core.ImmunityAdjustment{
		Context:           ic,
		Factor:            math.Round(factor*1e4) / 1e4,
		BaseImpactPct:     base,
		AdjustedImpactPct: math.Round(base*(1-factor)*100) / 100,
	}
}
