package reference

import (
	"math"
	"sort"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// Query describes the event comparables are ranked against.
type Query struct {
	Category core.Category
	Severity int
	Scope    core.Scope
}

// Similarity scores a reference event against q in [0,1]: half for a matching
// category, 0.3 for severity closeness and 0.2 for scope closeness.
func Similarity(q Query, e core.ReferenceEvent) float64 {
	s := 0.0
	if e.Category == q.Category {
		s += 0.5
	}
	dSev := math.Abs(float64(core.ClampSeverity(q.Severity) - e.Severity))
	s += 0.3 * (1 - dSev/4)
	dScope := math.Abs(float64(q.Scope.Index() - e.Scope.Index()))
	s += 0.2 * (1 - dScope/3)
	return math.Round(s*1e4) / 1e4
}

// Nearest returns at most k comparisons with similarity >= minSimilarity,
// most similar first. Ties go to the more recent event, then by name.
func Nearest(evs []core.ReferenceEvent, q Query, k int, minSimilarity float64) []core.HistoricalComparison {
	if k <= 0 {
		return nil
	}

	out := make([]core.HistoricalComparison, 0, k)
	for _, e := range evs {
		sim := Similarity(q, e)
		if sim < minSimilarity {
			continue
		}
		out = append(out, core.HistoricalComparison{
			Name:            e.Name,
			Year:            e.Year,
			Category:        e.Category,
			Severity:        e.Severity,
			Scope:           e.Scope,
			MarketImpactPct: e.MarketImpactPct,
			RecoveryDays:    e.RecoveryDays,
			Similarity:      sim,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Name < out[j].Name
	})

	if len(out) > k {
		out = out[:k]
	}
	return out
}

// ByCategory returns the events of one category.
func ByCategory(evs []core.ReferenceEvent, c core.Category) []core.ReferenceEvent {
	var out []core.ReferenceEvent
	for _, e := range evs {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}
