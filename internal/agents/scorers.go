package agents

import (
	"math"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// ramp scores |field| linearly between lo (0) and hi (1).
func ramp(field string, lo, hi float64) func(core.Fields) (float64, bool) {
	return func(d core.Fields) (float64, bool) {
		v, ok := d.Float(field)
		if !ok {
			return 0, false
		}
		return clamp01((math.Abs(v) - lo) / (hi - lo)), true
	}
}

// logRamp is ramp on a log10 scale, for counts spanning orders of magnitude.
func logRamp(field string, lo, hi float64) func(core.Fields) (float64, bool) {
	return func(d core.Fields) (float64, bool) {
		v, ok := d.Float(field)
		if !ok {
			return 0, false
		}
		v = math.Abs(v)
		if v <= lo {
			return 0, true
		}
		return clamp01((math.Log10(v) - math.Log10(lo)) / (math.Log10(hi) - math.Log10(lo))), true
	}
}

// inverse scores a [0,1] capacity field as 1-v: less capacity, more stress.
func inverse(field string) func(core.Fields) (float64, bool) {
	return func(d core.Fields) (float64, bool) {
		v, ok := d.Float(field)
		if !ok {
			return 0, false
		}
		return clamp01(1 - v), true
	}
}

// unit scores a field already expressed on [0,1].
func unit(field string) func(core.Fields) (float64, bool) {
	return func(d core.Fields) (float64, bool) {
		v, ok := d.Float(field)
		if !ok {
			return 0, false
		}
		return clamp01(v), true
	}
}

func flag(field string, whenTrue, whenFalse float64) func(core.Fields) (float64, bool) {
	return func(d core.Fields) (float64, bool) {
		b, ok := d.Bool(field)
		if !ok {
			return 0, false
		}
		if b {
			return whenTrue, true
		}
		return whenFalse, true
	}
}

// lookup scores a text field through a table; unlisted values score other.
func lookup(field string, table map[string]float64, other float64) func(core.Fields) (float64, bool) {
	return func(d core.Fields) (float64, bool) {
		s, ok := d.Text(field)
		if !ok {
			return 0, false
		}
		if v, found := table[s]; found {
			return v, true
		}
		return other, true
	}
}

// firstOf uses the first scorer whose field is present, for fields that
// travel under more than one name.
func firstOf(scorers ...func(core.Fields) (float64, bool)) func(core.Fields) (float64, bool) {
	return func(d core.Fields) (float64, bool) {
		for _, s := range scorers {
			if v, ok := s(d); ok {
				return v, true
			}
		}
		return 0, false
	}
}

// damageLevels grades descriptive damage words onto [0,1].
var damageLevels = map[string]float64{
	"none":         0,
	"minor":        0.2,
	"moderate":     0.4,
	"severe":       0.7,
	"major":        0.7,
	"extensive":    0.85,
	"catastrophic": 1,
}

// damage accepts either a [0,1] share or a descriptive word.
func damage(field string) func(core.Fields) (float64, bool) {
	return firstOf(unit(field), lookup(field, damageLevels, 0.5))
}

// Predicates for risk rules.

func atLeast(field string, min float64) func(core.NormalizedEvent, core.Fields) bool {
	return func(_ core.NormalizedEvent, d core.Fields) bool {
		v, ok := d.Float(field)
		return ok && math.Abs(v) >= min
	}
}

func below(field string, max float64) func(core.NormalizedEvent, core.Fields) bool {
	return func(_ core.NormalizedEvent, d core.Fields) bool {
		v, ok := d.Float(field)
		return ok && v < max
	}
}

func isTrue(field string) func(core.NormalizedEvent, core.Fields) bool {
	return func(_ core.NormalizedEvent, d core.Fields) bool {
		b, ok := d.Bool(field)
		return ok && b
	}
}

func isFalse(field string) func(core.NormalizedEvent, core.Fields) bool {
	return func(_ core.NormalizedEvent, d core.Fields) bool {
		b, ok := d.Bool(field)
		return ok && !b
	}
}

func damageAtLeast(field string, min float64) func(core.NormalizedEvent, core.Fields) bool {
	score := damage(field)
	return func(_ core.NormalizedEvent, d core.Fields) bool {
		v, ok := score(d)
		return ok && v >= min
	}
}

func textIs(field string, values ...string) func(core.NormalizedEvent, core.Fields) bool {
	return func(_ core.NormalizedEvent, d core.Fields) bool {
		s, ok := d.Text(field)
		if !ok {
			return false
		}
		for _, v := range values {
			if s == v {
				return true
			}
		}
		return false
	}
}

func scopeAtLeast(s core.Scope) func(core.NormalizedEvent, core.Fields) bool {
	return func(ev core.NormalizedEvent, _ core.Fields) bool {
		return ev.Scope.Index() >= s.Index()
	}
}

func severityAtLeast(min int) func(core.NormalizedEvent, core.Fields) bool {
	return func(ev core.NormalizedEvent, _ core.Fields) bool {
		return ev.Severity >= min
	}
}
