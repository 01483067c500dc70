package core

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Category is the closed set of event families an agent exists for.
type Category string

const (
	CategoryPandemic        Category = "pandemic"
	CategoryTerrorism       Category = "terrorism"
	CategoryNaturalDisaster Category = "natural_disaster"
	CategoryEconomicCrisis  Category = "economic_crisis"
	CategoryGeopolitical    Category = "geopolitical"
	CategoryCyber           Category = "cyber"
	CategoryClimate         Category = "climate"
	CategoryPolycrisis      Category = "polycrisis"
	CategoryRecession       Category = "recession"
	CategoryInflation       Category = "inflation"
	CategoryRateDecision    Category = "rate_decision"

	// CategoryGeneric receives every event type nobody recognizes.
	CategoryGeneric Category = "generic"
)

// KnownCategories returns every category with a dedicated agent, in a stable order.
func KnownCategories() []Category {
	return []Category{
		CategoryPandemic,
		CategoryTerrorism,
		CategoryNaturalDisaster,
		CategoryEconomicCrisis,
		CategoryGeopolitical,
		CategoryCyber,
		CategoryClimate,
		CategoryPolycrisis,
		CategoryRecession,
		CategoryInflation,
		CategoryRateDecision,
	}
}

// IsKnown reports whether c has a dedicated agent.
func (c Category) IsKnown() bool {
	for _, k := range KnownCategories() {
		if k == c {
			return true
		}
	}
	return false
}

// Scope is the geographic reach of an event.
type Scope string

const (
	ScopeLocal    Scope = "local"
	ScopeRegional Scope = "regional"
	ScopeNational Scope = "national"
	ScopeGlobal   Scope = "global"
)

// ParseScope parses a scope tag. The empty string is not a valid scope.
func ParseScope(s string) (Scope, bool) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeLocal:
		return ScopeLocal, true
	case ScopeRegional:
		return ScopeRegional, true
	case ScopeNational:
		return ScopeNational, true
	case ScopeGlobal:
		return ScopeGlobal, true
	}
	return "", false
}

// Index returns 0 (local) through 3 (global); unknown scopes map to national.
func (s Scope) Index() int {
	switch s {
	case ScopeLocal:
		return 0
	case ScopeRegional:
		return 1
	case ScopeGlobal:
		return 3
	default:
		return 2
	}
}

// Factor is the share of an event's physical impact that reaches broad markets.
func (s Scope) Factor() float64 {
	switch s {
	case ScopeLocal:
		return 0.25
	case ScopeRegional:
		return 0.5
	case ScopeGlobal:
		return 1.0
	default:
		return 0.75
	}
}

// DataQuality tags how trustworthy the event description is.
type DataQuality string

const (
	DataQualityLow    DataQuality = "low"
	DataQualityMedium DataQuality = "medium"
	DataQualityHigh   DataQuality = "high"
)

// ParseDataQuality parses a data quality tag.
func ParseDataQuality(s string) (DataQuality, bool) {
	switch DataQuality(strings.ToLower(strings.TrimSpace(s))) {
	case DataQualityLow:
		return DataQualityLow, true
	case DataQualityMedium:
		return DataQualityMedium, true
	case DataQualityHigh:
		return DataQualityHigh, true
	}
	return "", false
}

// Score maps the tag onto [0,1].
func (q DataQuality) Score() float64 {
	switch q {
	case DataQualityHigh:
		return 0.9
	case DataQualityLow:
		return 0.5
	default:
		return 0.7
	}
}

// Lower returns the next tier down; low stays low.
func (q DataQuality) Lower() DataQuality {
	switch q {
	case DataQualityHigh:
		return DataQualityMedium
	default:
		return DataQualityLow
	}
}

// Fields is a category-specific event record. Values come from JSON, YAML or
// CLI flags, so accessors accept numbers, numeric strings and yes/no words.
type Fields map[string]any

// Has reports whether key is present with a non-nil value.
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

// Float returns key as a float64. NaN and infinities are treated as absent.
func (f Fields) Float(key string) (float64, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return 0, false
	}
	x, ok := toFloat(v)
	if !ok || !finite(x) {
		return 0, false
	}
	return x, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		x, err := n.Float64()
		return x, err == nil
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return x, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// maxFieldInt bounds Int so the float to int conversion is always defined.
const maxFieldInt = 1 << 53

// Int returns key rounded to the nearest integer, saturated at ±2^53.
func (f Fields) Int(key string) (int, bool) {
	x, ok := f.Float(key)
	if !ok {
		return 0, false
	}
	x = math.Max(-maxFieldInt, math.Min(maxFieldInt, math.Round(x)))
	return int(x), true
}

// Bool returns key as a boolean.
func (f Fields) Bool(key string) (bool, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1", "available":
			return true, true
		case "false", "no", "n", "0", "none", "unavailable":
			return false, true
		}
		return false, false
	}
	if x, ok := f.Float(key); ok {
		return x != 0, true
	}
	return false, false
}

// Text returns key as a lower-cased, trimmed string.
func (f Fields) Text(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return s, s != ""
}

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Finite returns a copy of f without NaN or infinite numbers, at any depth,
// and the dotted paths of what was dropped. Those values cannot be encoded
// as JSON.
func (f Fields) Finite() (Fields, []string) {
	var dropped []string
	out := finiteMap(f, "", &dropped)
	sort.Strings(dropped)
	return out, dropped
}

func finiteMap(m map[string]any, prefix string, dropped *[]string) Fields {
	if m == nil {
		return nil
	}
	out := make(Fields, len(m))
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if v, ok := finiteValue(v, path, dropped); ok {
			out[k] = v
		}
	}
	return out
}

func finiteValue(v any, path string, dropped *[]string) (any, bool) {
	switch x := v.(type) {
	case float64:
		if !finite(x) {
			*dropped = append(*dropped, path)
			return nil, false
		}
	case float32:
		if !finite(float64(x)) {
			*dropped = append(*dropped, path)
			return nil, false
		}
	case Fields:
		return finiteMap(x, path, dropped), true
	case map[string]any:
		return map[string]any(finiteMap(x, path, dropped)), true
	case []any:
		out := make([]any, 0, len(x))
		for i, e := range x {
			if e, ok := finiteValue(e, path+"["+strconv.Itoa(i)+"]", dropped); ok {
				out = append(out, e)
			}
		}
		return out, true
	}
	return v, true
}

// EventInput is the raw, caller-supplied description of an event.
type EventInput struct {
	EventType   string `json:"event_type" yaml:"event_type"`
	Scope       string `json:"geographic_scope,omitempty" yaml:"geographic_scope,omitempty"`
	DataQuality string `json:"data_quality,omitempty" yaml:"data_quality,omitempty"`
	Data        Fields `json:"event_data,omitempty" yaml:"event_data,omitempty"`
}

// NormalizedEvent is the standardized projection every agent consumes.
type NormalizedEvent struct {
	EventType             string      `json:"event_type"`
	Category              Category    `json:"event_category"`
	Severity              int         `json:"severity"`
	SeverityInferred      bool        `json:"severity_inferred"`
	EstimatedDurationDays int         `json:"estimated_duration_days"`
	Scope                 Scope       `json:"scope"`
	DataQuality           DataQuality `json:"data_quality"`
	ConfidencePenalty     float64     `json:"confidence_penalty"`
	Degradations          []string    `json:"degradations,omitempty"`
}

// ClampSeverity forces s into the valid 1..5 range.
func ClampSeverity(s int) int {
	if s < 1 {
		return 1
	}
	if s > 5 {
		return 5
	}
	return s
}
