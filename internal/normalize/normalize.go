// Package normalize turns a raw event description into the standardized
// NormalizedEvent every downstream stage consumes.
package normalize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/logging"
)

// MatchKind records how an event type was resolved to a category.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchToken MatchKind = "token"
	MatchFuzzy MatchKind = "fuzzy"
	MatchNone  MatchKind = "none"
)

// minFuzzyRunes is the shortest event type considered for approximate matching.
const minFuzzyRunes = 4

// MaxDurationDays caps a declared duration_days.
const MaxDurationDays = 3650

// DefaultSeverity is used when neither a declared severity nor any signal is available.
const DefaultSeverity = 3

// Options configures a Normalizer.
type Options struct {
	GenericPenalty   float64
	FuzzyMinCoverage float64
	Logger           *logging.Logger
}

// DefaultOptions returns the built-in settings.
func DefaultOptions() Options {
	return Options{
		GenericPenalty:   0.25,
		FuzzyMinCoverage: 0.6,
	}
}

// Normalizer resolves categories and infers missing attributes.
type Normalizer struct {
	opts Options
	keys []string
	log  *logging.Logger
}

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &Normalizer{opts: opts, keys: aliasKeys(), log: log}
}

// Normalize validates in and projects it onto a NormalizedEvent. Only a
// missing event type or an unparseable scope or quality tag is an error;
// everything else degrades with a note.
func (n *Normalizer) Normalize(in core.EventInput) (core.NormalizedEvent, error) {
	eventType := strings.TrimSpace(in.EventType)
	if eventType == "" {
		return core.NormalizedEvent{}, core.ErrValidation(core.CodeMissingEventType, "event_type is required")
	}

	out := core.NormalizedEvent{EventType: eventType}

	if strings.TrimSpace(in.Scope) == "" {
		out.Scope = core.ScopeNational
		out.Degradations = append(out.Degradations, "geographic_scope missing, assumed national")
	} else {
		scope, ok := core.ParseScope(in.Scope)
		if !ok {
			return core.NormalizedEvent{}, core.ErrValidation(core.CodeInvalidScope,
				fmt.Sprintf("geographic_scope %q must be one of local, regional, national, global", in.Scope)).
				WithDetail("geographic_scope", in.Scope)
		}
		out.Scope = scope
	}

	if strings.TrimSpace(in.DataQuality) == "" {
		out.DataQuality = core.DataQualityMedium
		out.Degradations = append(out.Degradations, "data_quality missing, assumed medium")
	} else {
		q, ok := core.ParseDataQuality(in.DataQuality)
		if !ok {
			return core.NormalizedEvent{}, core.ErrValidation(core.CodeInvalidDataQuality,
				fmt.Sprintf("data_quality %q must be one of low, medium, high", in.DataQuality)).
				WithDetail("data_quality", in.DataQuality)
		}
		out.DataQuality = q
	}

	category, kind := n.ResolveCategory(eventType)
	out.Category = category
	if kind == MatchNone {
		out.ConfidencePenalty = n.opts.GenericPenalty
		out.Degradations = append(out.Degradations,
			fmt.Sprintf("event type %q matched no known category, using generic analysis", eventType))
	}
	n.log.Debug("event type resolved", "event_type", eventType, "category", category, "match", kind)

	out.Severity, out.SeverityInferred = n.severity(category, in.Data)
	if out.SeverityInferred {
		if _, _, ok := inferSeverity(category, in.Data); !ok {
			out.Degradations = append(out.Degradations, "no severity signal available, assumed significant (3)")
		}
	}

	out.EstimatedDurationDays = defaultDurationDays[category]
	if d, ok := in.Data.Int("duration_days"); ok && d > 0 {
		out.EstimatedDurationDays = min(d, MaxDurationDays)
	}

	return out, nil
}

func (n *Normalizer) severity(c core.Category, data core.Fields) (int, bool) {
	if s, ok := data.Int("severity"); ok {
		return core.ClampSeverity(s), false
	}
	if s, _, ok := inferSeverity(c, data); ok {
		return s, true
	}
	return DefaultSeverity, true
}

// ResolveCategory maps a free-form event type onto a category: exact alias,
// then any alias token (bigrams first, ambiguous words skipped), then an
// approximate match.
func (n *Normalizer) ResolveCategory(eventType string) (core.Category, MatchKind) {
	key := canonicalKey(eventType)
	if key == "" {
		return core.CategoryGeneric, MatchNone
	}
	if c, ok := aliases[key]; ok {
		return c, MatchExact
	}

	tokens := strings.Split(key, "_")
	for i := 0; i+1 < len(tokens); i++ {
		if c, ok := aliases[tokens[i]+"_"+tokens[i+1]]; ok {
			return c, MatchToken
		}
	}
	for _, tok := range tokens {
		if exactOnly[tok] {
			continue
		}
		if c, ok := aliases[tok]; ok {
			return c, MatchToken
		}
	}

	if c, ok := n.fuzzyMatch(key); ok {
		return c, MatchFuzzy
	}
	return core.CategoryGeneric, MatchNone
}

// fuzzyMatch accepts the best-scoring alias that the key covers well enough,
// so abbreviations like "pandem" resolve but "war" does not swallow "software".
func (n *Normalizer) fuzzyMatch(key string) (core.Category, bool) {
	runes := utf8.RuneCountInString(key)
	if runes < minFuzzyRunes {
		return "", false
	}
	for _, m := range fuzzy.Find(key, n.keys) {
		coverage := float64(runes) / float64(utf8.RuneCountInString(m.Str))
		if coverage >= n.opts.FuzzyMinCoverage && coverage <= 1 {
			return aliases[m.Str], true
		}
	}
	return "", false
}
