package logging

import (
	"regexp"
)

// redactionRule replaces the secret part of a match and keeps the label in
// front of it, so "apikey=..." still reads as an API key in the logs.
type redactionRule struct {
	re   *regexp.Regexp
	keep bool
}

// builtinRules cover the credentials that reach shockcast logs: vendor keys
// in reference-feed URLs, bearer tokens forwarded by API clients and
// passwords embedded in history DSNs.
var builtinRules = []struct {
	pattern string
	keep    bool
}{
	{`(?i)((?:apikey|api_key|access_key)=)[A-Za-z0-9._-]{8,}`, true},
	{`(?i)(bearer\s+)[a-zA-Z0-9._-]{20,}`, true},
	{`(?i)(api[_-]?key["'\s:=]+)[a-zA-Z0-9_-]{20,}`, true},
	{`(?i)(secret["'\s:=]+)[a-zA-Z0-9_-]{20,}`, true},
	{`(?i)(password["'\s:=]+)[^\s"']{8,}`, true},
	{`(?i)(token["'\s:=]+)[a-zA-Z0-9_-]{20,}`, true},
	{`(://[^/\s:@]+:)[^/\s@]+(@)`, true},
}

// Sanitizer redacts credentials from log text.
type Sanitizer struct {
	rules       []redactionRule
	placeholder string
}

// NewSanitizer creates a sanitizer with the built-in rules.
func NewSanitizer() *Sanitizer {
	s := &Sanitizer{placeholder: "[REDACTED]"}
	for _, r := range builtinRules {
		s.rules = append(s.rules, redactionRule{re: regexp.MustCompile(r.pattern), keep: r.keep})
	}
	return s
}

// Sanitize returns input with every match redacted.
func (s *Sanitizer) Sanitize(input string) string {
	for _, r := range s.rules {
		if !r.re.MatchString(input) {
			continue
		}
		if !r.keep {
			input = r.re.ReplaceAllString(input, s.placeholder)
			continue
		}
		input = r.re.ReplaceAllStringFunc(input, func(m string) string {
			sub := r.re.FindStringSubmatch(m)
			out := sub[1] + s.placeholder
			if len(sub) > 2 {
				out += sub[2]
			}
			return out
		})
	}
	return input
}

// SanitizeMap redacts string values in m, recursing into nested maps.
func (s *Sanitizer) SanitizeMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			out[k] = s.Sanitize(val)
		case map[string]interface{}:
			out[k] = s.SanitizeMap(val)
		default:
			out[k] = v
		}
	}
	return out
}

// AddPattern adds a rule that redacts whole matches.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.rules = append(s.rules, redactionRule{re: re})
	return nil
}
