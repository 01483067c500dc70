package core

import (
	"encoding/json"
	"math"
	"testing"
)

func TestFields_Float(t *testing.T) {
	f := Fields{
		"f64":    3.5,
		"int":    2,
		"num":    json.Number("1.25"),
		"str":    " 0.01 ",
		"bad":    "abc",
		"flag":   true,
		"absent": nil,
	}

	tests := []struct {
		key    string
		want   float64
		wantOK bool
	}{
		{"f64", 3.5, true},
		{"int", 2, true},
		{"num", 1.25, true},
		{"str", 0.01, true},
		{"bad", 0, false},
		{"flag", 1, true},
		{"absent", 0, false},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := f.Float(tt.key)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Float(%q) = %v, %v; want %v, %v", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFields_NonFinite(t *testing.T) {
	f := Fields{
		"inf":    math.Inf(1),
		"neginf": math.Inf(-1),
		"nan32":  float32(math.NaN()),
		"str":    "+Inf",
		"num":    json.Number("NaN"),
	}
	for key := range f {
		if x, ok := f.Float(key); ok {
			t.Errorf("Float(%q) = %v, want absent", key, x)
		}
		if n, ok := f.Int(key); ok {
			t.Errorf("Int(%q) = %d, want absent", key, n)
		}
	}
}

func TestFields_IntSaturates(t *testing.T) {
	f := Fields{"huge": 1e300, "tiny": -1e300, "str": "1e20"}
	if n, ok := f.Int("huge"); !ok || n != maxFieldInt {
		t.Errorf("Int(huge) = %d, %v", n, ok)
	}
	if n, ok := f.Int("tiny"); !ok || n != -maxFieldInt {
		t.Errorf("Int(tiny) = %d, %v", n, ok)
	}
	if n, ok := f.Int("str"); !ok || n != maxFieldInt {
		t.Errorf("Int(str) = %d, %v", n, ok)
	}
	if ClampSeverity(maxFieldInt) != 5 {
		t.Errorf("saturated severity should clamp to 5")
	}
}

func TestFields_Finite(t *testing.T) {
	f := Fields{
		"r0":             math.Inf(1),
		"mortality_rate": 0.01,
		"label":          "inf",
		"nested":         map[string]any{"bad": math.NaN(), "ok": 2},
		"series":         []any{1.0, math.Inf(-1), 3.0},
	}

	got, dropped := f.Finite()

	want := []string{"nested.bad", "r0", "series[1]"}
	if len(dropped) != len(want) {
		t.Fatalf("dropped = %v, want %v", dropped, want)
	}
	for i := range want {
		if dropped[i] != want[i] {
			t.Errorf("dropped[%d] = %q, want %q", i, dropped[i], want[i])
		}
	}
	if got.Has("r0") || !got.Has("mortality_rate") || !got.Has("label") {
		t.Errorf("unexpected keys: %v", got)
	}
	if _, ok := f["r0"]; !ok {
		t.Errorf("Finite must not modify the receiver")
	}
	if _, err := json.Marshal(got); err != nil {
		t.Errorf("json.Marshal() error = %v", err)
	}
	if series := got["series"].([]any); len(series) != 2 {
		t.Errorf("series = %v", series)
	}
}

func TestFields_Bool(t *testing.T) {
	f := Fields{"a": false, "b": "yes", "c": "No", "d": 0.0, "e": "maybe"}

	if v, ok := f.Bool("a"); !ok || v {
		t.Errorf("Bool(a) = %v, %v", v, ok)
	}
	if v, ok := f.Bool("b"); !ok || !v {
		t.Errorf("Bool(b) = %v, %v", v, ok)
	}
	if v, ok := f.Bool("c"); !ok || v {
		t.Errorf("Bool(c) = %v, %v", v, ok)
	}
	if v, ok := f.Bool("d"); !ok || v {
		t.Errorf("Bool(d) = %v, %v", v, ok)
	}
	if _, ok := f.Bool("e"); ok {
		t.Errorf("Bool(e) should not parse")
	}
}

func TestFields_TextAndInt(t *testing.T) {
	f := Fields{"target_type": "  Financial ", "casualties": 12.6, "n": 3}
	if s, ok := f.Text("target_type"); !ok || s != "financial" {
		t.Errorf("Text() = %q, %v", s, ok)
	}
	if _, ok := f.Text("n"); ok {
		t.Errorf("Text() on a number should fail")
	}
	if n, ok := f.Int("casualties"); !ok || n != 13 {
		t.Errorf("Int() = %d, %v", n, ok)
	}
}

func TestParseScopeAndQuality(t *testing.T) {
	if s, ok := ParseScope("GLOBAL"); !ok || s != ScopeGlobal {
		t.Errorf("ParseScope(GLOBAL) = %q, %v", s, ok)
	}
	if _, ok := ParseScope("planetary"); ok {
		t.Errorf("ParseScope(planetary) should fail")
	}
	if q, ok := ParseDataQuality("high"); !ok || q != DataQualityHigh {
		t.Errorf("ParseDataQuality(high) = %q, %v", q, ok)
	}
	if DataQualityHigh.Lower() != DataQualityMedium || DataQualityLow.Lower() != DataQualityLow {
		t.Errorf("Lower() tiers are wrong")
	}
	if ScopeLocal.Index() != 0 || ScopeGlobal.Index() != 3 {
		t.Errorf("unexpected scope indices")
	}
}

func TestCategory_IsKnown(t *testing.T) {
	for _, c := range KnownCategories() {
		if !c.IsKnown() {
			t.Errorf("%s should be known", c)
		}
	}
	if CategoryGeneric.IsKnown() {
		t.Errorf("generic must not count as a known category")
	}
}

func TestClampSeverity(t *testing.T) {
	for in, want := range map[int]int{-2: 1, 0: 1, 3: 3, 5: 5, 9: 5} {
		if got := ClampSeverity(in); got != want {
			t.Errorf("ClampSeverity(%d) = %d, want %d", in, got, want)
		}
	}
}
