package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// Scenario is one named hypothetical in a comparison.
type Scenario struct {
	Name           string `json:"name" yaml:"name"`
	AnalyzeRequest `yaml:",inline"`
}

// CompareScenarios analyses every scenario concurrently and ranks them. A
// scenario that fails is kept in the ranking with its error and never aborts
// the batch.
func (a *Analyzer) CompareScenarios(ctx context.Context, scenarios []Scenario) (core.Comparison, error) {
	if len(scenarios) == 0 {
		return core.Comparison{}, core.ErrValidation(core.CodeNoScenarios, "at least one scenario is required")
	}

	results := make([]core.ScenarioResult, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxParallel)
	for i, sc := range scenarios {
		name := sc.Name
		if name == "" {
			name = fmt.Sprintf("scenario-%d", i+1)
		}
		results[i] = core.ScenarioResult{Name: name, Index: i}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Error = err.Error()
				return nil
			}
			res, err := a.analyze(gctx, sc.AnalyzeRequest, name)
			if err != nil {
				results[i].Error = err.Error()
				a.log.WithScenario(name).Warn("scenario failed", "error", err)
				return nil
			}
			results[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	if a.metrics != nil {
		a.metrics.RecordScenarioBatch()
	}
	return RankScenarios(results), nil
}

// RankScenarios orders results by impact magnitude, then severity, both
// descending, then lower confidence first, then input order. Ranks start at 1.
func RankScenarios(results []core.ScenarioResult) core.Comparison {
	ranked := append([]core.ScenarioResult(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if ma, mb := math.Abs(a.ImpactPct()), math.Abs(b.ImpactPct()); ma != mb {
			return ma > mb
		}
		if a.Severity() != b.Severity() {
			return a.Severity() > b.Severity()
		}
		if a.Confidence() != b.Confidence() {
			return a.Confidence() < b.Confidence()
		}
		return a.Index < b.Index
	})

	out := core.Comparison{Ranked: ranked}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	if len(ranked) > 0 && ranked[0].Result != nil {
		out.MostSevere = &ranked[0]
	}
	return out
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// ParseScenarios reads a YAML or JSON document holding either a list of
// scenarios or a mapping with a "scenarios" key.
func ParseScenarios(data []byte) ([]Scenario, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, core.ErrValidation(core.CodeNoScenarios, "scenario document is empty")
	}

	var list []Scenario
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc scenarioFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, core.ErrValidation(core.CodeNoScenarios, "scenario document is neither a list nor a mapping with a scenarios key").WithCause(err)
	}
	return doc.Scenarios, nil
}

// LoadScenarios reads scenarios from path.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios: %w", err)
	}
	return ParseScenarios(data)
}
