// Package report renders analysis results as JSON or markdown and delivers
// them to a file, the terminal or the clipboard.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// forecastCheckpoints are the days sampled into the text forecast table.
var forecastCheckpoints = []int{0, 7, 30, 90, 180, 365, 730}

// Render formats result as json or text.
func Render(result *core.AnalysisResult, format string) ([]byte, error) {
	if result == nil {
		return nil, core.ErrExecution(core.CodeExportFailed, "no analysis result to export")
	}
	switch format {
	case core.FormatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, core.ErrExecution(core.CodeExportFailed, "encoding result").WithCause(err)
		}
		return append(data, '\n'), nil
	case core.FormatText:
		return []byte(RenderText(result)), nil
	default:
		return nil, core.ErrValidation(core.CodeInvalidFormat,
			fmt.Sprintf("format %q must be one of json, text", format)).WithDetail("format", format)
	}
}

// RenderText renders result as markdown with a YAML frontmatter header.
func RenderText(r *core.AnalysisResult) string {
	risk := r.Risk

	var sb strings.Builder
	sb.WriteString(header(r).Render())

	fmt.Fprintf(&sb, "# Market Shock Analysis: %s\n\n", r.Normalized.EventType)
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Risk level | %s |\n", strings.ToUpper(string(risk.OverallRiskLevel)))
	fmt.Fprintf(&sb, "| Category | %s |\n", r.Normalized.Category)
	fmt.Fprintf(&sb, "| Scope | %s |\n", r.Normalized.Scope)
	fmt.Fprintf(&sb, "| Severity | %d/5 |\n", risk.SeverityScore)
	fmt.Fprintf(&sb, "| Predicted impact | %s |\n", pct(risk.PredictedMarketImpactPct))
	fmt.Fprintf(&sb, "| Estimated recovery | %d days |\n", risk.EstimatedRecoveryDays)
	fmt.Fprintf(&sb, "| Confidence | %.0f%% |\n", risk.Confidence*100)
	fmt.Fprintf(&sb, "| Immediate action | %s |\n", yesNo(risk.ImmediateActionsRequired))

	bullets(&sb, "Key Risks", risk.KeyRisks)
	bullets(&sb, "Recommended Actions", risk.RecommendedActions)
	writeSectors(&sb, r.Finding.SectoralImpact)
	writeForecast(&sb, r.Forecast)
	writeEnsemble(&sb, r.Ensemble)
	if r.Consensus != nil {
		writeConsensus(&sb, r.Consensus)
	}
	writeImmunity(&sb, r.Immunity)
	writeComparisons(&sb, r.Finding.HistoricalComparisons)

	notes := append(append([]string(nil), r.Normalized.Degradations...), r.Finding.Degradations...)
	bullets(&sb, "Notes", notes)

	return sb.String()
}

func header(r *core.AnalysisResult) *Frontmatter {
	fm := NewFrontmatter()
	fm.Set("analysis_id", r.ID)
	if !r.CreatedAt.IsZero() {
		fm.Set("created_at", r.CreatedAt)
	}
	fm.Set("event_type", r.Normalized.EventType)
	fm.Set("category", string(r.Normalized.Category))
	fm.Set("risk_level", string(r.Risk.OverallRiskLevel))
	fm.Set("severity", r.Risk.SeverityScore)
	fm.Set("impact_pct", round2(r.Risk.PredictedMarketImpactPct))
	fm.Set("confidence", round2(r.Risk.Confidence))
	return fm
}

func bullets(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
}

func writeSectors(sb *strings.Builder, sectors map[string]float64) {
	if len(sectors) == 0 {
		return
	}
	names := make([]string, 0, len(sectors))
	for name := range sectors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := math.Abs(sectors[names[i]]), math.Abs(sectors[names[j]])
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})

	sb.WriteString("\n## Sector Impact\n\n")
	sb.WriteString("| Sector | Impact |\n")
	sb.WriteString("|--------|--------|\n")
	for _, name := range names {
		fmt.Fprintf(sb, "| %s | %s |\n", name, pct(sectors[name]))
	}
}

func writeForecast(sb *strings.Builder, f core.Forecast) {
	if len(f.Points) == 0 {
		return
	}
	sb.WriteString("\n## Forecast\n\n")
	fmt.Fprintf(sb, "Peak impact of %s on day %d; ", pct(f.PeakImpactPct), f.PeakImpactDay)
	if f.Recovered {
		fmt.Fprintf(sb, "full recovery by day %d.\n\n", f.FullRecoveryDay)
	} else {
		fmt.Fprintf(sb, "no full recovery within %d days.\n\n", f.Points[len(f.Points)-1].Day)
	}

	sb.WriteString("| Day | Impact | Phase |\n")
	sb.WriteString("|-----|--------|-------|\n")
	next := 0
	for _, p := range f.Points {
		if next == len(forecastCheckpoints) {
			break
		}
		if p.Day < forecastCheckpoints[next] {
			continue
		}
		for next < len(forecastCheckpoints) && forecastCheckpoints[next] <= p.Day {
			next++
		}
		fmt.Fprintf(sb, "| %d | %s | %s |\n", p.Day, pct(p.PredictedImpactPct), strings.ReplaceAll(string(p.Phase), "_", " "))
	}
}

func writeEnsemble(sb *strings.Builder, e core.EnsemblePrediction) {
	if len(e.Models) == 0 {
		return
	}
	sb.WriteString("\n## Ensemble\n\n")
	sb.WriteString("| Model | Impact | Confidence |\n")
	sb.WriteString("|-------|--------|------------|\n")
	for _, m := range e.Models {
		fmt.Fprintf(sb, "| %s | %s | %.0f%% |\n", m.ModelName, pct(m.PredictedImpactPct), m.Confidence*100)
	}
	fmt.Fprintf(sb, "\nModel agreement: %.0f%%\n", e.ModelAgreement*100)
	if len(e.Abstained) > 0 {
		fmt.Fprintf(sb, "Abstained: %s\n", strings.Join(e.Abstained, ", "))
	}
}

func writeConsensus(sb *strings.Builder, c *core.ConsensusOutcome) {
	sb.WriteString("\n## Consensus\n\n")
	if !c.Applied {
		sb.WriteString("All roles abstained; the rule-based estimate stands.\n")
	}
	fmt.Fprintf(sb, "Agreement %.0f%%, abstention penalty %.2f.\n\n", c.AgreementScore*100, c.Penalty)
	sb.WriteString("| Role | Severity | Impact | Confidence | Revised |\n")
	sb.WriteString("|------|----------|--------|------------|---------|\n")
	for _, o := range c.Opinions {
		fmt.Fprintf(sb, "| %s | %.1f | %s | %.0f%% | %s |\n", o.Role, o.Severity, pct(o.ImpactPct), o.Confidence*100, yesNo(o.Revised))
	}
	if len(c.Abstained) > 0 {
		fmt.Fprintf(sb, "\nAbstained: %s\n", strings.Join(c.Abstained, ", "))
	}
}

func writeImmunity(sb *strings.Builder, im core.ImmunityAdjustment) {
	sb.WriteString("\n## Market Immunity\n\n")
	fmt.Fprintf(sb, "%d prior similar events (%s), factor %.3f: %s becomes %s.\n",
		im.Context.PriorSimilarEventCount, im.Context.Source, im.Factor,
		pct(im.BaseImpactPct), pct(im.AdjustedImpactPct))
}

func writeComparisons(sb *strings.Builder, comps []core.HistoricalComparison) {
	if len(comps) == 0 {
		return
	}
	sb.WriteString("\n## Historical Comparisons\n\n")
	for _, c := range comps {
		fmt.Fprintf(sb, "- %s (%d): %s, recovered in %d days, similarity %.2f\n",
			c.Name, c.Year, pct(c.MarketImpactPct), c.RecoveryDays, c.Similarity)
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
