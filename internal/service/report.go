package service

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// ReportGenerator renders the metrics a long-running process has collected.
type ReportGenerator struct {
	metrics *MetricsCollector
}

// NewReportGenerator creates a new report generator.
func NewReportGenerator(metrics *MetricsCollector) *ReportGenerator {
	return &ReportGenerator{metrics: metrics}
}

// GenerateTextReport writes a plain-text activity report.
func (r *ReportGenerator) GenerateTextReport(w io.Writer) error {
	totals := r.metrics.GetTotals()

	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "ANALYSIS ACTIVITY")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "  Uptime:            %s\n", time.Since(totals.StartTime).Round(time.Second))
	fmt.Fprintf(w, "  Analyses:          %d\n", totals.Analyses)
	fmt.Fprintf(w, "  Rejected:          %d\n", totals.Failed)
	fmt.Fprintf(w, "  Degraded:          %d\n", totals.Degraded)
	fmt.Fprintf(w, "  Consensus Runs:    %d\n", totals.ConsensusRuns)
	fmt.Fprintf(w, "  Scenario Batches:  %d\n", totals.ScenarioBatches)
	fmt.Fprintf(w, "  Avg Duration:      %s\n", totals.AvgDuration.Round(time.Microsecond))
	fmt.Fprintf(w, "  Abstained Models:  %d\n", totals.AbstainedModels)
	fmt.Fprintf(w, "  History Errors:    %d\n", totals.HistoryErrors)
	fmt.Fprintln(w, "")

	r.writeRiskLevels(w, totals.RiskLevels)
	if err := r.writeStageTable(w); err != nil {
		return err
	}
	if err := r.writeRoleTable(w); err != nil {
		return err
	}

	fmt.Fprintln(w, strings.Repeat("=", 60))
	return nil
}

func (r *ReportGenerator) writeRiskLevels(w io.Writer, levels map[string]int) {
	if len(levels) == 0 {
		return
	}
	fmt.Fprintln(w, "RISK LEVELS")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for _, level := range []core.RiskLevel{core.RiskLow, core.RiskModerate, core.RiskHigh, core.RiskCritical} {
		if n := levels[string(level)]; n > 0 {
			fmt.Fprintf(w, "  %-18s %d\n", string(level)+":", n)
		}
	}
	fmt.Fprintln(w, "")
}

// writeStageTable writes stages in pipeline order.
func (r *ReportGenerator) writeStageTable(w io.Writer) error {
	stages := r.metrics.GetAllStageMetrics()
	if len(stages) == 0 {
		return nil
	}

	fmt.Fprintln(w, "STAGES")
	fmt.Fprintln(w, strings.Repeat("-", 40))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  Stage\tRuns\tDegraded\tAvg\tMax")
	fmt.Fprintln(tw, "  -----\t----\t--------\t---\t---")
	for _, name := range core.Stages {
		sm, ok := stages[name]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%s\t%s\n",
			sm.Stage,
			sm.Runs,
			sm.Degraded,
			sm.AvgDuration.Round(time.Microsecond),
			sm.MaxDuration.Round(time.Microsecond),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, "")
	return nil
}

func (r *ReportGenerator) writeRoleTable(w io.Writer) error {
	roles := r.metrics.GetRoleMetrics()
	if len(roles) == 0 {
		return nil
	}
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "CONSENSUS ROLES")
	fmt.Fprintln(w, strings.Repeat("-", 40))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  Role\tCalls\tAbstained\tTimeouts\tRevised\tAvg")
	fmt.Fprintln(tw, "  ----\t-----\t---------\t--------\t-------\t---")
	for _, name := range names {
		rm := roles[name]
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%d\t%s\n",
			truncate(rm.Role, 20),
			rm.Invocations,
			rm.Abstentions,
			rm.Timeouts,
			rm.Revisions,
			rm.AvgDuration.Round(time.Microsecond),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, "")
	return nil
}

// GenerateJSONReport writes the metrics snapshot as indented JSON.
func (r *ReportGenerator) GenerateJSONReport(w io.Writer) error {
	report := Report{
		GeneratedAt: time.Now().UTC(),
		Snapshot:    r.metrics.Snapshot(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// GenerateSummary generates a brief summary string.
func (r *ReportGenerator) GenerateSummary() string {
	t := r.metrics.GetTotals()
	return fmt.Sprintf(
		"Analyses: %d (%d rejected, %d degraded) | Scenario batches: %d | Critical: %d",
		t.Analyses,
		t.Failed,
		t.Degraded,
		t.ScenarioBatches,
		t.RiskLevels[string(core.RiskCritical)],
	)
}

// Report is the serialized form of an activity report.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Snapshot
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
