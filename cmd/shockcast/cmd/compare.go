package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/service"
	"github.com/hugo-lorenzo-mato/shockcast/internal/tui"
)

var compareCmd = &cobra.Command{
	Use:   "compare <scenarios-file>",
	Short: "Analyze several scenarios and rank them by severity",
	Long: `Analyze every scenario in a YAML or JSON file concurrently and rank them
by predicted impact. The file holds a list of scenarios, or a mapping with
a "scenarios" key; each scenario takes the same fields as an analyze input
plus a name. Use - to read from stdin.

Example file:
  scenarios:
    - name: second wave
      event_type: pandemic
      geographic_scope: global
      event_data: {r0: 2.1}
    - name: grid attack
      event_type: cyber
      geographic_scope: national`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

var compareFormat string

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVarP(&compareFormat, "format", "f", "table", "output format: table, json")
}

func runCompare(cmd *cobra.Command, args []string) error {
	if compareFormat != "table" && compareFormat != core.FormatJSON {
		return core.ErrValidation(core.CodeInvalidFormat, "format must be table or json")
	}

	var (
		scenarios []service.Scenario
		err       error
	)
	if args[0] == "-" {
		data, readErr := io.ReadAll(cmd.InOrStdin())
		if readErr != nil {
			return fmt.Errorf("reading scenarios: %w", readErr)
		}
		scenarios, err = service.ParseScenarios(data)
	} else {
		scenarios, err = service.LoadScenarios(args[0])
	}
	if err != nil {
		return err
	}

	s, err := newSession(appConfig)
	if err != nil {
		return err
	}
	defer s.Close()

	stop := startProgress(cmd.Context(), s.bus, cmd.ErrOrStderr(), false)
	cmp, err := s.analyzer.CompareScenarios(cmd.Context(), scenarios)
	stop()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if compareFormat == core.FormatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cmp)
	}
	fmt.Fprint(out, renderComparison(styler(out), cmp))
	return nil
}

func renderComparison(st tui.Styler, cmp core.Comparison) string {
	headers := []string{"Rank", "Scenario", "Category", "Risk", "Severity", "Impact", "Recovery", "Confidence"}
	rows := make([][]string, 0, len(cmp.Ranked))
	for _, r := range cmp.Ranked {
		if r.Result == nil {
			rows = append(rows, []string{strconv.Itoa(r.Rank), r.Name, "-", st.Error("FAILED"), "-", "-", "-", "-"})
			continue
		}
		res := r.Result
		recovery := "not within horizon"
		if res.Forecast.Recovered {
			recovery = fmt.Sprintf("%d days", res.Risk.EstimatedRecoveryDays)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Rank),
			r.Name,
			string(res.Normalized.Category),
			st.Risk(res.Risk.OverallRiskLevel),
			fmt.Sprintf("%d/5", res.Risk.SeverityScore),
			fmt.Sprintf("%.2f%%", res.Risk.PredictedMarketImpactPct),
			recovery,
			fmt.Sprintf("%.0f%%", res.Risk.Confidence*100),
		})
	}

	out := st.Table(headers, rows) + "\n"
	if cmp.MostSevere != nil {
		out += fmt.Sprintf("\nMost severe: %s\n", cmp.MostSevere.Name)
	}
	for _, r := range cmp.Ranked {
		if r.Error != "" {
			out += st.Muted(fmt.Sprintf("%s failed: %s", r.Name, r.Error)) + "\n"
		}
	}
	return out
}

