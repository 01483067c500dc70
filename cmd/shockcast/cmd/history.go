package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/shockcast/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/shockcast/internal/config"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and maintain the analysis history",
	Long: `List recent analyses recorded in the history database. The history feeds
the market-immunity adjustment and is only written when history.enabled is
set, but it can be inspected at any time.

Examples:
  shockcast history --limit 5
  shockcast history --prune-before 8760h --backup`,
	RunE: runHistory,
}

var (
	historyLimit       int
	historyPruneBefore string
	historyBackup      bool
	historyJSON        bool
)

func init() {
	rootCmd.AddCommand(historyCmd)

	f := historyCmd.Flags()
	f.IntVarP(&historyLimit, "limit", "n", 20, "number of analyses to list (0 for all)")
	f.StringVar(&historyPruneBefore, "prune-before", "", "delete analyses older than this duration, e.g. 8760h")
	f.BoolVar(&historyBackup, "backup", false, "write a backup copy next to the database first")
	f.BoolVar(&historyJSON, "json", false, "print records as JSON")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	if cfg == nil {
		cfg = config.Defaults()
	}
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	hs, err := state.NewHistoryStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer hs.Close()

	if historyBackup {
		if err := hs.Backup(ctx); err != nil {
			return fmt.Errorf("backing up history: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "backup written to %s\n", hs.BackupPath())
	}

	if historyPruneBefore != "" {
		age, err := time.ParseDuration(historyPruneBefore)
		if err != nil || age <= 0 {
			return fmt.Errorf("invalid --prune-before %q: expected a positive duration", historyPruneBefore)
		}
		n, err := hs.Prune(ctx, time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "pruned %d analyses\n", n)
	}

	recs, err := hs.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}

	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	if len(recs) == 0 {
		fmt.Fprintln(out, "No analyses recorded.")
		return nil
	}

	st := styler(out)
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.ID,
			r.EventType,
			string(r.Category),
			string(r.Scope),
			strconv.Itoa(r.Severity),
			fmt.Sprintf("%.2f%%", r.ImpactPct),
			st.Risk(r.RiskLevel),
		})
	}
	fmt.Fprintln(out, st.Table([]string{"When", "ID", "Event", "Category", "Scope", "Severity", "Impact", "Risk"}, rows))
	return nil
}
