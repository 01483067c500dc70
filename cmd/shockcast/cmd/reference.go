package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/reference"
)

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Show the historical reference dataset",
	Long: `Show the historical comparables used by the agents and the ensemble.
Without --events only the per-category counts are printed. Set
reference.path in the config to use your own dataset, and --check to
validate such a file before pointing the config at it.`,
	RunE: runReference,
}

var (
	referenceCategory string
	referenceEvents   bool
	referenceCheck    string
	referenceJSON     bool
)

func init() {
	rootCmd.AddCommand(referenceCmd)

	f := referenceCmd.Flags()
	f.StringVarP(&referenceCategory, "category", "c", "", "only show events of this category")
	f.BoolVarP(&referenceEvents, "events", "e", false, "list individual events")
	f.StringVar(&referenceCheck, "check", "", "validate a reference file and exit")
	f.BoolVar(&referenceJSON, "json", false, "print events as JSON")
}

func runReference(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if referenceCheck != "" {
		evs, err := reference.LoadFile(referenceCheck)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d valid events\n", referenceCheck, len(evs))
		return nil
	}

	path := ""
	if appConfig != nil {
		path = appConfig.Reference.Path
	}
	store, err := reference.NewStore(path)
	if err != nil {
		return err
	}

	evs := append([]core.ReferenceEvent(nil), store.Events()...)
	if referenceCategory != "" {
		evs = reference.ByCategory(evs, core.Category(referenceCategory))
	}
	sort.SliceStable(evs, func(i, j int) bool {
		if evs[i].Year != evs[j].Year {
			return evs[i].Year < evs[j].Year
		}
		return evs[i].Name < evs[j].Name
	})

	if referenceJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(evs)
	}

	st := styler(out)
	source := "built-in dataset"
	if store.Path() != "" {
		source = store.Path()
	}
	fmt.Fprint(out, st.Header(fmt.Sprintf("Reference events: %d (%s)", len(evs), source)))
	fmt.Fprintln(out)

	if !referenceEvents {
		counts := reference.Counts(evs)
		cats := make([]string, 0, len(counts))
		for c := range counts {
			cats = append(cats, string(c))
		}
		sort.Strings(cats)
		rows := make([][]string, 0, len(cats))
		for _, c := range cats {
			rows = append(rows, []string{c, strconv.Itoa(counts[core.Category(c)])})
		}
		fmt.Fprintln(out, st.Table([]string{"Category", "Events"}, rows))
		return nil
	}

	rows := make([][]string, 0, len(evs))
	for _, e := range evs {
		rows = append(rows, []string{
			strconv.Itoa(e.Year),
			e.Name,
			string(e.Category),
			string(e.Scope),
			fmt.Sprintf("%d/5", e.Severity),
			fmt.Sprintf("%.1f%%", e.MarketImpactPct),
			strconv.Itoa(e.RecoveryDays),
		})
	}
	fmt.Fprintln(out, st.Table([]string{"Year", "Event", "Category", "Scope", "Severity", "Impact", "Recovery days"}, rows))
	return nil
}
