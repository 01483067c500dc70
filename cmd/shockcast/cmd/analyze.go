package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/shockcast/internal/clip"
	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
	"github.com/hugo-lorenzo-mato/shockcast/internal/service"
	"github.com/hugo-lorenzo-mato/shockcast/internal/service/report"
	"github.com/hugo-lorenzo-mato/shockcast/internal/tui"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [event-type]",
	Short: "Analyze the market impact of a shock event",
	Long: `Analyze a single shock event and export the risk report.

The event is described with flags, or read from a YAML/JSON file with
--input (use - for stdin). Flags override values from the file.

Examples:
  # Quick look at a global pandemic
  shockcast analyze pandemic --scope global --data r0=2.8 --data mortality_rate=0.02

  # Cross-check with the multi-role consensus layer and save as JSON
  shockcast analyze --input event.yaml --consensus -f json -o report.json

  # Copy the markdown report to the clipboard
  shockcast analyze "regional bank run" --scope national -o clipboard`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeInput     string
	analyzeScope     string
	analyzeQuality   string
	analyzeData      []string
	analyzePrior     int
	analyzeConsensus bool
	analyzeFormat    string
	analyzeOutput    string
	analyzeVerbose   bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeInput, "input", "i", "", "read the event from a YAML or JSON file (- for stdin)")
	f.StringVar(&analyzeScope, "scope", "", "geographic scope: local, regional, national, global")
	f.StringVar(&analyzeQuality, "quality", "", "data quality: low, medium, high")
	f.StringArrayVarP(&analyzeData, "data", "d", nil, "event attribute as key=value (repeatable)")
	f.IntVar(&analyzePrior, "prior", 0, "number of prior similar events, overriding history lookup")
	f.BoolVar(&analyzeConsensus, "consensus", false, "run the multi-role consensus layer")
	f.StringVarP(&analyzeFormat, "format", "f", "", "report format: text, json (default from config)")
	f.StringVarP(&analyzeOutput, "output", "o", "", "destination: - (stdout), clipboard, or a file path (default from config)")
	f.BoolVarP(&analyzeVerbose, "verbose", "v", false, "show per-stage timings and role opinions")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(cmd, args)
	if err != nil {
		return err
	}

	s, err := newSession(appConfig)
	if err != nil {
		return err
	}
	defer s.Close()

	stop := startProgress(cmd.Context(), s.bus, cmd.ErrOrStderr(), analyzeVerbose)
	result, err := s.analyzer.Analyze(cmd.Context(), req)
	stop()
	if err != nil {
		return err
	}

	format := analyzeFormat
	if format == "" {
		format = s.cfg.Report.Format
	}
	dest := analyzeOutput
	if dest == "" {
		dest = s.cfg.Report.Destination
	}
	return exportResult(cmd, s, result, format, dest)
}

// buildRequest merges --input, the positional event type and flags.
func buildRequest(cmd *cobra.Command, args []string) (service.AnalyzeRequest, error) {
	var req service.AnalyzeRequest
	if analyzeInput != "" {
		loaded, err := readRequest(cmd.InOrStdin(), analyzeInput)
		if err != nil {
			return req, err
		}
		req = loaded
	}

	if len(args) == 1 {
		req.EventType = args[0]
	}
	if analyzeScope != "" {
		req.Scope = analyzeScope
	}
	if analyzeQuality != "" {
		req.DataQuality = analyzeQuality
	}

	data, err := parseData(analyzeData)
	if err != nil {
		return req, err
	}
	if len(data) > 0 {
		if req.Data == nil {
			req.Data = core.Fields{}
		}
		for k, v := range data {
			req.Data[k] = v
		}
	}

	if cmd.Flags().Changed("prior") {
		if analyzePrior < 0 {
			return req, fmt.Errorf("--prior must be non-negative")
		}
		prior := analyzePrior
		req.Options.PriorSimilarEventCount = &prior
	}
	if cmd.Flags().Changed("consensus") {
		consensus := analyzeConsensus
		req.Options.Consensus = &consensus
	}
	return req, nil
}

func readRequest(stdin io.Reader, path string) (service.AnalyzeRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return service.AnalyzeRequest{}, fmt.Errorf("reading event: %w", err)
	}

	var req service.AnalyzeRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, core.ErrValidation(core.CodeInvalidFormat, "event file is not valid YAML or JSON").WithCause(err)
	}
	return req, nil
}

// parseData turns key=value pairs into event attributes. Values are decoded
// as YAML scalars so numbers and booleans keep their type.
func parseData(pairs []string) (core.Fields, error) {
	out := core.Fields{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --data %q, expected key=value", pair)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
			v = raw
		}
		switch v.(type) {
		case map[string]any, []any:
			v = raw
		}
		out[key] = v
	}
	return out, nil
}

// startProgress prints bus events to w until the returned stop is called.
func startProgress(ctx context.Context, bus *events.EventBus, w io.Writer, verbose bool) func() {
	if quiet {
		return func() {}
	}
	ch := bus.Subscribe()
	p := tui.NewProgress(w, styler(w), verbose)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx, ch)
	}()
	return func() {
		bus.Unsubscribe(ch)
		<-done
	}
}

func exportResult(cmd *cobra.Command, s *session, result *core.AnalysisResult, format, dest string) error {
	opts := []report.Option{report.WithLogger(s.logger)}
	out := cmd.OutOrStdout()
	if f, ok := out.(*os.File); ok && f == os.Stdout {
		opts = append(opts, report.WithWordWrap(tui.TerminalWidth()))
		if noColor {
			opts = append(opts, report.WithTerminal(false))
		}
	} else {
		opts = append(opts, report.WithStdout(out))
	}

	outcome, err := report.New(opts...).Export(result, format, dest)
	if err != nil {
		return err
	}

	if quiet {
		return nil
	}
	switch {
	case outcome.Clipboard != "":
		fmt.Fprintln(cmd.ErrOrStderr(), clip.Result{Method: outcome.Clipboard, FilePath: outcome.Path}.Describe())
	case outcome.Path != "":
		fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s (%d bytes)\n", outcome.Path, outcome.Bytes)
	}
	return nil
}
