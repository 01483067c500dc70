package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
)

// Progress prints pipeline events as they happen, one line each. It is
// meant for stderr so report output on stdout stays clean.
type Progress struct {
	writer  io.Writer
	style   Styler
	verbose bool
	mu      sync.Mutex
}

// NewProgress creates a progress printer. Verbose adds per-stage timings and
// individual role opinions.
func NewProgress(w io.Writer, style Styler, verbose bool) *Progress {
	return &Progress{writer: w, style: style, verbose: verbose}
}

// Run prints events from ch until it closes or ctx is done.
func (p *Progress) Run(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			p.Handle(e)
		}
	}
}

// Handle prints a single event.
func (p *Progress) Handle(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev := e.(type) {
	case events.AnalysisStartedEvent:
		label := ev.Input
		if ev.Scenario != "" {
			label = ev.Scenario + " (" + ev.Input + ")"
		}
		p.printf("▸ analysing %s\n", label)

	case events.StageCompletedEvent:
		if !p.verbose {
			return
		}
		note := ""
		if ev.Degraded {
			note = p.style.Muted(" degraded")
		}
		p.printf("  %-10s %s%s\n", ev.Stage, p.style.Muted(ev.Duration.Round(time.Microsecond).String()), note)

	case events.ConsensusStateEvent:
		if ev.To == "dispatched" && len(ev.Roles) > 0 {
			p.printf("  consensus: consulting %s\n", strings.Join(ev.Roles, ", "))
		}

	case events.RoleOpinionEvent:
		switch {
		case ev.Abstained:
			p.printf("  %s abstained: %s\n", ev.Role, ev.Reason)
		case p.verbose:
			verb := "estimates"
			if ev.Revised {
				verb = "revised to"
			}
			p.printf("  %s %s %.2f%% (severity %.1f)\n", ev.Role, verb, ev.ImpactPct, ev.Severity)
		}

	case events.ConsensusSynthesizedEvent:
		p.printf("  consensus: agreement %.2f, penalty %.2f\n", ev.AgreementScore, ev.Penalty)
		for _, d := range ev.Divergences {
			p.printf("  %s\n", p.style.Muted(fmt.Sprintf("divergence %s/%s (jaccard %.2f)", d.Role1, d.Role2, d.JaccardScore)))
		}

	case events.AnalysisCompletedEvent:
		p.printf("✓ %s risk, %.2f%% impact, confidence %.2f (%s)\n",
			p.style.Risk(core.RiskLevel(ev.RiskLevel)), ev.ImpactPct, ev.Confidence,
			ev.Duration.Round(time.Millisecond))

	case events.AnalysisFailedEvent:
		p.printf("%s\n", p.style.Error("✗ "+ev.Error))

	case events.ReferenceReloadedEvent:
		if ev.Error != "" {
			p.printf("%s\n", p.style.Error(fmt.Sprintf("reference reload of %s failed: %s", ev.Path, ev.Error)))
			return
		}
		p.printf("reference reloaded: %d events from %s\n", ev.Events, ev.Path)
	}
}

func (p *Progress) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.writer, format, args...)
}
