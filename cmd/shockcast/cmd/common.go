package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hugo-lorenzo-mato/shockcast/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/shockcast/internal/config"
	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
	"github.com/hugo-lorenzo-mato/shockcast/internal/logging"
	"github.com/hugo-lorenzo-mato/shockcast/internal/reference"
	"github.com/hugo-lorenzo-mato/shockcast/internal/service"
	"github.com/hugo-lorenzo-mato/shockcast/internal/tui"
)

// session wires the analyzer and its collaborators for one command.
type session struct {
	cfg       *config.Config
	logger    *logging.Logger
	bus       *events.EventBus
	metrics   *service.MetricsCollector
	reference *reference.Store
	history   *state.SQLiteHistoryStore
	analyzer  *service.Analyzer

	closers []func() error
}

func newSession(cfg *config.Config) (*session, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &session{
		cfg:     cfg,
		bus:     events.New(256),
		metrics: service.NewMetricsCollector(),
	}
	s.closers = append(s.closers, func() error { s.bus.Close(); return nil })

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.logger = logger
	s.closers = append(s.closers, closeLog)

	s.reference, err = reference.NewStore(cfg.Reference.Path,
		reference.WithLogger(logger.With("component", "reference")),
		reference.WithPublisher(s.bus),
	)
	if err != nil {
		s.Close()
		return nil, err
	}

	deps := service.Deps{
		Reference: s.reference,
		Publisher: s.bus,
		Metrics:   s.metrics,
		Logger:    logger,
	}
	if cfg.History.Enabled {
		s.history, err = state.NewHistoryStore(cfg.History.Path)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("opening history: %w", err)
		}
		hs := s.history
		s.closers = append(s.closers, func() error { return state.CloseHistoryStore(hs) })
		deps.History = hs
	}

	s.analyzer, err = service.NewAnalyzer(cfg, deps)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases resources in reverse order of acquisition.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// newLogger logs to stderr, or appends to log.file when set, so reports on
// stdout stay clean.
func newLogger(cfg config.LogConfig) (*logging.Logger, func() error, error) {
	var out io.Writer = os.Stderr
	closeFn := func() error { return nil }
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeFn = f.Close
	}
	return logging.New(logging.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: out,
	}), closeFn, nil
}

// styler picks colored or plain output for w.
func styler(w io.Writer) tui.Styler {
	if w != io.Writer(os.Stdout) {
		return tui.NewStyler(false)
	}
	return tui.NewStyler(tui.NewDetector().NoColor(noColor).ShouldUseColor())
}
