// Package reference holds the historical comparables dataset that agents rank
// past events against.
package reference

import (
	_ "embed"
	"fmt"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
	"github.com/hugo-lorenzo-mato/shockcast/internal/fsutil"
	"github.com/hugo-lorenzo-mato/shockcast/internal/logging"
)

//go:embed events.yaml
var builtinYAML []byte

type dataset struct {
	Events []core.ReferenceEvent `yaml:"events"`
}

// Parse decodes and validates a YAML dataset.
func Parse(data []byte) ([]core.ReferenceEvent, error) {
	var ds dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decoding reference dataset: %w", err)
	}
	if len(ds.Events) == 0 {
		return nil, fmt.Errorf("reference dataset is empty")
	}

	var problems []string
	for i, e := range ds.Events {
		if msg := check(e); msg != "" {
			problems = append(problems, fmt.Sprintf("events[%d] %q: %s", i, e.Name, msg))
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid reference dataset: %s", strings.Join(problems, "; "))
	}
	return ds.Events, nil
}

func check(e core.ReferenceEvent) string {
	switch {
	case strings.TrimSpace(e.Name) == "":
		return "name required"
	case !e.Category.IsKnown():
		return fmt.Sprintf("unknown category %q", e.Category)
	case e.Severity < 1 || e.Severity > 5:
		return fmt.Sprintf("severity %d out of range 1..5", e.Severity)
	case e.RecoveryDays < 0:
		return "recovery_days must be non-negative"
	}
	if _, ok := core.ParseScope(string(e.Scope)); !ok {
		return fmt.Sprintf("unknown scope %q", e.Scope)
	}
	return ""
}

// Builtin returns the embedded dataset.
func Builtin() []core.ReferenceEvent {
	evs, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded reference dataset: %v", err))
	}
	return evs
}

// LoadFile reads a dataset from disk.
func LoadFile(path string) ([]core.ReferenceEvent, error) {
	data, err := fsutil.ReadFileScoped(path, fsutil.MaxInputBytes)
	if err != nil {
		return nil, core.ErrNotFound("reference dataset", path).WithCause(err)
	}
	evs, err := Parse(data)
	if err != nil {
		return nil, core.ErrValidation(core.CodeReferenceLoad, fmt.Sprintf("reference dataset %s is invalid", path)).
			WithCause(err).
			WithDetail("path", path)
	}
	return evs, nil
}

// Store is a core.ReferenceSource whose dataset can be swapped at runtime.
// Readers never block and always see a complete dataset.
type Store struct {
	current   atomic.Pointer[[]core.ReferenceEvent]
	path      string
	logger    *logging.Logger
	publisher events.Publisher
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for reload reports.
func WithLogger(l *logging.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithPublisher sets where reload events are published.
func WithPublisher(p events.Publisher) StoreOption {
	return func(s *Store) { s.publisher = p }
}

// NewStore loads the dataset at path, or the built-in dataset when path is empty.
func NewStore(path string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		path:      path,
		logger:    logging.NewNop(),
		publisher: events.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}

	evs := Builtin()
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		evs = loaded
	}
	s.current.Store(&evs)
	return s, nil
}

// NewStaticStore wraps a fixed dataset. Reload is a no-op.
func NewStaticStore(evs []core.ReferenceEvent) *Store {
	s := &Store{logger: logging.NewNop(), publisher: events.Discard}
	s.current.Store(&evs)
	return s
}

// Events implements core.ReferenceSource.
func (s *Store) Events() []core.ReferenceEvent {
	return *s.current.Load()
}

// Path returns the backing file, empty for the built-in dataset.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the backing file. On failure the previous dataset stays active.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	evs, err := LoadFile(s.path)
	s.publisher.Publish(events.NewReferenceReloadedEvent(s.path, len(evs), err))
	if err != nil {
		s.logger.Warn("reference reload failed, keeping previous dataset", "path", s.path, "error", err)
		return err
	}
	s.current.Store(&evs)
	s.logger.Info("reference dataset reloaded", "path", s.path, "events", len(evs))
	return nil
}

// Counts returns the number of events per category.
func Counts(evs []core.ReferenceEvent) map[core.Category]int {
	out := make(map[core.Category]int)
	for _, e := range evs {
		out[e.Category]++
	}
	return out
}
