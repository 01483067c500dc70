package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// sensitiveKeys are attribute keys whose values are dropped whatever they hold.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"password":      true,
	"secret":        true,
	"token":         true,
}

// SanitizingHandler redacts credentials before records reach the wrapped handler.
type SanitizingHandler struct {
	next slog.Handler
	s    *Sanitizer
}

// NewSanitizingHandler wraps next.
func NewSanitizingHandler(next slog.Handler, s *Sanitizer) *SanitizingHandler {
	return &SanitizingHandler{next: next, s: s}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.s.Sanitize(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.clean(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleaned := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		cleaned = append(cleaned, h.clean(a))
	}
	return &SanitizingHandler{next: h.next.WithAttrs(cleaned), s: h.s}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name), s: h.s}
}

// clean redacts sensitive keys outright and scrubs string and error values.
func (h *SanitizingHandler) clean(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, h.s.placeholder)
	}
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.s.Sanitize(a.Value.String()))
	case slog.KindGroup:
		group := a.Value.Group()
		cleaned := make([]slog.Attr, len(group))
		for i, g := range group {
			cleaned[i] = h.clean(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cleaned...)}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, h.s.Sanitize(err.Error()))
		}
	}
	return a
}

// tagKeys are lifted out of the attributes into the bracketed line prefix,
// in this order.
var tagKeys = []string{"analysis_id", "scenario", "stage", "role"}

type prettyAttr struct {
	prefix string
	attr   slog.Attr
}

// PrettyHandler writes one compact line per record for terminals:
//
//	15:04:05 INF [3f2a9c1e ensemble] model abstained model=evt category=cyber
//
// Colors follow the capabilities of the output writer.
type PrettyHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	attrs  []prettyAttr
	prefix string

	levels map[slog.Level]lipgloss.Style
	key    lipgloss.Style
	tag    lipgloss.Style
}

// NewPrettyHandler creates a handler writing records at or above level to w.
func NewPrettyHandler(w io.Writer, level slog.Leveler) *PrettyHandler {
	r := lipgloss.NewRenderer(w)
	return &PrettyHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
		levels: map[slog.Level]lipgloss.Style{
			slog.LevelDebug: r.NewStyle().Foreground(lipgloss.Color("8")),
			slog.LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("4")),
			slog.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("3")),
			slog.LevelError: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		},
		key: r.NewStyle().Foreground(lipgloss.Color("6")),
		tag: r.NewStyle().Faint(true),
	}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	tags := make(map[string]string, len(tagKeys))
	var rest strings.Builder
	add := func(prefix string, a slog.Attr) {
		if prefix == "" && isTagKey(a.Key) {
			tags[a.Key] = a.Value.Resolve().String()
			return
		}
		h.writeAttr(&rest, prefix, a)
	}
	for _, pa := range h.attrs {
		add(pa.prefix, pa.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(h.prefix, a)
		return true
	})

	var line strings.Builder
	line.WriteString(r.Time.Format("15:04:05"))
	line.WriteByte(' ')
	line.WriteString(h.levelLabel(r.Level))
	if tag := formatTags(tags); tag != "" {
		line.WriteByte(' ')
		line.WriteString(h.tag.Render("[" + tag + "]"))
	}
	line.WriteByte(' ')
	line.WriteString(r.Message)
	line.WriteString(rest.String())
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line.String())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]prettyAttr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, prettyAttr{prefix: h.prefix, attr: a})
	}
	return &next
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *PrettyHandler) levelLabel(level slog.Level) string {
	label := level.String()
	switch level {
	case slog.LevelDebug:
		label = "DBG"
	case slog.LevelInfo:
		label = "INF"
	case slog.LevelWarn:
		label = "WRN"
	case slog.LevelError:
		label = "ERR"
	}
	if style, ok := h.levels[level]; ok {
		return style.Render(label)
	}
	return label
}

func (h *PrettyHandler) writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, g := range a.Value.Group() {
			h.writeAttr(sb, prefix, g)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(h.key.Render(prefix + a.Key))
	sb.WriteByte('=')
	sb.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindDuration:
		return v.Duration().Round(time.Microsecond).String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return fmt.Sprint(v.Any())
	}
}

func isTagKey(key string) bool {
	for _, k := range tagKeys {
		if k == key {
			return true
		}
	}
	return false
}

// formatTags joins the lifted tags; analysis IDs are shortened to 8 characters.
func formatTags(tags map[string]string) string {
	parts := make([]string, 0, len(tags))
	for _, k := range tagKeys {
		v, ok := tags[k]
		if !ok || v == "" {
			continue
		}
		if k == "analysis_id" && len(v) > 8 {
			v = v[:8]
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}
