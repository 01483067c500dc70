package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Frontmatter is the ordered YAML header prepended to text reports.
type Frontmatter struct {
	fields map[string]interface{}
	order  []string
}

// NewFrontmatter creates an empty header.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{
		fields: make(map[string]interface{}),
		order:  make([]string, 0),
	}
}

// Set adds or replaces a field. First insertion fixes the field's position.
func (f *Frontmatter) Set(key string, value interface{}) *Frontmatter {
	if _, exists := f.fields[key]; !exists {
		f.order = append(f.order, key)
	}
	f.fields[key] = value
	return f
}

// Get retrieves a field value
func (f *Frontmatter) Get(key string) (interface{}, bool) {
	v, ok := f.fields[key]
	return v, ok
}

// Keys returns field names in render order.
func (f *Frontmatter) Keys() []string {
	return append([]string(nil), f.order...)
}

// Render produces the header with its delimiters, or "" when empty.
func (f *Frontmatter) Render() string {
	if len(f.fields) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	for _, key := range f.order {
		sb.WriteString(formatField(key, f.fields[key]))
	}
	sb.WriteString("---\n\n")
	return sb.String()
}

func formatField(key string, value interface{}) string {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("%s: %s\n", key, scalar(v))
	case fmt.Stringer:
		return fmt.Sprintf("%s: %s\n", key, scalar(v.String()))
	case int, int32, int64:
		return fmt.Sprintf("%s: %d\n", key, v)
	case float64:
		return fmt.Sprintf("%s: %s\n", key, strconv.FormatFloat(v, 'f', -1, 64))
	case float32:
		return fmt.Sprintf("%s: %s\n", key, strconv.FormatFloat(float64(v), 'f', -1, 32))
	case bool:
		return fmt.Sprintf("%s: %t\n", key, v)
	case time.Time:
		return fmt.Sprintf("%s: %q\n", key, v.UTC().Format(time.RFC3339))
	case []string:
		return formatList(key, v)
	default:
		return fmt.Sprintf("%s: %v\n", key, v)
	}
}

func formatList(key string, values []string) string {
	if len(values) == 0 {
		return fmt.Sprintf("%s: []\n", key)
	}

	var sb strings.Builder
	sb.WriteString(key + ":\n")
	for _, v := range values {
		sb.WriteString("  - " + scalar(v) + "\n")
	}
	return sb.String()
}

func scalar(s string) string {
	if needsQuoting(s) {
		return strconv.Quote(s)
	}
	return s
}

// needsQuoting reports whether s would not survive as a plain YAML scalar.
func needsQuoting(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return true
	}
	if strings.ContainsAny(s, ":#[]{},&*!|>'\"%@`") || strings.HasPrefix(s, "-") {
		return true
	}
	switch strings.ToLower(s) {
	case "true", "false", "null", "yes", "no", "~":
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}

// FromMap creates a Frontmatter with keys in alphabetical order.
func FromMap(m map[string]interface{}) *Frontmatter {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := NewFrontmatter()
	for _, k := range keys {
		f.Set(k, m[k])
	}
	return f
}
