package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// Format represents an output format
type Format string

const (
	// FormatTable is the table output format
	FormatTable Format = "table"
	// FormatJSON is the JSON output format
	FormatJSON Format = "json"
	// FormatYAML is the YAML output format
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --output value
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(raw)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", raw)
}

// Printer writes command results in one format
type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Format Format
}

// NewPrinter creates a Printer on stdout and stderr
func NewPrinter(format Format) *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr, Format: format}
}

// Table prints rows under headers
func (p *Printer) Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
}

// Print prints data in the printer's format. tableFunc renders the table form.
func (p *Printer) Print(data interface{}, tableFunc func()) error {
	switch p.Format {
	case FormatJSON:
		encoder := json.NewEncoder(p.Out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(p.Out)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(toYAMLValue(data))
	case FormatTable, "":
		tableFunc()
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", p.Format)
	}
}

// toYAMLValue round-trips data through JSON so YAML output uses the same
// field names as the API.
func toYAMLValue(data interface{}) interface{} {
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return data
	}
	return v
}

// Success prints a success message
func (p *Printer) Success(message string) {
	fmt.Fprintf(p.Out, "✓ %s\n", message)
}

// Info prints an info message
func (p *Printer) Info(message string) {
	fmt.Fprintln(p.Out, message)
}

// Warn prints a warning message
func (p *Printer) Warn(message string) {
	fmt.Fprintf(p.Err, "Warning: %s\n", message)
}

// Error prints an error message
func (p *Printer) Error(message string) {
	fmt.Fprintf(p.Err, "Error: %s\n", message)
}

// FormatTime formats a time for display
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatTimeAgo formats t relative to now as "X ago"
func FormatTimeAgo(t, now time.Time) string {
	duration := now.Sub(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute")
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour")
	default:
		return plural(int(duration.Hours()/24), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
