// Package view renders command output as tables, JSON, plain text or JSON lines.
package view

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/samber/lo"
)

// Format represents an output format.
type Format string

// Output format constants.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatPlain Format = "plain"
)

// ValidFormats returns the list of valid output formats.
func ValidFormats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatPlain)}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	if format == "" || lo.Contains(ValidFormats(), format) {
		return nil
	}
	return fmt.Errorf("invalid output format: %q (valid formats: %s)", format, strings.Join(ValidFormats(), ", "))
}

// View handles output formatting.
type View struct {
	Format  Format
	NoColor bool
	Out     io.Writer
	Err     io.Writer
}

// New creates a new View with the given format.
// If noColor is true, colorized output is disabled.
func New(format Format, noColor bool) *View {
	if noColor {
		color.NoColor = true
	}
	if format == "" {
		format = FormatTable
	}
	return &View{
		Format:  format,
		NoColor: noColor,
		Out:     os.Stdout,
		Err:     os.Stderr,
	}
}

// NewWithFormat creates a new View from a format string.
func NewWithFormat(format string, noColor bool) *View {
	return New(Format(format), noColor)
}

// Table renders rows with aligned columns. JSON output becomes an array of
// objects keyed by header; plain output drops the header row.
func (v *View) Table(headers []string, rows [][]string) error {
	switch v.Format {
	case FormatJSON:
		return v.JSON(rowsAsObjects(headers, rows))
	case FormatPlain:
		return v.Plain(rows)
	}

	w := tabwriter.NewWriter(v.Out, 0, 0, 2, ' ', 0)
	headerLine := strings.Join(headers, "\t")
	if !v.NoColor {
		headerLine = color.New(color.Bold).Sprint(headerLine)
	}
	_, _ = fmt.Fprintln(w, headerLine)
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

// KeyValues renders label/value pairs, one per line.
func (v *View) KeyValues(pairs [][2]string) error {
	switch v.Format {
	case FormatJSON:
		obj := make(map[string]string, len(pairs))
		for _, p := range pairs {
			obj[jsonKey(p[0])] = p[1]
		}
		return v.JSON(obj)
	case FormatPlain:
		return v.Plain(lo.Map(pairs, func(p [2]string, _ int) []string { return []string{p[0], p[1]} }))
	}

	w := tabwriter.NewWriter(v.Out, 0, 0, 2, ' ', 0)
	for _, p := range pairs {
		label := p[0] + ":"
		if !v.NoColor {
			label = color.New(color.Bold).Sprint(label)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", label, p[1])
	}
	return w.Flush()
}

func rowsAsObjects(headers []string, rows [][]string) []map[string]string {
	return lo.Map(rows, func(row []string, _ int) map[string]string {
		item := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(row) {
				item[jsonKey(header)] = row[i]
			}
		}
		return item
	})
}

func jsonKey(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
}

// JSON renders data as indented JSON.
func (v *View) JSON(data any) error {
	enc := json.NewEncoder(v.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// JSONLines writes one compact JSON document per line.
func (v *View) JSONLines(records []json.RawMessage) error {
	for _, rec := range records {
		if _, err := v.Out.Write(rec); err != nil {
			return err
		}
		if _, err := io.WriteString(v.Out, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Plain renders rows as tab-separated values without headers.
func (v *View) Plain(rows [][]string) error {
	for _, row := range rows {
		_, _ = fmt.Fprintln(v.Out, strings.Join(row, "\t"))
	}
	return nil
}

// Render renders data based on the current format: jsonData for JSON,
// headers and rows otherwise.
func (v *View) Render(headers []string, rows [][]string, jsonData any) error {
	if v.Format == FormatJSON {
		return v.JSON(jsonData)
	}
	return v.Table(headers, rows)
}

// Success prints a success message with a green checkmark.
func (v *View) Success(format string, args ...any) {
	v.status(v.Out, "✓", color.FgGreen, format, args...)
}

// Error prints an error message with a red X.
func (v *View) Error(format string, args ...any) {
	v.status(v.Err, "✗", color.FgRed, format, args...)
}

// Warning prints a warning message with a yellow warning sign.
func (v *View) Warning(format string, args ...any) {
	v.status(v.Err, "⚠", color.FgYellow, format, args...)
}

func (v *View) status(w io.Writer, symbol string, attr color.Attribute, format string, args ...any) {
	line := symbol + " " + fmt.Sprintf(format, args...)
	if !v.NoColor {
		line = color.New(attr).Sprint(line)
	}
	_, _ = fmt.Fprintln(w, line)
}

// Info prints an informational message.
func (v *View) Info(format string, args ...any) {
	_, _ = fmt.Fprintln(v.Out, fmt.Sprintf(format, args...))
}

// Print prints a message without newline.
func (v *View) Print(format string, args ...any) {
	_, _ = fmt.Fprintf(v.Out, format, args...)
}

// Truncate shortens s to maxLen bytes, ending in "..." when cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
