// Package output formats CLI output: status lines, search hits and namespace
// statistics, styled with lipgloss when writing to a terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/litsearch/internal/index"
	"github.com/Aman-CERP/litsearch/internal/search"
)

// Palette.
const (
	ColorAccent   = "154"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
)

// Styles holds the lipgloss styles used for rendering.
type Styles struct {
	Header    lipgloss.Style
	Highlight lipgloss.Style
	Dim       lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Highlight: lipgloss.NewStyle().Bold(true).Underline(true),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// NoColorStyles returns unstyled components for plain output.
func NoColorStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle(),
		Highlight: lipgloss.NewStyle(),
		Dim:       lipgloss.NewStyle(),
		Success:   lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
	}
}

// Writer provides formatted output for the CLI.
type Writer struct {
	out      io.Writer
	useColor bool
	styles   Styles
}

// New creates a Writer. Color is used only when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer) *Writer {
	color := IsTTY(out) && !DetectNoColor()
	return NewWithColor(out, color)
}

// NewWithColor creates a Writer with color forced on or off.
func NewWithColor(out io.Writer, color bool) *Writer {
	styles := NoColorStyles()
	if color {
		styles = DefaultStyles()
	}
	return &Writer{out: out, useColor: color, styles: styles}
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// Status prints a message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Status(w.styles.Success.Render("✓"), fmt.Sprintf(format, args...))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Status(w.styles.Warning.Render("!"), fmt.Sprintf(format, args...))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Status(w.styles.Error.Render("✗"), fmt.Sprintf(format, args...))
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Results prints search hits, one block per hit, in the order given.
func (w *Writer) Results(results []search.Result) {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w.out, w.styles.Dim.Render("no results"))
		return
	}

	for _, r := range results {
		if r.IsError() {
			w.Errorf("%s: %s", r.Namespace, r.Error)
			continue
		}

		header := fmt.Sprintf("[%s] #%s %s", r.Namespace, r.ID, r.Title)
		_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(strings.TrimSpace(header)))

		if by := byline(r); by != "" {
			_, _ = fmt.Fprintf(w.out, "   %s\n", w.styles.Dim.Render(by))
		}
		if r.Context != "" {
			_, _ = fmt.Fprintf(w.out, "   %s\n", w.renderContext(r.Context))
		}
	}
}

// Stats prints namespace document counts.
func (w *Writer) Stats(stats []index.NamespaceStats) {
	width := 0
	for _, s := range stats {
		width = max(width, len(s.Kind))
	}
	for _, s := range stats {
		name := fmt.Sprintf("%-*s", width, s.Kind)
		if s.Error != "" {
			_, _ = fmt.Fprintf(w.out, "%s  %s\n", name, w.styles.Error.Render(s.Error))
			continue
		}
		_, _ = fmt.Fprintf(w.out, "%s  %d\n", name, s.Documents)
	}
}

func byline(r search.Result) string {
	name := strings.TrimSpace(r.FirstName + " " + r.LastName)
	var parts []string
	if name != "" {
		parts = append(parts, name)
	}
	if r.PublicationYear != 0 {
		parts = append(parts, fmt.Sprintf("%d", r.PublicationYear))
	}
	if r.Period != "" {
		parts = append(parts, r.Period)
	}
	return strings.Join(parts, ", ")
}

// renderContext replaces the HTML highlight markers with terminal styling,
// or with asterisks in plain mode.
func (w *Writer) renderContext(ctx string) string {
	var b strings.Builder
	for {
		start := strings.Index(ctx, search.DefaultHighlightBefore)
		if start < 0 {
			break
		}
		rest := ctx[start+len(search.DefaultHighlightBefore):]
		end := strings.Index(rest, search.DefaultHighlightAfter)
		if end < 0 {
			break
		}
		b.WriteString(ctx[:start])
		term := rest[:end]
		if w.useColor {
			b.WriteString(w.styles.Highlight.Render(term))
		} else {
			b.WriteString("*" + term + "*")
		}
		ctx = rest[end+len(search.DefaultHighlightAfter):]
	}
	b.WriteString(ctx)
	return b.String()
}
