package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

// Colors for text output. Writers that are not terminals get none.
var (
	headerColor  = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	warningColor = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// Formatter handles output formatting
type Formatter struct {
	writer   io.Writer
	json     bool
	renderer *lipgloss.Renderer

	header  lipgloss.Style
	cell    lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithColorProfile overrides the color profile detected from the writer.
// termenv.Ascii turns styling off.
func WithColorProfile(p termenv.Profile) Option {
	return func(f *Formatter) {
		f.renderer.SetColorProfile(p)
	}
}

// NewFormatter creates a new formatter. With asJSON every Format call
// writes indented JSON instead of styled text.
func NewFormatter(writer io.Writer, asJSON bool, opts ...Option) *Formatter {
	f := &Formatter{
		writer:   writer,
		json:     asJSON,
		renderer: lipgloss.NewRenderer(writer),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.cell = f.renderer.NewStyle().PaddingRight(2)
	f.header = f.cell.Bold(true).Foreground(headerColor)
	f.warning = f.renderer.NewStyle().Foreground(warningColor)
	f.muted = f.renderer.NewStyle().Foreground(mutedColor)
	return f
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatRecords formats realized records as a borderless table.
func (f *Formatter) FormatRecords(records []RecordDTO) error {
	if f.json {
		return f.encode(records)
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.Name, r.Kind, strings.Join(r.Tags, ",")}
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers("NAME", "KIND", "TAGS").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return f.header
			}
			return f.cell
		})

	_, err := fmt.Fprintln(f.writer, t.Render())
	return err
}

// FormatUnresolved formats unresolved names with their suggestions.
func (f *Formatter) FormatUnresolved(list []UnresolvedDTO) error {
	if f.json {
		return f.encode(list)
	}
	for _, u := range list {
		line := f.warning.Render(u.Name)
		if len(u.Suggestions) > 0 {
			line += " " + f.muted.Render("(did you mean "+strings.Join(u.Suggestions, ", ")+"?)")
		}
		if _, err := fmt.Fprintln(f.writer, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatSummary formats record counts. A non-zero unresolved count is
// highlighted.
func (f *Formatter) FormatSummary(s SummaryDTO) error {
	if f.json {
		return f.encode(s)
	}
	unresolved := fmt.Sprintf("%d unresolved", s.Unresolved)
	if s.Unresolved > 0 {
		unresolved = f.warning.Render(unresolved)
	}
	_, err := fmt.Fprintf(f.writer, "%d realized, %d referenced, %s\n", s.Realized, s.Referenced, unresolved)
	return err
}

// FormatCacheEntries formats cached keys as "<namespace>/<key>".
func (f *Formatter) FormatCacheEntries(entries []CacheEntryDTO) error {
	if f.json {
		return f.encode(entries)
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(f.writer, "%s/%s\n", f.muted.Render(e.Namespace), e.Key); err != nil {
			return err
		}
	}
	return nil
}
