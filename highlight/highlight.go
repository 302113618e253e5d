// Package highlight renders documents with their labeled spans highlighted, either as HTML or as
// styled terminal text.
package highlight

import (
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/go-nerprep/iob"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Palette saturation and value: light colors, readable with dark text.
const (
	paletteSaturation = 0.35
	paletteValue      = 0.95
)

// RGB color.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color in "#rrggbb" form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Colors assigns each distinct label a color. Labels are sorted and given evenly spaced hues, so
// the assignment only depends on the set of labels.
func Colors(labels []string) map[string]RGB {
	unique := slices.Clone(labels)
	slices.Sort(unique)
	unique = slices.Compact(unique)
	colors := make(map[string]RGB, len(unique))
	for i, label := range unique {
		hue := 360.0 * float64(i) / float64(len(unique))
		r, g, b := colorful.Hsv(hue, paletteSaturation, paletteValue).RGB255()
		colors[label] = RGB{R: r, G: g, B: b}
	}
	return colors
}

// Markup returns, for each label, an HTML snippet with a single "%s" placeholder for the
// (already escaped) entity text.
func Markup(colors map[string]RGB) map[string]string {
	markup := make(map[string]string, len(colors))
	for label, color := range colors {
		markup[label] = fmt.Sprintf(
			`<mark class="entity" style="background: %s; padding: 0.2em 0.3em; border-radius: 0.3em;">`+
				`%%s <span class="label" style="font-size: 0.75em; font-weight: bold;">%s</span></mark>`,
			color.Hex(), html.EscapeString(strings.ReplaceAll(label, "%", "%%")))
	}
	return markup
}

// Styler formats the plain and the highlighted parts of a document.
type Styler interface {
	Plain(text string) string
	Entity(text, label string) string
}

// HTMLStyler renders HTML, using Markup snippets.
type HTMLStyler struct {
	markup map[string]string
}

// NewHTMLStyler creates an HTMLStyler for the given label colors.
func NewHTMLStyler(colors map[string]RGB) *HTMLStyler {
	return &HTMLStyler{markup: Markup(colors)}
}

// Plain implements Styler.
func (s *HTMLStyler) Plain(text string) string {
	return html.EscapeString(text)
}

// Entity implements Styler. Labels without a color are rendered with a neutral gray.
func (s *HTMLStyler) Entity(text, label string) string {
	format, found := s.markup[label]
	if !found {
		format = Markup(map[string]RGB{label: {R: 0xdd, G: 0xdd, B: 0xdd}})[label]
	}
	return fmt.Sprintf(format, html.EscapeString(text))
}

// TerminalStyler renders text with ANSI colors, using lipgloss. Colors are dropped when the output
// doesn't support them.
type TerminalStyler struct {
	styles     map[string]lipgloss.Style
	labelStyle lipgloss.Style
}

// NewTerminalStyler creates a TerminalStyler for the given label colors.
func NewTerminalStyler(colors map[string]RGB) *TerminalStyler {
	s := &TerminalStyler{
		styles:     make(map[string]lipgloss.Style, len(colors)),
		labelStyle: lipgloss.NewStyle().Bold(true),
	}
	for label, color := range colors {
		s.styles[label] = lipgloss.NewStyle().
			Background(lipgloss.Color(color.Hex())).
			Foreground(lipgloss.Color("#000000"))
	}
	return s
}

// Plain implements Styler.
func (s *TerminalStyler) Plain(text string) string {
	return text
}

// Entity implements Styler.
func (s *TerminalStyler) Entity(text, label string) string {
	style, found := s.styles[label]
	if !found {
		style = lipgloss.NewStyle().Reverse(true)
	}
	return style.Render(text+" "+s.labelStyle.Render(label))
}

// insertion replaces the runes [start, end) with a highlighted entity.
type insertion struct {
	start, end int
	label      string
}

// insertions returns the spans to highlight, sorted by descending start. A span overlapping a
// later one (in input order) is dropped, and so are zero-length spans.
func insertions(spans []iob.Span) []insertion {
	var kept []insertion
	for i := len(spans) - 1; i >= 0; i-- {
		span := spans[i]
		if span.Start == span.End {
			continue
		}
		overlaps := slices.ContainsFunc(kept, func(ins insertion) bool {
			return span.Start < ins.end && ins.start < span.End
		})
		if overlaps {
			klog.Warningf("highlight: span #%d [%d, %d, %q] overlaps a later span, not highlighted",
				i, span.Start, span.End, span.Label)
			continue
		}
		kept = append(kept, insertion{start: span.Start, end: span.End, label: span.Label})
	}
	slices.SortFunc(kept, func(a, b insertion) int { return b.start - a.start })
	return kept
}

// Render returns the document text with its spans highlighted by styler.
//
// The output is assembled from the end of the text backwards, one insertion at a time, so offsets
// of the remaining insertions always refer to the original text.
// It returns a *iob.ValidationError if a span doesn't fit the text.
func Render(doc iob.Document, styler Styler) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", errors.WithMessagef(err, "highlighting document %q", doc.ID)
	}
	runes := []rune(doc.Text)
	parts := make([]string, 0, 2*len(doc.Spans)+1)
	cursor := len(runes)
	for _, ins := range insertions(doc.Spans) {
		if ins.end < cursor {
			parts = append(parts, styler.Plain(string(runes[ins.end:cursor])))
		}
		parts = append(parts, styler.Entity(string(runes[ins.start:ins.end]), ins.label))
		cursor = ins.start
	}
	if cursor > 0 {
		parts = append(parts, styler.Plain(string(runes[:cursor])))
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteString(parts[i])
	}
	return sb.String(), nil
}
