package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/printgate/printgate/internal/types"
)

// Table describes the fixed-column Markdown report of one check. Every row
// starts with the artifact and its severity glyph, followed by one cell per
// entry in Columns.
type Table struct {
	Title   string
	Columns []types.Column
	Note    string // optional line rendered under the title, e.g. a truncation warning
}

// Header returns the title, optional note, column header and separator rows.
func (t Table) Header() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", t.Title)
	if t.Note != "" {
		fmt.Fprintf(&b, "> ⚠️ %s\n\n", escapeCell(t.Note))
	}
	titles := []string{"Filename", "Result"}
	seps := []string{"-----", "---"}
	for _, c := range t.Columns {
		titles = append(titles, escapeCell(c.Title))
		seps = append(seps, "---")
	}
	b.WriteString("| " + strings.Join(titles, " | ") + " |\n")
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	return b.String()
}

// Row renders one outcome. Columns the outcome has no value for are filled
// with the column's zero value, so rows always have the same width.
func (t Table) Row(o types.Outcome) string {
	cells := make([]string, 0, len(t.Columns)+2)
	cells = append(cells, escapeCell(o.Artifact.Path), o.Severity.Glyph())
	for _, c := range t.Columns {
		cells = append(cells, escapeCell(o.Value(c)))
	}
	return "| " + strings.Join(cells, " | ") + " |\n"
}

// Footer lists the detail message of every Exception outcome. It is empty
// when there are none.
func (t Table) Footer(outs []types.Outcome) string {
	var b strings.Builder
	for _, o := range outs {
		if o.Severity != types.SevException {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("\n### Exceptions\n\n")
		}
		fmt.Fprintf(&b, "- `%s`: %s\n", o.Artifact.Path, oneLine(o.Detail))
	}
	return b.String()
}

// Render writes the complete report for outs. Nothing is written when outs is
// empty.
func (t Table) Render(w io.Writer, outs []types.Outcome) error {
	if len(outs) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(t.Header())
	for _, o := range outs {
		b.WriteString(t.Row(o))
	}
	b.WriteString(t.Footer(outs))
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return oneLine(s)
}

func oneLine(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
