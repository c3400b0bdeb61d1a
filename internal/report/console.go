package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/printgate/printgate/internal/types"
)

type PrintOptions struct {
	NoColor   bool
	Duration  time.Duration
	Found     int // artifacts discovered before the cap was applied
	Truncated bool
}

var (
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failureStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	exceptionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
)

// ColorEnabled reports whether f is a terminal and NO_COLOR is unset.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func colorSeverity(s types.Severity, text string) string {
	switch s {
	case types.SevSuccess:
		return successStyle.Render(text)
	case types.SevWarning:
		return warningStyle.Render(text)
	case types.SevFailure:
		return failureStyle.Render(text)
	default:
		return exceptionStyle.Render(text)
	}
}

// PrintTable writes the outcomes of one batch as a console table followed by
// a severity summary.
func PrintTable(w io.Writer, t Table, outs []types.Outcome, opts PrintOptions) {
	if len(outs) == 0 {
		fmt.Fprintln(w, "No artifacts to check, skipped")
		return
	}
	header := []string{"Artifact", "Result"}
	for _, c := range t.Columns {
		header = append(header, c.Title)
	}
	tw := tablewriter.NewWriter(w)
	tw.Header(header)
	counts := map[types.Severity]int{}
	for _, o := range outs {
		counts[o.Severity]++
		glyph := o.Severity.Glyph()
		if !opts.NoColor {
			glyph = colorSeverity(o.Severity, glyph)
		}
		row := []string{o.Artifact.Path, glyph}
		for _, c := range t.Columns {
			row = append(row, o.Value(c))
		}
		_ = tw.Append(row)
	}
	_ = tw.Render()

	merged := types.MergeOutcomes(outs)
	label := merged.String()
	if !opts.NoColor {
		label = colorSeverity(merged, label)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s (success: %d, warning: %d, failure: %d, exception: %d)\n",
		t.Title, label,
		counts[types.SevSuccess], counts[types.SevWarning], counts[types.SevFailure], counts[types.SevException])
	if opts.Truncated {
		fmt.Fprintf(w, "Artifacts checked: %d of %d found\n", len(outs), opts.Found)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Check duration: %.2fs\n", opts.Duration.Seconds())
	}
}

// PrintJobs writes the per-job rows of an aggregation as a console table.
func PrintJobs(w io.Writer, rep types.AggregateReport, opts PrintOptions) {
	if len(rep.Jobs) == 0 {
		fmt.Fprintln(w, "No job results found")
		return
	}
	tw := tablewriter.NewWriter(w)
	tw.Header([]string{"Job", "Result", "Error label", "Job ID"})
	for _, j := range rep.Jobs {
		res := j.Severity.String()
		if !opts.NoColor {
			res = colorSeverity(j.Severity, res)
		}
		_ = tw.Append([]string{j.Name, res, j.ErrorLabel, j.JobID})
	}
	_ = tw.Render()
}
