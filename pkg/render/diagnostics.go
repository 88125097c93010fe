package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/pyscry/pkg/aggregate"
	"github.com/Sumatoshi-tech/pyscry/pkg/distindex"
	"github.com/Sumatoshi-tech/pyscry/pkg/safeconv"
)

// Summary holds the run totals shown after a scan.
type Summary struct {
	Files   int
	Bytes   int64
	Entries int
}

// DiagnosticsOptions controls the diagnostics report.
type DiagnosticsOptions struct {
	// Verbose adds the detail table below the summary line.
	Verbose bool

	NoColor bool
}

// Diagnostics writes a one-line summary and, when verbose, a table of
// ambiguous modules, unresolved modules and parse failures.
func Diagnostics(w io.Writer, summary Summary, diag aggregate.Diagnostics, opts DiagnosticsOptions) error {
	line := fmt.Sprintf("scanned %s (%s): %s, %d ambiguous, %d unresolved, %d failed",
		plural(summary.Files, "file"),
		humanize.Bytes(safeconv.ClampToUint64(summary.Bytes)),
		plural(summary.Entries, "dependency"),
		len(diag.Ambiguous), len(diag.Unresolved), len(diag.Failures))

	_, err := summaryColor(diag, opts.NoColor).Fprintln(w, line)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if !opts.Verbose || diag.Empty() {
		return nil
	}

	_, err = fmt.Fprintln(w, diagnosticsTable(diag))
	if err != nil {
		return fmt.Errorf("write diagnostics: %w", err)
	}

	return nil
}

func summaryColor(diag aggregate.Diagnostics, noColor bool) *color.Color {
	c := color.New(color.FgGreen)

	switch {
	case len(diag.Failures) > 0:
		c = color.New(color.FgRed)
	case len(diag.Ambiguous) > 0 || len(diag.Unresolved) > 0:
		c = color.New(color.FgYellow)
	}

	if noColor {
		c.DisableColor()
	}

	return c
}

func diagnosticsTable(diag aggregate.Diagnostics) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(table.Row{"Kind", "Module", "Detail", "Files"})

	for _, amb := range diag.Ambiguous {
		tbl.AppendRow(table.Row{
			"ambiguous",
			amb.Module,
			fmt.Sprintf("chose %s from %s", amb.Chosen.Name, candidateNames(amb.Candidates)),
			strings.Join(amb.Files, "\n"),
		})
	}

	for _, un := range diag.Unresolved {
		tbl.AppendRow(table.Row{"unresolved", un.Module, "no installed distribution", strings.Join(un.Files, "\n")})
	}

	for _, f := range diag.Failures {
		tbl.AppendRow(table.Row{"parse error", "", errorText(f.Err), f.Path})
	}

	tbl.AppendFooter(table.Row{"", "", "Total", len(diag.Ambiguous) + len(diag.Unresolved) + len(diag.Failures)})

	return tbl.Render()
}

func candidateNames(dists []distindex.Distribution) string {
	names := make([]string, 0, len(dists))
	for _, d := range dists {
		names = append(names, d.Name)
	}

	return strings.Join(names, ", ")
}

func errorText(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}

	if strings.HasSuffix(noun, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(noun, "y"))
	}

	return fmt.Sprintf("%d %ss", n, noun)
}
