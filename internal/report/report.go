// Package report renders human-readable comparison summaries for the CLI.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/featsync/internal/importer"
)

// Render writes a comparison summary table and the resulting plan of
// actions for the given job.
func Render(w io.Writer, jobName string, comp *importer.Comparison) {
	fmt.Fprintf(w, "Sync plan for job %s\n\n", color.Bold.Sprint(jobName))

	headers := []string{"STORE", "FETCHED", "MATCHED", "UNMATCHED"}
	rows := [][]string{
		{"source", strconv.Itoa(comp.Source.Fetched()), strconv.Itoa(len(comp.Source.Matched)), strconv.Itoa(len(comp.Source.Unmatched))},
		{"target", strconv.Itoa(comp.Target.Fetched()), strconv.Itoa(len(comp.Target.Matched)), strconv.Itoa(len(comp.Target.Unmatched))},
	}
	renderTable(w, headers, rows)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Attribute map:")
	srcFields, tgtFields := comp.EffectiveMap.SourcePairs()
	for i, src := range srcFields {
		if src == tgtFields[i] {
			fmt.Fprintf(w, "  %s\n", src)
		} else {
			fmt.Fprintf(w, "  %s -> %s\n", src, tgtFields[i])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Planned actions:")
	migrate := len(comp.Source.Unmatched)
	purge := len(comp.Source.Matched)
	if migrate > 0 {
		fmt.Fprintf(w, "  %s %d record(s) into target, then delete from source\n",
			color.Green.Sprint("migrate"), migrate)
	}
	if purge > 0 {
		fmt.Fprintf(w, "  %s %d stale record(s) from source (already in target)\n",
			color.Yellow.Sprint("purge"), purge)
	}
	if migrate == 0 && purge == 0 {
		fmt.Fprintf(w, "  %s\n", color.Green.Sprint("nothing to do, stores are in sync"))
	}
}

// renderTable prints a simple aligned table. Cell widths are computed with
// runewidth so multi-byte field names align.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	for i, h := range headers {
		fmt.Fprint(w, color.Bold.Sprint(runewidth.FillRight(h, widths[i])))
		if i < len(headers)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			fmt.Fprint(w, runewidth.FillRight(cell, widths[i]))
			if i < len(row)-1 {
				fmt.Fprint(w, "  ")
			}
		}
		fmt.Fprintln(w)
	}
}
