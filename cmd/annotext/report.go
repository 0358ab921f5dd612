package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/heartmarshall/annotext/internal/app/migrator"
)

// renderReport prints one line per failed sheet followed by the item table
// and a summary line.
func renderReport(w io.Writer, report *migrator.Report) {
	for _, it := range report.Failed() {
		fmt.Fprintf(w, "%s: %v\n", it.Item.SheetID, it.Err)
	}

	rows := make([][]string, 0, len(report.Items))
	for i, it := range report.Items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			it.Item.SheetID,
			it.Item.CollectionTitle,
			it.ShortName,
			it.State.String(),
			strconv.Itoa(it.Words),
			strconv.Itoa(it.Connections),
			formatDuration(it.Duration),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"#", "Sheet", "Collection", "Document", "State", "Words", "Links", "Time"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	fmt.Fprintln(w, summaryLine(report))
}

func summaryLine(report *migrator.Report) string {
	done := report.Count(migrator.StateValidated)
	verb := "validated"
	if report.Mode == migrator.ModeCommit {
		done = report.Count(migrator.StateCommitted)
		verb = "committed"
	}
	s := fmt.Sprintf("%d/%d %s, %d failed", done, len(report.Items), verb, len(report.Failed()))
	if report.Mode == migrator.ModeCommit {
		s += fmt.Sprintf(", %d morpheme relations", report.Relations)
	}
	switch {
	case report.Cancelled:
		s += " (cancelled)"
	case report.Aborted:
		s += " (aborted)"
	}
	return s + " in " + formatDuration(report.Duration)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
