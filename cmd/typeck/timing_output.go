package main

import (
	"fmt"
	"io"

	"typeck/internal/driver"
	"typeck/internal/observ"
)

// printTimings sums the per-unit phase timings of every fresh result.
func printTimings(out io.Writer, results []*driver.Result) {
	totals := observ.NewTotals()
	var units, cached int
	for _, res := range results {
		if res.Cached {
			cached++
			continue
		}
		units += res.Units
		totals.Add(res.Timings)
	}
	report := totals.Report()
	if len(report.Phases) == 0 {
		if cached > 0 {
			fmt.Fprintf(out, "timings: %d inputs served from the disk cache\n", cached)
		}
		return
	}
	fmt.Fprint(out, report.Summary())
	fmt.Fprintf(out, "  %d units in %d inputs", units, len(results)-cached)
	if cached > 0 {
		fmt.Fprintf(out, ", %d cached", cached)
	}
	fmt.Fprintln(out)
}
