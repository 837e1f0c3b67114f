package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"typeck/internal/driver"
	"typeck/internal/fix"
)

// applyFixes applies every suggested fix and reports what changed. With
// preview the fixed contents go to stdout and no file is written.
func applyFixes(cmd *cobra.Command, results []*driver.Result, preview bool) error {
	applied, err := driver.ApplyFixes(results, fix.ApplyModeAll, preview)
	if err != nil {
		return fmt.Errorf("apply fixes: %w", err)
	}
	paths := make([]string, 0, len(applied))
	for path := range applied {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	total := 0
	for _, path := range paths {
		res := applied[path]
		for _, a := range res.Applied {
			fmt.Fprintf(errOut, "fixed %s: %s\n", a.PrimaryPath, a.Title)
		}
		for _, s := range res.Skipped {
			fmt.Fprintf(errOut, "skipped %s: %s\n", s.ID, s.Reason)
		}
		total += len(res.Applied)
		if preview {
			for _, change := range res.FileChanges {
				fmt.Fprintf(out, "--- %s (%d edits)\n%s", change.Path, change.EditCount, change.Content)
			}
		}
	}
	if total == 0 {
		fmt.Fprintln(errOut, "no fixes to apply")
	}
	return nil
}
