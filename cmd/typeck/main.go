package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"typeck/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "typeck",
	Short:         "Type-check HIR programs",
	Long:          `typeck infers and checks the types of every body of a HIR program and reports diagnostics`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// main registers subcommands and persistent flags, then executes the root
// command. Any error exits with status 1; a check with errors exits with 1
// as well.
func main() {
	rootCmd.Version = version.Plain()

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics to show (0 = config or 200)")
	rootCmd.PersistentFlags().String("config", "", "path to typeck.toml (default: search upwards from the input)")

	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "ring", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 = off)")

	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
