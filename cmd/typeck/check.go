package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"typeck/internal/diagfmt"
	"typeck/internal/driver"
	"typeck/internal/ice"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.yaml|file.hir|directory>",
	Short: "Type-check a HIR program or every program in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

// errHasErrors makes the process exit non-zero once diagnostics are out.
var errHasErrors = errors.New("type errors found")

func init() {
	checkCmd.Flags().Int("jobs", -1, "max parallel units and files (0 = GOMAXPROCS, -1 = config)")
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	checkCmd.Flags().String("ui", "off", "show a progress UI (auto|on|off)")
	checkCmd.Flags().Bool("disk-cache", false, "reuse diagnostics of unchanged inputs from the disk cache")
	checkCmd.Flags().Bool("drop-cache", false, "clear the disk cache before checking")
	checkCmd.Flags().String("emit-results", "", "dump the published results (yaml)")
	checkCmd.Flags().Bool("emit-nodes", false, "include per-node types in --emit-results")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("basename", false, "show only file names in diagnostics")
	checkCmd.Flags().Bool("fix", false, "apply suggested fixes to YAML inputs")
	checkCmd.Flags().Bool("preview", false, "with --fix, print the fixed files instead of writing them")
}

type checkFlags struct {
	jobs      int
	format    string
	ui        uiMode
	diskCache bool
	dropCache bool
	emit      string
	emitNodes bool
	withNotes bool
	basename  bool
	fix       bool
	preview   bool
	color     string
	quiet     bool
	timings   bool
	max       int
	config    string
}

func readCheckFlags(cmd *cobra.Command) (checkFlags, error) {
	var f checkFlags
	var err error
	flags, root := cmd.Flags(), cmd.Root().PersistentFlags()
	if f.jobs, err = flags.GetInt("jobs"); err != nil {
		return f, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if f.format, err = flags.GetString("format"); err != nil {
		return f, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch f.format = strings.ToLower(f.format); f.format {
	case "pretty", "json", "short":
	default:
		return f, fmt.Errorf("unknown format %q (expected pretty|json|short)", f.format)
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return f, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if f.ui, err = readUIMode(uiValue); err != nil {
		return f, err
	}
	if f.diskCache, err = flags.GetBool("disk-cache"); err != nil {
		return f, fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	if f.dropCache, err = flags.GetBool("drop-cache"); err != nil {
		return f, fmt.Errorf("failed to get drop-cache flag: %w", err)
	}
	if f.emit, err = flags.GetString("emit-results"); err != nil {
		return f, fmt.Errorf("failed to get emit-results flag: %w", err)
	}
	if f.emit != "" && f.emit != "yaml" {
		return f, fmt.Errorf("unknown --emit-results format %q (expected yaml)", f.emit)
	}
	if f.emitNodes, err = flags.GetBool("emit-nodes"); err != nil {
		return f, fmt.Errorf("failed to get emit-nodes flag: %w", err)
	}
	if f.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return f, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if f.basename, err = flags.GetBool("basename"); err != nil {
		return f, fmt.Errorf("failed to get basename flag: %w", err)
	}
	if f.fix, err = flags.GetBool("fix"); err != nil {
		return f, fmt.Errorf("failed to get fix flag: %w", err)
	}
	if f.preview, err = flags.GetBool("preview"); err != nil {
		return f, fmt.Errorf("failed to get preview flag: %w", err)
	}
	if f.color, err = root.GetString("color"); err != nil {
		return f, fmt.Errorf("failed to get color flag: %w", err)
	}
	if f.quiet, err = root.GetBool("quiet"); err != nil {
		return f, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if f.timings, err = root.GetBool("timings"); err != nil {
		return f, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if f.max, err = root.GetInt("max-diagnostics"); err != nil {
		return f, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if f.config, err = root.GetString("config"); err != nil {
		return f, fmt.Errorf("failed to get config flag: %w", err)
	}
	return f, nil
}

// runCheck loads the configuration, checks the input and renders the
// diagnostics of every checked file. It returns errHasErrors when any file
// has an error diagnostic.
func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := readCheckFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f.config, path)
	if err != nil {
		return err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	var counter unitCounter
	tracer, stopTracing, err := setupTracing(cmd, cfg.Trace, counter.status)
	if err != nil {
		return err
	}
	defer stopTracing()

	opts := driver.Options{
		Jobs:           cfg.Jobs,
		MaxDiagnostics: cfg.Max,
		Target:         cfg.Target,
		Abis:           cfg.Abis,
		Tracer:         tracer,
		Timings:        f.timings && f.format == "json",
	}
	if tracer.Enabled() {
		opts.Progress = counter.observe
	}
	if f.jobs >= 0 {
		opts.Jobs = f.jobs
	}
	if f.max > 0 {
		opts.MaxDiagnostics = f.max
	}
	if f.diskCache || f.dropCache {
		cache, err := driver.OpenDiskCache("typeck")
		if err != nil {
			return fmt.Errorf("disk cache: %w", err)
		}
		if f.dropCache {
			if err := cache.DropAll(); err != nil {
				return fmt.Errorf("disk cache: %w", err)
			}
		}
		if f.diskCache {
			opts.Cache = cache
		}
	}

	var results []*driver.Result
	if f.ui.enabled(f.quiet) {
		results, err = runCheckWithUI(cmd.Context(), path, opts)
	} else {
		results, err = driver.CheckPath(cmd.Context(), path, opts)
	}
	if err != nil {
		if _, ok := ice.AsBug(err); ok {
			dumpTraceOnFailure(tracer)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if err := renderDiagnostics(out, results, f); err != nil {
		return err
	}
	if f.emit != "" {
		if err := driver.EmitResults(out, results, f.emitNodes); err != nil {
			return err
		}
	}
	if f.fix {
		if err := applyFixes(cmd, results, f.preview); err != nil {
			return err
		}
	}
	if f.timings && f.format != "json" {
		printTimings(cmd.ErrOrStderr(), results)
	}

	broken := 0
	for _, res := range results {
		if res.HasErrors() {
			broken++
		}
	}
	if !f.quiet && f.format == "pretty" {
		fmt.Fprintf(cmd.ErrOrStderr(), "checked %d files, %d with errors\n", len(results), broken)
	}
	if broken > 0 {
		return errHasErrors
	}
	return nil
}

func renderDiagnostics(out io.Writer, results []*driver.Result, f checkFlags) error {
	pathMode := diagfmt.PathModeAuto
	if f.basename {
		pathMode = diagfmt.PathModeBasename
	}
	for _, res := range results {
		fs := res.Input.Files
		switch f.format {
		case "pretty":
			diagfmt.Pretty(out, res.Bag, fs, diagfmt.PrettyOpts{
				Color:     useColor(f.color),
				PathMode:  pathMode,
				ShowNotes: f.withNotes,
				ShowFixes: f.withNotes,
			})
		case "json":
			if err := diagfmt.JSON(out, res.Bag, fs, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         pathMode,
				IncludeNotes:     f.withNotes,
			}); err != nil {
				return fmt.Errorf("failed to format diagnostics: %w", err)
			}
		case "short":
			if err := diagfmt.Short(out, res.Bag, fs, f.withNotes); err != nil {
				return fmt.Errorf("failed to format diagnostics: %w", err)
			}
		}
	}
	return nil
}

func useColor(mode string) bool {
	switch strings.ToLower(mode) {
	case "on", "always":
		return true
	case "off", "never":
		color.NoColor = true
		return false
	default:
		return isTerminal(os.Stdout) && !color.NoColor
	}
}
