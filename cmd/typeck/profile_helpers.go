package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"typeck/internal/prof"
)

func readProfilePaths(cmd *cobra.Command) (prof.Paths, error) {
	flags := cmd.Root().PersistentFlags()
	var p prof.Paths
	var err error
	if p.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return p, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if p.Mem, err = flags.GetString("mem-profile"); err != nil {
		return p, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if p.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return p, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return p, nil
}

// setupProfiling starts the profilers named by the persistent flags. The
// returned stop function may be called more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	paths, err := readProfilePaths(cmd)
	if err != nil {
		return nil, err
	}
	if !paths.Enabled() {
		return func() {}, nil
	}
	session, err := prof.Start(paths)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "profiling: %v\n", err)
		}
	}, nil
}
