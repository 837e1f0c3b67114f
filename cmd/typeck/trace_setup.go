package main

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/spf13/cobra"

	"typeck/internal/trace"
	"typeck/internal/typeck"
)

// unitCounter tallies checked units for the trace heartbeat.
type unitCounter struct {
	units  atomic.Int64
	failed atomic.Int64
}

func (c *unitCounter) observe(_ string, ev typeck.ProgressEvent) {
	c.units.Add(1)
	if ev.Errors > 0 || ev.Err != nil {
		c.failed.Add(1)
	}
}

func (c *unitCounter) status() string {
	return fmt.Sprintf("%d units checked, %d with errors", c.units.Load(), c.failed.Load())
}

// setupTracing builds the tracer from the trace flags, falling back to the
// level of typeck.toml, and attaches it to the command context. The returned
// cleanup flushes and closes it.
// status, when set, is appended to every heartbeat.
func setupTracing(cmd *cobra.Command, configLevel string, status func() string) (trace.Tracer, func(), error) {
	flags := cmd.Root().PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	if levelStr == "" {
		levelStr = configLevel
	}
	// an output file without an explicit level traces phases
	if traceOutput != "" && !flags.Changed("trace-level") && (levelStr == "" || levelStr == "off") {
		levelStr = "phase"
	}
	if levelStr == "" {
		levelStr = "off"
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return trace.Nop, func() {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	if traceOutput != "" && mode == trace.ModeRing && !flags.Changed("trace-mode") {
		mode = trace.ModeStream
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval, status)
	}

	cleanup := func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

// dumpTraceOnFailure writes the ring buffer to stderr, the only record of
// what the checker was doing when an internal error stopped it.
func dumpTraceOnFailure(tracer trace.Tracer) {
	ring, ok := trace.Ring(tracer)
	if !ok {
		return
	}
	fmt.Fprintln(os.Stderr, "trace: last events before the failure:")
	if err := ring.Dump(os.Stderr, trace.FormatText); err != nil {
		fmt.Fprintf(os.Stderr, "trace: dump error: %v\n", err)
	}
}
