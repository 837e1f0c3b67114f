package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"typeck/internal/driver"
	"typeck/internal/typeck"
	"typeck/internal/ui"
)

type checkOutcome struct {
	results []*driver.Result
	err     error
}

// runCheckWithUI runs driver.CheckPath while a progress model renders its
// unit and file events.
func runCheckWithUI(ctx context.Context, path string, opts driver.Options) ([]*driver.Result, error) {
	files, err := driver.ProgramFiles(path)
	if err != nil {
		return nil, err
	}
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	observe := opts.Progress
	opts.Progress = func(file string, ev typeck.ProgressEvent) {
		if observe != nil {
			observe(file, ev)
		}
		events <- ui.Event{
			File:   file,
			Unit:   ev.Name,
			Done:   ev.Done,
			Total:  ev.Total,
			Errors: ev.Errors,
			Failed: ev.Err != nil,
		}
	}
	opts.Finished = func(file string, res *driver.Result, err error) {
		ev := ui.Event{File: file, Finished: true, Failed: err != nil}
		if res != nil {
			ev.Errors = res.Bag.ErrorCount()
			ev.Cached = res.Cached
		}
		events <- ev
	}

	go func() {
		results, err := driver.CheckPath(ctx, path, opts)
		outcomeCh <- checkOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("checking "+path, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep draining so the checker never blocks on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
