package driver

import (
	"encoding/json"
	"fmt"

	"typeck/internal/diag"
	"typeck/internal/observ"
	"typeck/internal/source"
)

// timingPayload is the JSON note of an ObsTimings diagnostic.
type timingPayload struct {
	Path   string `json:"path"`
	Units  int    `json:"units"`
	Errors int    `json:"errors"`
	observ.Report
}

func newTimingPayload(res *Result) timingPayload {
	return timingPayload{
		Path:   res.Input.Path,
		Units:  res.Units,
		Errors: res.Bag.ErrorCount(),
		Report: res.Timings,
	}
}

// appendTimingDiagnostic attaches the timing report of res to its bag as an
// info diagnostic, lifting the bag limit when it is already full.
func appendTimingDiagnostic(res *Result) error {
	payload := newTimingPayload(res)
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode timings: %w", err)
	}
	d := diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan,
		fmt.Sprintf("timings: %.2f ms over %d units in %s", payload.TotalMS, payload.Units, payload.Path))
	d.Notes = []diag.Note{{Span: source.NoSpan, Msg: string(data)}}

	if !res.Bag.Add(d) {
		extra := diag.NewBag(1)
		extra.Add(d)
		res.Bag.Merge(extra)
	}
	return nil
}
