package diagfmt

import (
	"encoding/json"
	"io"

	"typeck/internal/diag"
	"typeck/internal/source"
)

// LocationJSON is a span. Lines and columns are filled only with
// JSONOpts.IncludePositions.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type EditJSON struct {
	Location LocationJSON `json:"location"`
	NewText  string       `json:"new_text"`
	OldText  string       `json:"old_text,omitempty"`
}

type FixJSON struct {
	Title string     `json:"title"`
	Edits []EditJSON `json:"edits"`
}

type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput is the document written by JSON.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
}

type locator struct {
	fs        *source.FileSet
	pathMode  PathMode
	positions bool
}

func (l locator) at(span source.Span) LocationJSON {
	loc := LocationJSON{File: "<unknown>", StartByte: span.Start, EndByte: span.End}
	if l.fs == nil || !l.fs.HasFile(span.File) {
		return loc
	}
	loc.File = formatPath(l.fs.Get(span.File).Path, l.pathMode)
	if l.positions {
		start, end := l.fs.Resolve(span)
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc
}

// BuildDiagnosticsOutput builds the JSON document without encoding it.
// Timing reports always keep their notes since the payload lives there.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	loc := locator{fs: fs, pathMode: opts.PathMode, positions: opts.IncludePositions}
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}

	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, len(items))}
	for _, d := range items {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: loc.at(d.Primary),
		}
		if opts.IncludeNotes || d.Code == diag.ObsTimings {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: loc.at(n.Span)})
			}
		}
		if opts.IncludeNotes {
			for _, fix := range d.Fixes {
				fj := FixJSON{Title: fix.Title, Edits: make([]EditJSON, 0, len(fix.Edits))}
				for _, e := range fix.Edits {
					fj.Edits = append(fj.Edits, EditJSON{Location: loc.at(e.Span), NewText: e.NewText, OldText: e.OldText})
				}
				dj.Fixes = append(dj.Fixes, fj)
			}
		}
		if d.Severity.IsError() {
			out.Errors++
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON writes diagnostics as indented JSON.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
