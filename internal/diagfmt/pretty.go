package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"typeck/internal/diag"
	"typeck/internal/source"
)

type palette struct {
	err, warn, info, note, code, path, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		note:   mk(color.FgBlue, color.Bold),
		code:   mk(color.Bold),
		path:   mk(color.FgWhite, color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed, color.Bold),
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics in a human-readable form:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	   |
//	 3 | source line
//	   |     ^^^^
//
// followed by notes in the same format. Expects bag.Sort() beforehand.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		writeHeader(w, p, fs, opts, d.Primary, p.severity(d.Severity).Sprint(d.Severity.String()), d.Code.ID(), d.Message)
		writeSnippet(w, p, fs, d.Primary)
		if opts.ShowNotes || d.Code == diag.ObsTimings {
			for _, n := range d.Notes {
				writeHeader(w, p, fs, opts, n.Span, p.note.Sprint("NOTE"), "", n.Msg)
				writeSnippet(w, p, fs, n.Span)
			}
		}
		if opts.ShowFixes {
			for _, fix := range d.Fixes {
				fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("help:"), fix.Title)
				for _, e := range fix.Edits {
					if e.OldText != "" {
						fmt.Fprintf(w, "    %s: %q -> %q\n", locString(fs, opts, e.Span), e.OldText, e.NewText)
						continue
					}
					fmt.Fprintf(w, "    %s -> %q\n", locString(fs, opts, e.Span), e.NewText)
				}
			}
		}
	}
}

func writeHeader(w io.Writer, p palette, fs *source.FileSet, opts PrettyOpts, sp source.Span, sev, code, msg string) {
	loc := p.path.Sprint(locString(fs, opts, sp))
	if code != "" {
		fmt.Fprintf(w, "%s: %s %s: %s\n", loc, sev, p.code.Sprint(code), msg)
		return
	}
	fmt.Fprintf(w, "%s: %s: %s\n", loc, sev, msg)
}

func locString(fs *source.FileSet, opts PrettyOpts, sp source.Span) string {
	if fs == nil || !fs.HasFile(sp.File) {
		return "<unknown>"
	}
	f := fs.Get(sp.File)
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(f.Path, opts.PathMode), start.Line, start.Col)
}

func formatPath(path string, mode PathMode) string {
	if mode == PathModeBasename {
		return filepath.Base(path)
	}
	return path
}

func writeSnippet(w io.Writer, p palette, fs *source.FileSet, sp source.Span) {
	if fs == nil || !fs.HasFile(sp.File) {
		return
	}
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	num := fmt.Sprintf("%d", start.Line)
	pad := strings.Repeat(" ", len(num))
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		width = int(end.Col - start.Col)
	}
	fmt.Fprintf(w, "%s %s\n", pad, p.gutter.Sprint("|"))
	fmt.Fprintf(w, "%s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), line)
	fmt.Fprintf(w, "%s %s %s%s\n", pad, p.gutter.Sprint("|"),
		strings.Repeat(" ", int(start.Col-1)), p.caret.Sprint(strings.Repeat("^", width)))
}
