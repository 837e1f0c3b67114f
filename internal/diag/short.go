package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"typeck/internal/source"
)

// shortLoc is a span resolved for the short form. Spans without a file
// resolve to "<unknown>:0:0".
type shortLoc struct {
	path      string
	line, col uint32
}

func resolveShort(fs *source.FileSet, span source.Span) shortLoc {
	if fs == nil || !fs.HasFile(span.File) {
		return shortLoc{path: "<unknown>"}
	}
	start, _ := fs.Resolve(span)
	path := filepath.ToSlash(fs.Get(span.File).Path)
	for strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	return shortLoc{path: path, line: start.Line, col: start.Col}
}

func (l shortLoc) compare(o shortLoc) int {
	return cmp.Or(
		strings.Compare(l.path, o.path),
		cmp.Compare(l.line, o.line),
		cmp.Compare(l.col, o.col),
	)
}

func (l shortLoc) String() string { return fmt.Sprintf("%s:%d:%d", l.path, l.line, l.col) }

// FormatShortDiagnostics renders one line per diagnostic,
// "<severity> <ID> <path>:<line>:<col> <message>", ordered by location, then
// severity, code and message. With includeNotes each note follows its
// diagnostic as a "note" line carrying the parent's ID. The output is stable
// across runs and is what tests compare against.
func FormatShortDiagnostics(diags []*Diagnostic, fs *source.FileSet, includeNotes bool) string {
	type entry struct {
		d   *Diagnostic
		loc shortLoc
	}
	entries := make([]entry, 0, len(diags))
	for _, d := range diags {
		if d != nil {
			entries = append(entries, entry{d: d, loc: resolveShort(fs, d.Primary)})
		}
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Or(
			a.loc.compare(b.loc),
			cmp.Compare(b.d.Severity, a.d.Severity),
			cmp.Compare(a.d.Code, b.d.Code),
			strings.Compare(a.d.Message, b.d.Message),
		)
	})

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		id := e.d.Code.ID()
		lines = append(lines, fmt.Sprintf("%s %s %s %s", e.d.Severity.Word(), id, e.loc, oneLine(e.d.Message)))
		if !includeNotes {
			continue
		}
		for _, n := range e.d.Notes {
			lines = append(lines, fmt.Sprintf("note %s %s %s", id, resolveShort(fs, n.Span), oneLine(n.Msg)))
		}
	}
	return strings.Join(lines, "\n")
}

// oneLine folds line breaks of msg into spaces.
func oneLine(msg string) string {
	msg = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(msg)
	return strings.TrimSpace(msg)
}
