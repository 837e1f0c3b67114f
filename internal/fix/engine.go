package fix

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"typeck/internal/diag"
	"typeck/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first fix in source order.
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	ApplyModeID
)

// ApplyOptions configures how fixes are selected and written.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// Rewrite adapts the replacement text to the file it lands in, e.g.
	// quoting for YAML. Nil keeps the text as is.
	Rewrite func(file *source.File, text string) string
	// DryRun computes the new contents without writing files.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID          string
	Title       string
	Code        diag.Code
	Message     string
	PrimaryPath string
	EditCount   int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  *diag.Diagnostic
	fix   diag.Fix
	id    string
	order int
}

// Apply collects fixes from diagnostics, selects a subset according to opts
// and applies them to the files of fs.
func Apply(fs *source.FileSet, diagnostics []*diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates, skips := gatherCandidates(diagnostics)
	result.Skipped = append(result.Skipped, skips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	sortCandidates(candidates)

	selected, skips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, skips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skips, changes, err := applyCandidates(fs, selected, opts)
	result.Applied = applied
	result.Skipped = append(result.Skipped, skips...)
	result.FileChanges = changes
	if err != nil {
		return result, err
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

// gatherCandidates turns every fix of every diagnostic into a candidate with
// an id of the form <code>-<file>-<start>-<index>. Fixes without edits and
// repeated ids are skipped.
func gatherCandidates(diagnostics []*diag.Diagnostic) ([]candidate, []SkippedFix) {
	var cands []candidate
	var skips []SkippedFix
	seen := make(map[string]bool)
	order := 0
	for _, d := range diagnostics {
		for idx, f := range d.Fixes {
			id := fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, idx)
			if len(f.Edits) == 0 {
				skips = append(skips, SkippedFix{ID: id, Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			if seen[id] {
				skips = append(skips, SkippedFix{ID: id, Title: f.Title, Reason: "duplicate fix id"})
				continue
			}
			seen[id] = true
			cands = append(cands, candidate{diag: d, fix: f, id: id, order: order})
			order++
		}
	}
	return cands, skips
}

// sortCandidates orders candidates by primary file and span, then by
// insertion order.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].diag, candidates[j].diag
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		return candidates[i].order < candidates[j].order
	})
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.id == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
	case ApplyModeAll:
		return candidates, nil
	case ApplyModeOnce:
		return candidates[:1], nil
	default:
		return nil, nil
	}
}

func applyCandidates(fs *source.FileSet, selected []candidate, opts ApplyOptions) ([]AppliedFix, []SkippedFix, []FileChange, error) {
	buffers := make(map[source.FileID][]byte)
	appliedEdits := make(map[source.FileID][]diag.FixEdit)
	editCount := make(map[source.FileID]int)

	var applied []AppliedFix
	var skipped []SkippedFix

	for _, cand := range selected {
		staged, stagedEdits, reason := stageFix(fs, cand.fix, buffers, appliedEdits, opts)
		if reason != "" {
			skipped = append(skipped, SkippedFix{ID: cand.id, Title: cand.fix.Title, Reason: reason})
			continue
		}
		total := 0
		for fileID, buf := range staged {
			buffers[fileID] = buf
			appliedEdits[fileID] = stagedEdits[fileID]
			n := len(stagedEdits[fileID]) - editCount[fileID]
			editCount[fileID] += n
			total += n
		}
		applied = append(applied, AppliedFix{
			ID:          cand.id,
			Title:       cand.fix.Title,
			Code:        cand.diag.Code,
			Message:     cand.diag.Message,
			PrimaryPath: filePath(fs, cand.diag.Primary.File),
			EditCount:   total,
		})
	}
	if len(applied) == 0 {
		return applied, skipped, nil, nil
	}

	ids := make([]source.FileID, 0, len(buffers))
	for id := range buffers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	changes := make([]FileChange, 0, len(ids))
	for _, id := range ids {
		file := fs.Get(id)
		if !opts.DryRun {
			mode := os.FileMode(0o644)
			if info, err := os.Stat(file.Path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(file.Path, buffers[id], mode); err != nil {
				return applied, skipped, changes, fmt.Errorf("write %s: %w", file.Path, err)
			}
		}
		changes = append(changes, FileChange{Path: file.Path, EditCount: editCount[id], Content: buffers[id]})
	}
	return applied, skipped, changes, nil
}

// stageFix applies the edits of f on top of the current buffers. Nothing is
// committed unless every edit applies; a non-empty reason says why not.
func stageFix(fs *source.FileSet, f diag.Fix, buffers map[source.FileID][]byte, appliedEdits map[source.FileID][]diag.FixEdit, opts ApplyOptions) (map[source.FileID][]byte, map[source.FileID][]diag.FixEdit, string) {
	staged := make(map[source.FileID][]byte)
	stagedEdits := make(map[source.FileID][]diag.FixEdit)

	for fileID, edits := range groupEditsByFile(f.Edits) {
		file := fs.Get(fileID)
		if file == nil {
			return nil, nil, "target file is unknown"
		}
		if file.Flags.Has(source.FileVirtual) {
			return nil, nil, "target file is virtual"
		}
		if conflictsWithExisting(appliedEdits[fileID], edits) {
			return nil, nil, fmt.Sprintf("conflicts with previously applied edits in %s", file.Path)
		}

		working := buffers[fileID]
		if working == nil {
			working = file.Content
		}
		working = append([]byte(nil), working...)
		existing := append([]diag.FixEdit(nil), appliedEdits[fileID]...)

		// back to front keeps earlier offsets valid
		sort.SliceStable(edits, func(i, j int) bool {
			if edits[i].Span.Start == edits[j].Span.Start {
				return edits[i].Span.End > edits[j].Span.End
			}
			return edits[i].Span.Start > edits[j].Span.Start
		})
		for _, edit := range edits {
			start := int(edit.Span.Start) + cumulativeDelta(existing, int(edit.Span.Start))
			end := int(edit.Span.End) + cumulativeDelta(existing, int(edit.Span.End))
			if start < 0 || end < start || end > len(working) {
				return nil, nil, "edit span out of range"
			}
			if edit.OldText != "" && string(working[start:end]) != edit.OldText {
				return nil, nil, "existing text does not match expected content"
			}
			if opts.Rewrite != nil {
				edit.NewText = opts.Rewrite(file, edit.NewText)
			}
			suffix := append([]byte(nil), working[end:]...)
			working = append(append(working[:start], edit.NewText...), suffix...)
			existing = insertEditSorted(existing, edit)
		}
		staged[fileID] = working
		stagedEdits[fileID] = existing
	}
	return staged, stagedEdits, ""
}

func conflictsWithExisting(existing, edits []diag.FixEdit) bool {
	for _, prev := range existing {
		for _, cand := range edits {
			if spansConflict(prev, cand) {
				return true
			}
		}
	}
	return false
}

// spansConflict reports whether two edits overlap. Spans are half-open; two
// insertions never conflict, an insertion conflicts with a span containing
// its position.
func spansConflict(a, b diag.FixEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart <= aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

func groupEditsByFile(edits []diag.FixEdit) map[source.FileID][]diag.FixEdit {
	buckets := make(map[source.FileID][]diag.FixEdit)
	for _, edit := range edits {
		buckets[edit.Span.File] = append(buckets[edit.Span.File], edit)
	}
	return buckets
}

// cumulativeDelta is the length change of applied edits that end at or
// before pos. Spans of applied edits refer to the original text.
func cumulativeDelta(edits []diag.FixEdit, pos int) int {
	delta := 0
	for _, e := range edits {
		eStart := int(e.Span.Start)
		if eStart > pos {
			break
		}
		eEnd := int(e.Span.End)
		if eEnd <= pos {
			delta += len(e.NewText) - (eEnd - eStart)
		}
	}
	return delta
}

func insertEditSorted(edits []diag.FixEdit, edit diag.FixEdit) []diag.FixEdit {
	i := sort.Search(len(edits), func(i int) bool {
		if edits[i].Span.Start == edit.Span.Start {
			return edits[i].Span.End >= edit.Span.End
		}
		return edits[i].Span.Start > edit.Span.Start
	})
	edits = append(edits, diag.FixEdit{})
	copy(edits[i+1:], edits[i:])
	edits[i] = edit
	return edits
}

func filePath(fs *source.FileSet, id source.FileID) string {
	if f := fs.Get(id); f != nil {
		return f.Path
	}
	return ""
}
