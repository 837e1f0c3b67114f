package source

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"fortio.org/safecast"
)

// FileSet owns every file referenced by spans of one checking session.
// ID 0 is reserved so that the zero Span never resolves to a real file.
type FileSet struct {
	mu    sync.RWMutex
	files []File
	index map[string]FileID
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: []File{{}},
		index: make(map[string]FileID),
	}
}

// Add stores content under path and returns a fresh FileID.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	id := FileID(n)
	norm := filepath.ToSlash(filepath.Clean(path))
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    norm,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.index[norm] = id
	return id
}

// AddVirtual adds an in-memory file.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Load reads a file from disk, strips a UTF-8 BOM and normalizes CRLF.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var flags FileFlags
	if bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}) {
		content = content[3:]
		flags |= FileHadBOM
	}
	if bytes.Contains(content, []byte("\r\n")) {
		content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// HasFile reports whether id refers to a stored file.
func (fs *FileSet) HasFile(id FileID) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return id != 0 && int(id) < len(fs.files)
}

// Get returns the file for id or nil.
func (fs *FileSet) Get(id FileID) *File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if id == 0 || int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Lookup returns the latest file loaded under path.
func (fs *FileSet) Lookup(path string) (FileID, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	id, ok := fs.index[filepath.ToSlash(filepath.Clean(path))]
	return id, ok
}

// Resolve converts a span into line and column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Offset converts a 1-based line/column back to a byte offset.
// Positions past the end of the line clamp to the line end.
func (f *File) Offset(line, col uint32) uint32 {
	if f == nil || line == 0 {
		return 0
	}
	var start uint32
	if line > 1 {
		if int(line-2) >= len(f.LineIdx) {
			n, _ := safecast.Conv[uint32](len(f.Content))
			return n
		}
		start = f.LineIdx[line-2] + 1
	}
	end, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	if int(line-1) < len(f.LineIdx) {
		end = f.LineIdx[line-1]
	}
	off := start
	if col > 1 {
		off += col - 1
	}
	if off > end {
		off = end
	}
	return off
}

// GetLine returns the text of a 1-based line without its terminator.
func (f *File) GetLine(line uint32) string {
	if f == nil || line == 0 {
		return ""
	}
	start := f.Offset(line, 1)
	end := start
	for int(end) < len(f.Content) && f.Content[end] != '\n' {
		end++
	}
	return string(f.Content[start:end])
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for i, b := range content {
		if b == '\n' {
			// #nosec G115 -- content length is bounded by Add
			out = append(out, uint32(i))
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// number of newlines strictly before off
	line := sort.Search(len(lineIdx), func(i int) bool { return lineIdx[i] >= off })
	var lineStart uint32
	if line > 0 {
		lineStart = lineIdx[line-1] + 1
	}
	// #nosec G115 -- line < len(lineIdx)+1
	return LineCol{Line: uint32(line) + 1, Col: off - lineStart + 1}
}
