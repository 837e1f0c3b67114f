package source

import "fmt"

type (
	// FileID names a file of a FileSet. Zero is never a valid file.
	FileID uint32
	// FileFlags records how a file's content reached the set.
	FileFlags uint8
)

const (
	// FileVirtual is set for content added from memory, such as programs
	// built in tests; fixes are never written back to it.
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// Has reports whether all of flag is set.
func (f FileFlags) Has(flag FileFlags) bool { return f&flag == flag }

// File is one loaded HIR fixture or in-memory source.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offset of each '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based line and column.
type LineCol struct {
	Line uint32
	Col  uint32
}

// String renders "line:col".
func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Col) }
