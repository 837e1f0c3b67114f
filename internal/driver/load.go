package driver

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"typeck/internal/hir"
	"typeck/internal/source"
)

// Digest is a SHA-256 content hash.
type Digest [32]byte

// Input is one program ready to be checked.
type Input struct {
	Path   string
	Files  *source.FileSet
	Prog   *hir.Program
	Digest Digest
}

// IsProgramFile reports whether path looks like a program the driver can
// load: a YAML description or an encoded HIR file.
func IsProgramFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".hir":
		return true
	}
	return false
}

// Load reads the program stored at path. YAML files go through the HIR
// loader; anything else must be the binary form written by hir.Encode.
func Load(path string) (*Input, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fs := source.NewFileSet()
	var prog *hir.Program
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		prog, err = hir.LoadYAML(fs, path, content)
	default:
		prog, err = hir.Decode(bytes.NewReader(content), fs)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &Input{
		Path:   path,
		Files:  fs,
		Prog:   prog,
		Digest: sha256.Sum256(content),
	}, nil
}
