package fuzztests

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"typeck/internal/hir"
	"typeck/internal/source"
)

const (
	maxSeedBytes = 64 << 10
	maxFuzzInput = 1 << 16
)

// yamlSeeds are small programs covering items, loops, closures and casts.
var yamlSeeds = []string{
	"",
	"{}\n",
	"items: [\n",
	"items:\n  - fn: f\n    ret: i32\n    body: 42\n",
	"items:\n  - fn: f\n    ret: i32\n    body: true\n",
	"items:\n  - const: X\n    ty: _\n    value: 5u8\n",
	"items:\n  - fn: f\n    body: {break: ~}\n",
	"items:\n  - fn: f\n    ret: char\n    body: {cast: 65, to: char}\n",
}

func addYAMLSeeds(f *testing.F) {
	for _, s := range yamlSeeds {
		f.Add([]byte(s))
	}
	for _, src := range testdataPrograms() {
		f.Add(src)
	}
}

// addEncodedSeeds adds the binary encoding of every testdata program.
func addEncodedSeeds(f *testing.F) {
	f.Add([]byte{})
	for _, src := range testdataPrograms() {
		prog, err := hir.LoadYAML(source.NewFileSet(), "seed.yaml", src)
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		if err := hir.Encode(&buf, prog); err != nil {
			continue
		}
		f.Add(clampSeed(buf.Bytes()))
	}
}

func testdataPrograms() [][]byte {
	root := filepath.Join("..", "hir", "testdata")
	var out [][]byte
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		out = append(out, clampSeed(src))
		return nil
	})
	return out
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
