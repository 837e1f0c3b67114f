// Package fuzztests houses Go fuzz harnesses for the program loaders and the
// body checker. They feed arbitrary bytes to the YAML loader and the binary
// HIR decoder and check every program that loads, guarding against panics
// that are not internal compiler errors and against hangs.
//
// Dependencies: internal/source, internal/hir, internal/typeck, internal/ice.
package fuzztests
