// Package diag defines the user-facing diagnostic channel shared by every
// checking phase.
//
// # Two channels
//
// Problems found while checking a body are user diagnostics: they carry a
// Code, a Severity, a primary span and optional notes, and they are always
// accumulated. Emitting a diagnostic never stops the pipeline; a phase that
// cannot produce a sensible type substitutes the error type and moves on.
//
// Broken compiler invariants are not diagnostics. They go through package
// ice, which aborts the current run. Keep the two apart: nothing in this
// package panics, and nothing in ice produces a Diagnostic.
//
// # Emitting diagnostics
//
// Phases hold a Reporter. Short reports call Reporter.Report directly;
// reports with notes or fixes build a ReportBuilder via ReportError /
// ReportWarning / ReportInfo and call Emit once. BagReporter stores into a
// Bag; DedupReporter and LockedReporter wrap another Reporter.
//
// # Consumers
//
//   - internal/diagfmt renders a Bag (pretty or short form).
//   - internal/driver merges per-unit bags and caches them on disk.
//   - tests use FormatShortDiagnostics for stable comparisons.
package diag
