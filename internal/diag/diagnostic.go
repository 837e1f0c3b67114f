package diag

import (
	"typeck/internal/source"
)

// Note attaches secondary context to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit replaces the text under Span with NewText. A non-empty OldText
// must match the current text for the edit to apply.
type FixEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Fix is a suggested edit set.
type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic is a single user-facing finding.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

// New constructs a diagnostic without notes.
func New(sev Severity, code Code, primary source.Span, msg string) *Diagnostic {
	return &Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

// NewError is New with SevError.
func NewError(code Code, primary source.Span, msg string) *Diagnostic {
	return New(SevError, code, primary, msg)
}
