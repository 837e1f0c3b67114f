package diag

// Severity ranks a diagnostic. Bags sort higher severities first at the same
// location.
type Severity uint8

const (
	// SevInfo carries driver output such as per-phase timings.
	SevInfo Severity = iota
	SevWarning
	// SevError marks a body as ill-typed and counts toward ErrorCount.
	SevError
)

// IsError reports whether diagnostics of this severity are counted as errors.
func (s Severity) IsError() bool { return s >= SevError }

// Word is the lower-case label of the short format.
func (s Severity) Word() string {
	switch {
	case s.IsError():
		return "error"
	case s == SevWarning:
		return "warning"
	}
	return "info"
}

// String is the upper-case label of the pretty and JSON formats.
func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
