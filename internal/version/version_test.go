package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestPlainDefault(t *testing.T) {
	if got := Plain(); got != "0.1.0-dev" {
		t.Fatalf("Plain() = %q, want %q", got, "0.1.0-dev")
	}
}

func TestPlainCanBeOverridden(t *testing.T) {
	origMinor, origSuffix := Minor, Suffix
	defer func() { Minor, Suffix = origMinor, origSuffix }()

	Minor, Suffix = "4", ""
	if got := Plain(); got != "0.4.0" {
		t.Fatalf("Plain() = %q, want %q", got, "0.4.0")
	}
}

func TestColoredWithoutColorMatchesPlain(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	if Colored() != Plain() {
		t.Fatalf("Colored() = %q, want %q", Colored(), Plain())
	}
}

func TestDescribeBuildMetadata(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = origCommit, origDate }()

	GitCommit, BuildDate = "abc123", "2024-01-15"
	got := Describe(false)
	if !strings.HasPrefix(got, Plain()) {
		t.Fatalf("Describe() = %q, want prefix %q", got, Plain())
	}
	if !strings.HasSuffix(got, "(abc123, 2024-01-15)") {
		t.Fatalf("Describe() = %q, missing build metadata", got)
	}

	GitCommit = ""
	if got := Describe(false); !strings.HasSuffix(got, "(2024-01-15)") {
		t.Fatalf("Describe() = %q, missing build date", got)
	}
}
