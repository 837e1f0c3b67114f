package version

import (
	"fmt"

	"github.com/fatih/color"
)

// Version information for the typeck CLI.
// Major, Minor, Patch and Suffix can be overridden at build time via -ldflags.

var (
	Major  = "0"
	Minor  = "1"
	Patch  = "0"
	Suffix = "-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Plain returns the version without color codes. It takes part in cache
// keys, so it must not depend on the terminal.
func Plain() string {
	return fmt.Sprintf("%s.%s.%s%s", Major, Minor, Patch, Suffix)
}

// Colored returns the version for terminal output.
func Colored() string {
	return majorColor.Sprint(Major) + "." + minorColor.Sprint(Minor) + "." + patchColor.Sprint(Patch) + Suffix
}

// Describe returns the version followed by the optional build metadata.
func Describe(colored bool) string {
	v := Plain()
	if colored {
		v = Colored()
	}
	if GitCommit != "" {
		v += " (" + GitCommit
		if BuildDate != "" {
			v += ", " + BuildDate
		}
		v += ")"
	} else if BuildDate != "" {
		v += " (" + BuildDate + ")"
	}
	return v
}
