// Package detector selects the output mode from the terminal and CI environment.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputMode represents the rendering mode for the application.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeCompact prints one line per finished unit of work.
	ModeCompact
	// ModeLinear prints every start, output line and completion.
	ModeLinear
	// ModeTUI shows the interactive progress view.
	ModeTUI
)

// String returns the flag value of the mode.
func (m OutputMode) String() string {
	switch m {
	case ModeCompact:
		return "compact"
	case ModeLinear:
		return "linear"
	case ModeTUI:
		return "tui"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the recommended output mode.
// Interactive terminals get the progress view; pipes and CI get the full log.
func DetectEnvironment() OutputMode {
	return detect(term.IsTerminal(int(os.Stderr.Fd())), os.Getenv("CI"))
}

func detect(isTTY bool, ci string) OutputMode {
	isCI := ci == "true" || ci == "1"
	if !isTTY || isCI {
		return ModeLinear
	}
	return ModeTUI
}

// ResolveMode applies a user override flag to the detected mode.
// userFlag should be one of: "auto", "tui", "compact", "linear", "ci", or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch userFlag {
	case "tui":
		return ModeTUI
	case "compact":
		return ModeCompact
	case "linear", "ci":
		return ModeLinear
	default:
		return autoDetected
	}
}
