// Package build holds build-time information.
package build

import "fmt"

// Version is the application version.
// It defaults to "dev" and can be overwritten by linker flags.
var Version = "dev"

// Commit is the VCS revision the binary was built from.
var Commit = "none"

// Date is the build timestamp.
var Date = "unknown"

// String renders the build information as printed by the version command.
func String() string {
	return fmt.Sprintf("%s (commit: %s, date: %s)", Version, Commit, Date)
}
