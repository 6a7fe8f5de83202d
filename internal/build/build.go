// Package build holds build-time information.
package build

// These default to placeholders and are overwritten by linker flags.
var (
	// Version is the application version. It is part of the environment
	// fingerprint, so a new release never serves artifacts of an older one.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// Date is the build date.
	Date = "unknown"
)
