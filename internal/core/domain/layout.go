package domain

import "path/filepath"

const (
	// LatheDirName is the name of the internal project directory.
	LatheDirName = ".lathe"

	// CacheDirName is the name of the artifact cache directory.
	CacheDirName = "cache"

	// StateFileName is the name of the build state database.
	StateFileName = "state.db"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "lathe.yaml"

	// SourceExt is the extension of translation units.
	SourceExt = ".java"

	// PackageInfoName is the file name of package descriptor units.
	PackageInfoName = "package-info"

	// DefaultFoundation is the type whose absence aborts a build.
	DefaultFoundation = "java.lang.Object"

	// DefaultMaxPasses bounds the number of discovery passes per cycle.
	DefaultMaxPasses = 64

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultCachePath returns the default artifact cache directory relative to the project root.
func DefaultCachePath() string {
	return filepath.Join(LatheDirName, CacheDirName)
}

// DefaultStatePath returns the default build state path relative to the project root.
func DefaultStatePath() string {
	return filepath.Join(LatheDirName, StateFileName)
}
