package domain

// Project is the loaded build configuration of one source tree.
type Project struct {
	// Root is the absolute directory holding lathe.yaml.
	Root string
	// SourcePath lists absolute source roots, searched in order.
	SourcePath []string
	// Classpath lists absolute classpath entries; they feed the environment fingerprint.
	Classpath []string
	// Entries are the qualified names of the initial working set. Empty means every unit.
	Entries []string
	// Foundation is the qualified name of the type whose absence aborts a build.
	Foundation string
	// CacheDir is the absolute artifact cache directory.
	CacheDir string
	// StatePath is the absolute build state database path.
	StatePath string
	// Persist enables the on-disk cache and state.
	Persist bool
	// Volatile holds glob patterns of units treated as changed every cycle.
	Volatile []string
	// MaxPasses bounds the discovery loop.
	MaxPasses int
	Rebind    RebindConfig
}

// RebindConfig configures the rebind oracle.
type RebindConfig struct {
	// Rules maps a requested type to its candidate implementations.
	Rules map[string][]string
	// Script is the absolute path of an optional risor script.
	Script string
}
