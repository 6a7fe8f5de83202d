package domain

import "go.trai.ch/zerr"

var (
	// ErrFoundationMissing is returned when the foundational type (java.lang.Object by default)
	// cannot be found on the source path. It aborts the whole build cycle.
	ErrFoundationMissing = zerr.New("foundational type missing")

	// ErrDiscoveryDiverged is returned when the discovery loop exceeds its pass limit.
	ErrDiscoveryDiverged = zerr.New("discovery did not reach a fixpoint")

	// ErrResolverFailed is returned when the front-end resolver fails as a whole.
	ErrResolverFailed = zerr.New("front-end resolver failed")

	// ErrInvalidBuilderState is returned when a type model builder operation is called out of order.
	ErrInvalidBuilderState = zerr.New("invalid type model builder state")

	// ErrUnresolvedReference is returned when a type reference cannot be resolved against the model.
	ErrUnresolvedReference = zerr.New("unresolved type reference")

	// ErrTypeNotFound is returned when a requested type is not in the model.
	ErrTypeNotFound = zerr.New("type not found")

	// ErrConfigNotFound is returned when no lathe.yaml can be found.
	ErrConfigNotFound = zerr.New("could not find lathe.yaml")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when a config field holds an invalid value.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrSourceReadFailed is returned when a unit's source text cannot be read.
	ErrSourceReadFailed = zerr.New("failed to read source")

	// ErrSourceScanFailed is returned when the source path cannot be walked.
	ErrSourceScanFailed = zerr.New("failed to scan source path")

	// ErrStateOpenFailed is returned when the build state database cannot be opened.
	ErrStateOpenFailed = zerr.New("failed to open build state")

	// ErrStateLoadFailed is returned when the build state cannot be loaded.
	ErrStateLoadFailed = zerr.New("failed to load build state")

	// ErrStateSaveFailed is returned when the build state cannot be saved.
	ErrStateSaveFailed = zerr.New("failed to save build state")

	// ErrCacheClearFailed is returned when the artifact cache directory cannot be removed.
	ErrCacheClearFailed = zerr.New("failed to clear artifact cache")

	// ErrCacheEntryCorrupt is returned when a persisted cache file cannot be decoded.
	ErrCacheEntryCorrupt = zerr.New("corrupt cache entry")

	// ErrUnitDecodeFailed is returned when a cached resolved unit cannot be decoded.
	ErrUnitDecodeFailed = zerr.New("failed to decode cached unit")

	// ErrRebindScriptFailed is returned when the rebind script fails to evaluate.
	ErrRebindScriptFailed = zerr.New("rebind script failed")

	// ErrRebindScriptResult is returned when the rebind script yields something other than names.
	ErrRebindScriptResult = zerr.New("rebind script must return a string or a list of strings")

	// ErrWatcherFailed is returned when the file system watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start watcher")

	// ErrBuildHasErrors is returned when a build stabilizes with error diagnostics.
	ErrBuildHasErrors = zerr.New("build finished with errors")
)
