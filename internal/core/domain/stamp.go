package domain

// Stamp is the version marker attached to every cache entry.
// An entry is served only if its stamp equals the one the reader expects.
type Stamp struct {
	// Env is the environment fingerprint (effective classpath and tool version).
	Env string
	// SourceTime is the source modification time in nanoseconds for unit entries, zero otherwise.
	SourceTime int64
}

// Equal reports whether two stamps describe the same version.
func (s Stamp) Equal(other Stamp) bool {
	return s.Env == other.Env && s.SourceTime == other.SourceTime
}

// UnitRecord is the persisted knowledge about one unit from a previous build.
type UnitRecord struct {
	Location     string
	LastModified int64
	Transient    bool
	// Types lists the binary names of the types the unit declared.
	Types []string
}

// Edge is a dependency edge from a referrer unit to the unit it references.
type Edge struct {
	From string
	To   string
}

// BuildState is what a build leaves behind for the first build of the next process.
type BuildState struct {
	Fingerprint string
	Units       map[string]UnitRecord
	Edges       []Edge
}

// NewBuildState creates an empty BuildState.
func NewBuildState(fingerprint string) *BuildState {
	return &BuildState{
		Fingerprint: fingerprint,
		Units:       make(map[string]UnitRecord),
	}
}
