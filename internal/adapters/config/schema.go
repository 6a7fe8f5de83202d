package config

// Lathefile represents the structure of the lathe.yaml configuration file.
type Lathefile struct {
	Version    string     `yaml:"version"`
	Root       string     `yaml:"root"`
	SourcePath []string   `yaml:"sourcePath"`
	Classpath  []string   `yaml:"classpath"`
	Entries    []string   `yaml:"entries"`
	Foundation string     `yaml:"foundation"`
	CacheDir   string     `yaml:"cacheDir"`
	StateFile  string     `yaml:"stateFile"`
	Persist    *bool      `yaml:"persist"`
	Volatile   []string   `yaml:"volatile"`
	MaxPasses  int        `yaml:"maxPasses"`
	Rebind     *RebindDTO `yaml:"rebind"`
}

// RebindDTO represents the rebind section of the configuration.
type RebindDTO struct {
	Rules  map[string][]string `yaml:"rules"`
	Script string              `yaml:"script"`
}
