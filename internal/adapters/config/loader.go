// Package config provides the configuration loader for lathe.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// supportedVersion is the only configuration version understood.
const supportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds lathe.yaml at or above cwd and returns the project it describes.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var lathefile Lathefile
	if err := readAndUnmarshalYAML(configPath, &lathefile); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	return l.buildProject(configPath, &lathefile)
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, ""), "cwd", cwd)
}

func (l *Loader) buildProject(configPath string, f *Lathefile) (*domain.Project, error) {
	if f.Version != "" && f.Version != supportedVersion {
		return nil, invalid("version", f.Version, "unsupported version")
	}
	if len(f.SourcePath) == 0 {
		return nil, invalid("sourcePath", nil, "at least one source root is required")
	}
	if f.MaxPasses < 0 {
		return nil, invalid("maxPasses", f.MaxPasses, "must not be negative")
	}

	root := resolveRoot(configPath, f.Root)
	p := &domain.Project{
		Root:       root,
		Classpath:  resolvePaths(root, f.Classpath),
		Entries:    canonicalizeStrings(f.Entries),
		Foundation: f.Foundation,
		CacheDir:   resolvePath(root, f.CacheDir, domain.DefaultCachePath()),
		StatePath:  resolvePath(root, f.StateFile, domain.DefaultStatePath()),
		Persist:    f.Persist == nil || *f.Persist,
		Volatile:   canonicalizeStrings(f.Volatile),
		MaxPasses:  f.MaxPasses,
	}
	if p.Foundation == "" {
		p.Foundation = domain.DefaultFoundation
	}
	if p.MaxPasses == 0 {
		p.MaxPasses = domain.DefaultMaxPasses
	}

	seen := make(map[string]bool, len(f.SourcePath))
	for _, sp := range f.SourcePath {
		if strings.TrimSpace(sp) == "" {
			return nil, invalid("sourcePath", sp, "empty source root")
		}
		abs := resolvePath(root, sp, "")
		if seen[abs] {
			l.Logger.Warn(fmt.Sprintf("source root %s is listed more than once in %s", sp, domain.ConfigFileName))
			continue
		}
		seen[abs] = true
		p.SourcePath = append(p.SourcePath, abs)
	}

	for _, pattern := range p.Volatile {
		if strings.TrimSpace(pattern) == "" || strings.HasPrefix(pattern, "#") {
			return nil, invalid("volatile", pattern, "invalid pattern")
		}
	}

	for _, cp := range p.Classpath {
		if _, err := os.Stat(cp); err != nil {
			l.Logger.Warn(fmt.Sprintf("classpath entry %s does not exist", cp))
		}
	}

	if f.Rebind != nil {
		for requested, candidates := range f.Rebind.Rules {
			if len(candidates) == 0 {
				return nil, invalid("rebind.rules", requested, "rule without candidates")
			}
		}
		p.Rebind.Rules = f.Rebind.Rules
		if f.Rebind.Script != "" {
			p.Rebind.Script = resolvePath(root, f.Rebind.Script, "")
		}
	}
	return p, nil
}

func invalid(field string, value any, reason string) error {
	err := zerr.With(zerr.Wrap(domain.ErrConfigInvalid, reason), "field", field)
	if value != nil {
		err = zerr.With(err, "value", value)
	}
	return err
}

func canonicalizeStrings(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}

	// Sort strings
	sorted := make([]string, len(strs))
	copy(sorted, strs)
	slices.Sort(sorted)

	return slices.Compact(sorted)
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// resolvePath makes p absolute against root, falling back to def when p is empty.
func resolvePath(root, p, def string) string {
	if p == "" {
		p = def
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(root, p))
}

func resolvePaths(root string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, resolvePath(root, p, ""))
	}
	return out
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
// Unknown fields are rejected.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(configFile))
	dec.KnownFields(true)
	if parseErr := dec.Decode(target); parseErr != nil && !errors.Is(parseErr, io.EOF) {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
