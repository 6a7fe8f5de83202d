package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// Hasher computes content hashes and the environment fingerprint.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// Fingerprint computes the environment fingerprint from the tool version and the
// classpath. Entries are hashed in order, since classpath order decides shadowing.
// A missing entry is part of the environment too and does not fail the fingerprint.
func (h *Hasher) Fingerprint(version string, classpath []string) (string, error) {
	hasher := xxhash.New()
	_, _ = hasher.WriteString(version)
	_, _ = hasher.Write([]byte{0})

	for _, entry := range classpath {
		_, _ = hasher.WriteString(entry)
		_, _ = hasher.Write([]byte{0})
		if err := h.hashEntry(entry, hasher); err != nil {
			return "", err
		}
		_, _ = hasher.Write([]byte{0})
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func (h *Hasher) hashEntry(path string, hasher io.Writer) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			_, _ = hasher.Write([]byte("missing"))
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to stat classpath entry"), "path", path)
	}

	if !info.IsDir() {
		return h.hashFile(path, hasher)
	}
	for file := range h.walker.WalkFiles(path) {
		if err := h.hashFile(file, hasher); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hasher) hashFile(path string, hasher io.Writer) error {
	_, _ = hasher.Write([]byte(path))
	_, _ = hasher.Write([]byte{0})

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}

	if err := binary.Write(hasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}
