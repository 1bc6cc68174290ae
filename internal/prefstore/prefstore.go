// Package prefstore persists the explicit user theme choice to a single
// per-user file. The file contains exactly the string "light" or "dark";
// absence of the file means no explicit choice has been made yet.
package prefstore

import (
	"errors"
	"os"
	"path/filepath"

	"shade-terminal/internal/theme"
)

const preferenceFileName = "theme"

// Store reads and writes the persisted theme preference.
type Store struct {
	path string
}

// New creates a store over an explicit file path. An empty path selects the
// default location under the user config directory.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// DefaultPath returns the standard preference file location:
// $XDG_CONFIG_HOME/shade/theme, falling back to ~/.config/shade/theme.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "shade", preferenceFileName)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "shade", preferenceFileName)
}

// Path returns the file backing this store.
func (s *Store) Path() string { return s.path }

// Load reads the persisted preference.
//
// A missing file reports ok=false with a nil error. Invalid contents are
// treated identically to absence: the stale value is reported through the
// error for diagnostics, but ok=false tells callers to fall through to the
// next preference source rather than surface a failure.
func (s *Store) Load() (theme.Theme, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return theme.Default, false, nil
	}
	if err != nil {
		return theme.Default, false, err
	}

	t, err := theme.Parse(string(data))
	if err != nil {
		return theme.Default, false, err
	}
	return t, true, nil
}

// Save writes the preference atomically: the value lands in a temp file in
// the same directory, then a rename swaps it in. Concurrent readers never
// observe a partial write.
func (s *Store) Save(t theme.Theme) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".theme-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	if _, err := tmpFile.WriteString(t.String() + "\n"); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0o600); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Clear removes the persisted preference. Clearing an absent preference is
// not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
