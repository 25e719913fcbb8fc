// Package localstate keeps the small amount of client state that survives
// between runs: the remembered login email. Sessions are never stored.
package localstate

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDir        = "labrat"
	rememberEmail = "remember_email"
)

// DefaultDir returns $XDG_CONFIG_HOME/labrat or ~/.config/labrat.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appDir)
}

// Store reads and writes files under one directory.
type Store struct {
	dir string
}

// New returns a store rooted at dir; an empty dir means DefaultDir.
func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{dir: dir}
}

func (s *Store) path() string { return filepath.Join(s.dir, rememberEmail) }

// Remember overwrites the remembered email.
func (s *Store) Remember(email string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, []byte(email+"\n"), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path())
}

// Forget removes the remembered email. Nothing to remove is not an error.
func (s *Store) Forget() error {
	err := os.Remove(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// RememberedEmail returns the stored email or "" when none is stored.
func (s *Store) RememberedEmail() (string, error) {
	b, err := os.ReadFile(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
