// Package file stores cart slots as files on the local disk.
package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/moby/sys/atomicwriter"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

var (
	_ cart.Slot         = (*Slot)(nil)
	_ cart.SlotProvider = (*Dir)(nil)
)

// Slot is a single cart persisted in one file. Writes replace the file
// atomically so a crash never leaves a half-written cart behind.
type Slot struct {
	path string
}

// New returns a Slot stored at path. Parent directories are created on the
// first write.
func New(path string) *Slot {
	return &Slot{path: path}
}

// DefaultPath returns the per-user location of the terminal cart.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "user config dir")
	}
	return filepath.Join(dir, "mateicos", "cart.json"), nil
}

// Path returns the file backing the slot.
func (s *Slot) Path() string { return s.path }

// Load reads the slot. A missing file is reported as cart.ErrNoState.
func (s *Slot) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cart.ErrNoState
		}
		return nil, errors.Wrap(err, "read cart file")
	}
	return data, nil
}

// Save replaces the slot contents.
func (s *Slot) Save(_ context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return errors.Wrap(err, "create cart directory")
	}
	if err := atomicwriter.WriteFile(s.path, data, filePerm); err != nil {
		return errors.Wrap(err, "write cart file")
	}
	return nil
}

// Dir keeps one file per named slot inside a directory.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Slot returns the slot with the given name.
func (d *Dir) Slot(name string) cart.Slot {
	return New(filepath.Join(d.root, fileName(name)))
}

// fileName maps a slot name to a portable file name.
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name) + ".json"
}
