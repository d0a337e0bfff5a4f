// Package store keeps grid layouts and view registrations in a diskv
// key/value directory. Each grid is one JSON blob keyed by its name.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"github.com/gabrielfornes/teagrid/internal/layout"
)

// DefaultGridName is the base name for new grids.
const DefaultGridName = "grid-layout"

const (
	gridPrefix = "grids/"
	viewPrefix = "views/"
)

// ErrInvalidName is returned for empty grid names or names containing a
// path separator.
var ErrInvalidName = errors.New("store: invalid grid name")

// Store is the diskv-backed blob store.
type Store struct {
	d        *diskv.Diskv
	basePath string
}

// Open creates a Store rooted at basePath.
func Open(basePath string) (*Store, error) {
	if basePath == "" {
		return nil, errors.New("store: base path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &Store{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	}), basePath: basePath}, nil
}

// BasePath returns the directory backing the store.
func (s *Store) BasePath() string {
	return s.basePath
}

// Load returns the named grid. A missing grid yields the default layout
// and found == false; a malformed one is migrated to something valid.
func (s *Store) Load(name string) (data layout.Data, found bool, err error) {
	if err := validName(name); err != nil {
		return layout.Data{}, false, err
	}
	key := gridPrefix + name
	if !s.d.Has(key) {
		return layout.Default(), false, nil
	}
	val, err := s.d.Read(key)
	if err != nil {
		return layout.Data{}, false, fmt.Errorf("store: read grid %s: %w", name, err)
	}
	return layout.Decode(val), true, nil
}

// Save writes the named grid.
func (s *Store) Save(name string, data layout.Data) error {
	if err := validName(name); err != nil {
		return err
	}
	b, err := layout.Encode(data)
	if err != nil {
		return err
	}
	if err := s.d.Write(gridPrefix+name, b); err != nil {
		return fmt.Errorf("store: write grid %s: %w", name, err)
	}
	return nil
}

// Delete removes the named grid.
func (s *Store) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := s.d.Erase(gridPrefix + name); err != nil {
		return fmt.Errorf("store: erase grid %s: %w", name, err)
	}
	return nil
}

// Exists reports whether a grid with this name is stored.
func (s *Store) Exists(name string) bool {
	return validName(name) == nil && s.d.Has(gridPrefix+name)
}

// Names lists stored grids alphabetically.
func (s *Store) Names(ctx context.Context) []string {
	var names []string
	for key := range s.d.KeysPrefix(gridPrefix, ctx.Done()) {
		names = append(names, strings.TrimPrefix(key, gridPrefix))
	}
	sort.Strings(names)
	return names
}

// CreateUnique stores a default grid under base, or base-1, base-2, ...
// when taken, and returns the name used.
func (s *Store) CreateUnique(base string) (string, error) {
	if base == "" {
		base = DefaultGridName
	}
	if err := validName(base); err != nil {
		return "", err
	}
	name := base
	for i := 1; s.Exists(name); i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	if err := s.Save(name, layout.Default()); err != nil {
		return "", err
	}
	return name, nil
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1] + ".json",
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	name := strings.TrimSuffix(pathKey.FileName, ".json")
	if len(pathKey.Path) == 0 {
		return name
	}
	return strings.Join(pathKey.Path, "/") + "/" + name
}
