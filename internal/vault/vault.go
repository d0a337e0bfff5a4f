// Package vault is the notes directory: a tree of markdown files addressed
// by slash-separated paths relative to its root.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInvalidPath is returned for paths that escape the vault or are not
// markdown notes.
var ErrInvalidPath = errors.New("vault: invalid note path")

// Note is a single markdown file in the vault.
type Note struct {
	Path  string // relative, slash separated, e.g. "projects/plan.md"
	Title string // base name without extension, e.g. "plan"
}

// Store handles all file system operations on the vault.
type Store struct {
	Root string
}

// New creates a Store rooted at root, creating the directory if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("vault root cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("could not resolve vault directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("could not create vault directory: %w", err)
	}
	return &Store{Root: abs}, nil
}

// --- Notes ---

// Lookup reports whether p names an existing note and returns its title.
func (s *Store) Lookup(p string) (string, bool) {
	full, err := s.abs(p)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	return Title(p), true
}

// Read returns the content of the note at p.
func (s *Store) Read(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := s.abs(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("could not read note %s: %w", p, err)
	}
	return string(data), nil
}

// Write writes content to the note at p, creating it and its directory if
// necessary.
func (s *Store) Write(p, content string) error {
	full, err := s.abs(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("could not ensure directory exists: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fmt.Errorf("could not write note %s: %w", p, err)
	}
	return nil
}

// Exists checks whether a note file exists.
func (s *Store) Exists(p string) bool {
	_, ok := s.Lookup(p)
	return ok
}

// List returns every note in the vault sorted by path. Hidden files and
// directories are skipped.
func (s *Store) List() ([]Note, error) {
	var notes []Note
	err := filepath.WalkDir(s.Root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if full != s.Root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(name, ".md") {
			return nil
		}
		rel, err := s.Rel(full)
		if err != nil {
			return nil
		}
		notes = append(notes, Note{Path: rel, Title: Title(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not list vault: %w", err)
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].Path < notes[j].Path
	})
	return notes, nil
}

// Abs returns the on-disk path for the note at p.
func (s *Store) Abs(p string) (string, error) {
	return s.abs(p)
}

// Rel converts an on-disk path under Root into a vault path.
func (s *Store) Rel(full string) (string, error) {
	rel, err := filepath.Rel(s.Root, full)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") || rel == ".." {
		return "", ErrInvalidPath
	}
	return rel, nil
}

// --- Helpers ---

// Title returns the display name of a note path.
func Title(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}

func (s *Store) abs(p string) (string, error) {
	if p == "" || !strings.HasSuffix(p, ".md") {
		return "", ErrInvalidPath
	}
	clean := path.Clean("/" + filepath.ToSlash(p))
	if clean == "/" {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
