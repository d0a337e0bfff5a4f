// Package markdown renders note text for terminal display.
package markdown

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// DefaultStyle is the glamour style used when none is configured.
const DefaultStyle = "dark"

// minWidth keeps word wrapping sane in very narrow cells.
const minWidth = 10

// Renderer renders markdown with glamour. Term renderers are cached per
// wrap width; Render may be called from several goroutines.
type Renderer struct {
	style string

	mu      sync.Mutex
	byWidth map[int]*glamour.TermRenderer
}

// New returns a Renderer using the named standard glamour style.
func New(style string) *Renderer {
	if style == "" {
		style = DefaultStyle
	}
	return &Renderer{style: style, byWidth: make(map[int]*glamour.TermRenderer)}
}

// Render renders text for a cell width columns wide. The note path is used
// only for error context.
func (r *Renderer) Render(ctx context.Context, text, path string, width int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minWidth {
		width = minWidth
	}

	// glamour's TermRenderer is not safe for concurrent use, so the lock
	// covers rendering too.
	r.mu.Lock()
	defer r.mu.Unlock()

	tr, ok := r.byWidth[width]
	if !ok {
		// Use a fixed style to avoid slow terminal background detection.
		var err error
		tr, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", fmt.Errorf("could not create renderer for %s: %w", path, err)
		}
		r.byWidth[width] = tr
	}

	out, err := tr.Render(text)
	if err != nil {
		return "", fmt.Errorf("could not render %s: %w", path, err)
	}
	return strings.TrimSpace(out), nil
}
