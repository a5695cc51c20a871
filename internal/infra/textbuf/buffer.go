// Package textbuf provides an in-memory document that satisfies domain.Editor.
package textbuf

import (
	"sync"
	"unicode/utf8"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// Ensure Buffer implements domain.Editor.
var _ domain.Editor = (*Buffer)(nil)

// Buffer is a headless editor: a document, a cursor, an optional selection
// and a ghost-text overlay. Safe for concurrent use.
// Fields are ordered to minimize memory padding.
type Buffer struct {
	selection    *domain.Range
	path         string
	text         string
	overlay      string
	overlayRange domain.Range
	cursor       domain.Position
	mu           sync.RWMutex
	hasOverlay   bool
}

// New creates a buffer holding text for the file at path.
func New(path, text string) *Buffer {
	return &Buffer{path: path, text: text}
}

// Text returns the full document text.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// FilePath returns the document path.
func (b *Buffer) FilePath() string {
	return b.path
}

// CursorPosition returns the cursor.
func (b *Buffer) CursorPosition() domain.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cursor
}

// Selection returns the selected range, if any.
func (b *Buffer) Selection() (domain.Range, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.selection == nil {
		return domain.Range{}, false
	}
	return *b.selection, true
}

// Select sets the selection. An empty range clears it.
func (b *Buffer) Select(r domain.Range) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.IsEmpty() {
		b.selection = nil
		return
	}
	b.selection = &r
}

// InsertText replaces r with text and clears the selection.
func (b *Buffer) InsertText(r domain.Range, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := domain.OffsetOf(b.text, r.Start)
	end := domain.OffsetOf(b.text, r.End)
	if end < start {
		start, end = end, start
	}
	b.text = b.text[:start] + text + b.text[end:]
	b.selection = nil
	return nil
}

// SetCursorPosition moves the cursor, clamped to the document.
func (b *Buffer) SetCursorPosition(p domain.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = b.clampLocked(p)
}

// RenderOverlay shows ghost text anchored at r.
func (b *Buffer) RenderOverlay(text string, r domain.Range) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overlay = text
	b.overlayRange = r
	b.hasOverlay = true
}

// ClearOverlay removes the ghost text.
func (b *Buffer) ClearOverlay() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overlay = ""
	b.overlayRange = domain.Range{}
	b.hasOverlay = false
}

// Overlay returns the ghost text currently shown.
func (b *Buffer) Overlay() (string, domain.Range, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.overlay, b.overlayRange, b.hasOverlay
}

// Preview returns the document with the overlay spliced in at its anchor,
// wrapped by open and close. Without an overlay it returns the text unchanged.
func (b *Buffer) Preview(open, close string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.hasOverlay {
		return b.text
	}
	off := domain.OffsetOf(b.text, b.overlayRange.Start)
	return b.text[:off] + open + b.overlay + close + b.text[off:]
}

func (b *Buffer) clampLocked(p domain.Position) domain.Position {
	if p.Line < 0 {
		return domain.Position{}
	}
	end := domain.Position{}.Advance(b.text)
	if p.Line > end.Line {
		return end
	}
	_, line := domain.SplitLine(b.text, domain.Position{Line: p.Line})
	width := utf8.RuneCountInString(line)
	if p.Column < 0 {
		p.Column = 0
	}
	if p.Column > width {
		p.Column = width
	}
	return p
}
