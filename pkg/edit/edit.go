// Package edit computes source text edits for formatting requests made from
// the rendered preview, and applies them.
package edit

import "fmt"

// TextEdit replaces the bytes [StartOffset, EndOffset) of a document.
type TextEdit struct {
	// StartOffset is the byte index where the edit begins (inclusive).
	StartOffset int

	// EndOffset is the byte index where the edit ends (exclusive).
	EndOffset int

	// NewText is the replacement text. Empty for deletions.
	NewText string
}

// IsDeletion reports whether the edit only removes text.
func (e TextEdit) IsDeletion() bool {
	return e.NewText == "" && e.EndOffset > e.StartOffset
}

func (e TextEdit) String() string {
	return fmt.Sprintf("[%d:%d]=%q", e.StartOffset, e.EndOffset, e.NewText)
}

// Builder accumulates edits against one document.
type Builder struct {
	Edits []TextEdit
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{Edits: make([]TextEdit, 0, 1)}
}

// ReplaceRange adds an edit that replaces bytes [start, end) with newText.
func (b *Builder) ReplaceRange(start, end int, newText string) {
	b.Edits = append(b.Edits, TextEdit{
		StartOffset: start,
		EndOffset:   end,
		NewText:     newText,
	})
}

// Insert adds an edit that inserts text at offset.
func (b *Builder) Insert(offset int, text string) {
	b.ReplaceRange(offset, offset, text)
}

// Delete adds an edit that deletes bytes [start, end).
func (b *Builder) Delete(start, end int) {
	b.ReplaceRange(start, end, "")
}
