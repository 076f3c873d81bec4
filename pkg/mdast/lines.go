// Package mdast provides line tables for markdown source text: conversion
// between byte offsets and 0-based line numbers, and per-line access.
package mdast

import (
	"sort"
	"strings"
)

// LineInfo describes the byte extent of one source line.
type LineInfo struct {
	// StartOffset is the byte index of the first byte of the line.
	StartOffset int

	// NewlineStart is the byte index where the line terminator begins
	// (equal to EndOffset for a line without terminator).
	NewlineStart int

	// EndOffset is the byte index just past the terminator.
	EndOffset int
}

// Lines is an immutable line table over a source string.
// A document always has at least one line; a trailing newline yields a final
// empty line, the way editors count lines.
type Lines struct {
	content string
	info    []LineInfo
}

// BuildLines constructs the line table for content.
// It handles both LF (\n) and CRLF (\r\n) line endings.
func BuildLines(content string) *Lines {
	info := make([]LineInfo, 0, strings.Count(content, "\n")+1)
	lineStart := 0

	for idx := range len(content) {
		if content[idx] != '\n' {
			continue
		}
		newlineStart := idx
		if idx > 0 && content[idx-1] == '\r' {
			newlineStart = idx - 1
		}
		info = append(info, LineInfo{
			StartOffset:  lineStart,
			NewlineStart: newlineStart,
			EndOffset:    idx + 1,
		})
		lineStart = idx + 1
	}

	info = append(info, LineInfo{
		StartOffset:  lineStart,
		NewlineStart: len(content),
		EndOffset:    len(content),
	})

	return &Lines{content: content, info: info}
}

// Content returns the source the table was built from.
func (l *Lines) Content() string {
	return l.content
}

// Count returns the number of lines.
func (l *Lines) Count() int {
	return len(l.info)
}

// Info returns the extent of a 0-based line.
// Out of range lines return the zero LineInfo.
func (l *Lines) Info(line int) LineInfo {
	if line < 0 || line >= len(l.info) {
		return LineInfo{}
	}
	return l.info[line]
}

// Start returns the byte offset where a 0-based line begins, or -1.
func (l *Lines) Start(line int) int {
	if line < 0 || line >= len(l.info) {
		return -1
	}
	return l.info[line].StartOffset
}

// Text returns the content of a 0-based line without its terminator.
func (l *Lines) Text(line int) string {
	if line < 0 || line >= len(l.info) {
		return ""
	}
	li := l.info[line]
	return l.content[li.StartOffset:li.NewlineStart]
}

// All returns the text of every line, without terminators.
func (l *Lines) All() []string {
	out := make([]string, len(l.info))
	for i := range l.info {
		out[i] = l.Text(i)
	}
	return out
}

// LineAt converts a byte offset to a 0-based line number using a binary
// search over the line table. Offsets before the start clamp to line 0 and
// offsets past the end clamp to the last line.
func (l *Lines) LineAt(offset int) int {
	if offset <= 0 {
		return 0
	}
	if offset >= len(l.content) {
		return len(l.info) - 1
	}

	idx := sort.Search(len(l.info), func(i int) bool {
		return l.info[i].EndOffset > offset
	})
	if idx >= len(l.info) {
		idx = len(l.info) - 1
	}
	return idx
}

// Position converts a byte offset to a 0-based line and byte column.
func (l *Lines) Position(offset int) Position {
	line := l.LineAt(offset)
	col := offset - l.info[line].StartOffset
	if col < 0 {
		col = 0
	}
	return Position{Line: line, Column: col}
}

// Offset converts a 0-based line and byte column to a byte offset.
// Returns (offset, true) on success, or (0, false) if out of range.
func (l *Lines) Offset(pos Position) (int, bool) {
	if pos.Line < 0 || pos.Line >= len(l.info) || pos.Column < 0 {
		return 0, false
	}
	li := l.info[pos.Line]
	offset := li.StartOffset + pos.Column
	if offset > li.NewlineStart {
		return 0, false
	}
	return offset, true
}
