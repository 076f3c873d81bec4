package mdast

// SourceRange represents a byte range in the source content.
type SourceRange struct {
	// StartOffset is the byte index where the range begins (inclusive).
	StartOffset int

	// EndOffset is the byte index where the range ends (exclusive).
	EndOffset int
}

// Len returns the length of the range in bytes.
func (r SourceRange) Len() int {
	return r.EndOffset - r.StartOffset
}

// IsEmpty returns true if the range has zero length.
func (r SourceRange) IsEmpty() bool {
	return r.StartOffset == r.EndOffset
}

// Contains returns true if the given offset is within this range.
func (r SourceRange) Contains(offset int) bool {
	return offset >= r.StartOffset && offset < r.EndOffset
}

// Position is a 0-based line and byte column.
type Position struct {
	Line   int
	Column int
}

// Before reports whether p sorts before other in document order.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// LineSpan is a byte range confined to one 0-based source line.
// Start and End are byte columns within the line, End exclusive.
type LineSpan struct {
	Line  int
	Start int
	End   int
}

// Len returns the length of the span in bytes.
func (s LineSpan) Len() int {
	return s.End - s.Start
}
