package domain

import "unicode/utf8"

// Position is a cursor location in a document.
// Line and Column are zero-based; Column counts runes within the line.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range spans from Start to End. An empty range (Start == End) is an insertion point.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// PointRange returns an empty range anchored at p.
func PointRange(p Position) Range {
	return Range{Start: p, End: p}
}

// IsEmpty reports whether the range covers no text.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Advance returns the position reached after inserting text at p.
// Embedded line breaks move to the following lines; the column restarts after each break.
func (p Position) Advance(text string) Position {
	end := p
	for _, r := range text {
		if r == '\n' {
			end.Line++
			end.Column = 0
			continue
		}
		end.Column++
	}
	return end
}

// Distance reports whether q is on the same line as p and, if so, the column distance between them.
func (p Position) Distance(q Position) (int, bool) {
	if p.Line != q.Line {
		return 0, false
	}
	d := p.Column - q.Column
	if d < 0 {
		d = -d
	}
	return d, true
}

// SplitLine returns the text before and after col (in runes) on the given line of text.
// Out-of-range lines yield empty strings; col is clamped to the line length.
func SplitLine(text string, pos Position) (before, after string) {
	line := lineAt(text, pos.Line)
	n := utf8.RuneCountInString(line)
	col := pos.Column
	if col < 0 {
		col = 0
	}
	if col > n {
		col = n
	}
	idx := byteOffset(line, col)
	return line[:idx], line[idx:]
}

// OffsetOf returns the byte offset of pos within text, clamped to text bounds.
func OffsetOf(text string, pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	line := 0
	start := 0
	for i := 0; i < len(text) && line < pos.Line; i++ {
		if text[i] == '\n' {
			line++
			start = i + 1
		}
	}
	if line < pos.Line {
		return len(text)
	}
	end := start
	for end < len(text) && text[end] != '\n' {
		end++
	}
	return start + byteOffset(text[start:end], pos.Column)
}

func lineAt(text string, n int) string {
	if n < 0 {
		return ""
	}
	line := 0
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		if line == n {
			return text[start:i]
		}
		line++
		start = i + 1
	}
	if line == n {
		return text[start:]
	}
	return ""
}

// byteOffset converts a rune column into a byte offset within s (clamped).
func byteOffset(s string, col int) int {
	if col <= 0 {
		return 0
	}
	i := 0
	for off := range s {
		if i == col {
			return off
		}
		i++
	}
	return len(s)
}
