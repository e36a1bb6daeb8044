package internal

import (
	"fmt"
	"strings"
)

// Position represents a location in a template buffer
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// calculatePosition calculates the Position (line, column, offset) for a given prefix string.
func calculatePosition(prefix string) Position {
	pos := Position{
		Offset: len(prefix),
		Line:   1,
		Column: 1,
	}
	if nl := strings.Count(prefix, StrNewline); nl > 0 {
		pos.Line += nl
		pos.Column = len(prefix) - strings.LastIndexByte(prefix, CharNewline)
	} else {
		pos.Column += len(prefix)
	}
	return pos
}

// positionAt returns the position of offset within source, clamping out-of-range offsets.
func positionAt(source string, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}
	return calculatePosition(source[:offset])
}
