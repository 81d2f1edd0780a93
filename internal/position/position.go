// Package position converts between byte offsets and editor (line, character)
// positions. Offsets are UTF-8 bytes, the unit the parser reports. Character
// counts UTF-16 code units from the start of the line, the unit the editor
// protocol uses.
package position

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"kclsp/internal/syntax"
)

// ErrOutOfRange is returned for coordinates outside the text. Callers treat it
// as "no result"; nothing in this package clamps.
var ErrOutOfRange = errors.New("position out of range")

// Position is a zero-based (line, character) pair.
type Position struct {
	Line      uint32
	Character uint32
}

// Range is a half-open pair of positions.
type Range struct {
	Start Position
	End   Position
}

// Before orders positions by line, then character.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// UTF16Len returns the number of UTF-16 code units needed to encode s. An
// invalid byte counts as one unit, like the replacement character it decodes
// to.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// ToPosition maps a byte offset to its line and character. The offset must
// fall on a character boundary.
func ToPosition(text string, offset int) (Position, error) {
	if offset < 0 || offset > len(text) {
		return Position{}, fmt.Errorf("offset %d in text of length %d: %w", offset, len(text), ErrOutOfRange)
	}
	if offset < len(text) && !utf8.RuneStart(text[offset]) {
		return Position{}, fmt.Errorf("offset %d inside a character: %w", offset, ErrOutOfRange)
	}
	prefix := text[:offset]
	line := strings.Count(prefix, "\n")
	lineStart := strings.LastIndexByte(prefix, '\n') + 1
	return Position{Line: uint32(line), Character: uint32(UTF16Len(prefix[lineStart:]))}, nil
}

// ToOffset maps a line and character back to a byte offset. The character may
// address the end of the line but not its newline, anything past it, or the
// middle of a surrogate pair.
func ToOffset(text string, pos Position) (int, error) {
	lineStart := 0
	for i := uint32(0); i < pos.Line; i++ {
		next := strings.IndexByte(text[lineStart:], '\n')
		if next < 0 {
			return 0, fmt.Errorf("line %d past last line %d: %w", pos.Line, i, ErrOutOfRange)
		}
		lineStart += next + 1
	}
	lineEnd := strings.IndexByte(text[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += lineStart
	}
	offset, units := lineStart, uint32(0)
	for units < pos.Character {
		if offset >= lineEnd {
			return 0, fmt.Errorf("character %d past end of line %d: %w", pos.Character, pos.Line, ErrOutOfRange)
		}
		r, size := utf8.DecodeRuneInString(text[offset:lineEnd])
		units += uint32(utf16.RuneLen(r))
		offset += size
	}
	if units != pos.Character {
		return 0, fmt.Errorf("character %d splits a surrogate pair on line %d: %w", pos.Character, pos.Line, ErrOutOfRange)
	}
	return offset, nil
}

// SpanToRange maps both ends of a span.
func SpanToRange(text string, span syntax.Span) (Range, error) {
	start, err := ToPosition(text, span.Start)
	if err != nil {
		return Range{}, err
	}
	end, err := ToPosition(text, span.End)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

// RangeToSpan maps both ends of a range.
func RangeToSpan(text string, r Range) (syntax.Span, error) {
	start, err := ToOffset(text, r.Start)
	if err != nil {
		return syntax.Span{}, err
	}
	end, err := ToOffset(text, r.End)
	if err != nil {
		return syntax.Span{}, err
	}
	if end < start {
		return syntax.Span{}, fmt.Errorf("range %s-%s is inverted: %w", r.Start, r.End, ErrOutOfRange)
	}
	return syntax.Span{Start: start, End: end}, nil
}

// LineCount returns the number of lines in text; an empty text has one.
func LineCount(text string) int {
	return strings.Count(text, "\n") + 1
}
