// Package semtok encodes classified tokens into the relative, delta-compressed
// stream that semantic token responses carry.
package semtok

import (
	"fmt"
	"sort"

	"kclsp/internal/position"
	"kclsp/internal/syntax"
)

// Delta is one encoded token. Start is relative to the previous token's start
// when both share a line, otherwise it is the start within the line.
type Delta struct {
	Line   uint32
	Start  uint32
	Length uint32
	Kind   syntax.TokenKind
}

// Encode orders tokens by start offset and emits their deltas. Starts and
// lengths are in the editor's UTF-16 units. When rng is
// non-nil only tokens intersecting it are emitted and the baseline restarts at
// (0, 0), so a range response stands on its own.
func Encode(text string, tokens []syntax.Token, rng *syntax.Span) ([]Delta, error) {
	sorted := make([]syntax.Token, 0, len(tokens))
	for _, tok := range tokens {
		if rng != nil && !tok.Span().Intersects(*rng) {
			continue
		}
		sorted = append(sorted, tok)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	out := make([]Delta, 0, len(sorted))
	var prevLine, prevStart uint32
	for _, tok := range sorted {
		if !tok.Span().Valid(len(text)) {
			return nil, fmt.Errorf("token %s %s: %w", tok.Kind, tok.Span(), position.ErrOutOfRange)
		}
		pos, err := position.ToPosition(text, tok.Start)
		if err != nil {
			return nil, err
		}
		d := Delta{
			Line:   pos.Line - prevLine,
			Start:  pos.Character,
			Length: uint32(position.UTF16Len(text[tok.Start : tok.Start+tok.Length])),
			Kind:   tok.Kind,
		}
		if d.Line == 0 {
			d.Start = pos.Character - prevStart
		}
		out = append(out, d)
		prevLine, prevStart = pos.Line, pos.Character
	}
	return out, nil
}

// Flatten lays deltas out as the five-integer groups of the wire format.
// Modifiers are not used and always encode as zero.
func Flatten(deltas []Delta) []uint32 {
	data := make([]uint32, 0, len(deltas)*5)
	for _, d := range deltas {
		data = append(data, d.Line, d.Start, d.Length, uint32(d.Kind), 0)
	}
	return data
}

// Absolute is a decoded token position.
type Absolute struct {
	Line   uint32
	Start  uint32
	Length uint32
	Kind   syntax.TokenKind
}

// Decode walks a delta stream cumulatively and recovers absolute positions.
func Decode(deltas []Delta) []Absolute {
	out := make([]Absolute, 0, len(deltas))
	var line, start uint32
	for _, d := range deltas {
		if d.Line == 0 {
			start += d.Start
		} else {
			line += d.Line
			start = d.Start
		}
		out = append(out, Absolute{Line: line, Start: start, Length: d.Length, Kind: d.Kind})
	}
	return out
}
