// Package syntax holds the offset-addressed model shared by every analysis
// component: spans, classified tokens, syntax trees and the errors produced
// while building them. All offsets are UTF-8 byte offsets into the document text.
package syntax

import "fmt"

// Span addresses the half-open byte range [Start, End) of a document.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int { return s.End - s.Start }

// Valid reports whether the span is well formed for a text of length n.
func (s Span) Valid(n int) bool {
	return s.Start >= 0 && s.Start <= s.End && s.End <= n
}

// Contains reports whether offset lies inside the span, end excluded.
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset < s.End
}

// Touches is Contains with the end offset included, which is where an
// editor cursor sits right after typing an identifier.
func (s Span) Touches(offset int) bool {
	return s.Start <= offset && offset <= s.End
}

// Intersects reports whether two spans share at least one byte. An empty
// span intersects another span when it lies inside it.
func (s Span) Intersects(o Span) bool {
	if s.Start == s.End {
		return o.Touches(s.Start)
	}
	if o.Start == o.End {
		return s.Touches(o.Start)
	}
	return s.Start < o.End && o.Start < s.End
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}
