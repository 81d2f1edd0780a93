package syntax

import "fmt"

// LexError is returned by a tokenizer that cannot classify the input.
type LexError struct {
	Offset  int
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Offset, e.Message)
}

// Span returns a zero-width span at the failing offset.
func (e *LexError) Span() Span {
	return Span{Start: e.Offset, End: e.Offset}
}

// ParseError is returned by a parser that rejects the token stream.
type ParseError struct {
	Span    Span
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Span, e.Message)
}
