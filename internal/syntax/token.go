package syntax

// TokenKind indexes the published semantic token legend. The numeric values
// are part of the wire contract: append new kinds, never reorder.
type TokenKind uint32

const (
	TokenFunction TokenKind = iota
	TokenVariable
	TokenString
	TokenComment
	TokenNumber
	TokenKeyword
	TokenOperator
	TokenParameter
)

var legend = []string{
	"function",
	"variable",
	"string",
	"comment",
	"number",
	"keyword",
	"operator",
	"parameter",
}

// Legend returns the ordered token type names advertised to the client.
func Legend() []string {
	out := make([]string, len(legend))
	copy(out, legend)
	return out
}

func (k TokenKind) String() string {
	if int(k) < len(legend) {
		return legend[k]
	}
	return "unknown"
}

// Token is a classified lexical unit. Tokens never cross a line break.
type Token struct {
	Start  int
	Length int
	Kind   TokenKind
}

func (t Token) Span() Span {
	return Span{Start: t.Start, End: t.Start + t.Length}
}
