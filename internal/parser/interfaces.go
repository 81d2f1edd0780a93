package parser

import (
	"context"

	"kclsp/internal/syntax"
)

// Tokenizer classifies a document into semantic tokens. It fails with a
// *syntax.LexError when the input cannot be lexed at all.
type Tokenizer interface {
	Tokenize(ctx context.Context, src []byte) ([]syntax.Token, error)
}

// Parser builds a syntax tree. It receives the source next to the tokens
// because grammar-backed parsers re-lex internally. It fails with a
// *syntax.ParseError.
type Parser interface {
	Parse(ctx context.Context, src []byte, tokens []syntax.Token) (*syntax.Tree, error)
}
