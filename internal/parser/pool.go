package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// ParserPool maintains a fixed set of tree-sitter parsers. A sitter.Parser is
// not safe for concurrent use, so each parse borrows one for its duration and
// the pool size bounds how many documents are parsed at once.
type ParserPool struct {
	pool chan *sitter.Parser
	lang *sitter.Language
}

// NewParserPool creates a ParserPool with n parsers for the given language.
func NewParserPool(n int, lang *sitter.Language) *ParserPool {
	if n < 1 {
		n = 1
	}
	pp := &ParserPool{
		pool: make(chan *sitter.Parser, n),
		lang: lang,
	}
	for i := 0; i < n; i++ {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		pp.pool <- p
	}
	return pp
}

// Parse performs a one-time parse of src with a parser from the pool. The
// caller owns the returned tree and must close it.
func (pp *ParserPool) Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var p *sitter.Parser
	select {
	case p = <-pp.pool:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { pp.pool <- p }()

	return p.ParseCtx(ctx, nil, src)
}

// Size reports the pool capacity.
func (pp *ParserPool) Size() int {
	return cap(pp.pool)
}

// Close releases all parsers in the pool. The pool must not be used afterwards.
func (pp *ParserPool) Close() error {
	for i := 0; i < cap(pp.pool); i++ {
		p := <-pp.pool
		p.Close()
	}
	return nil
}
