package parser

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/tliron/commonlog"

	"kclsp/internal/sitteradapter"
	"kclsp/internal/syntax"
)

var log = commonlog.GetLogger("kclsp.parser")

// TreeSitter implements Tokenizer and Parser on top of a tree-sitter grammar.
// KCL pipes and fn declarations are masked into forms the grammar accepts
// before every parse; spans always address the original text.
type TreeSitter struct {
	pool *ParserPool
}

// NewTreeSitter creates a front end backed by poolSize parsers.
func NewTreeSitter(poolSize int) *TreeSitter {
	return &TreeSitter{pool: NewParserPool(poolSize, javascript.GetLanguage())}
}

// Tokenize implements Tokenizer.
func (ts *TreeSitter) Tokenize(ctx context.Context, src []byte) ([]syntax.Token, error) {
	if err := checkInput(src); err != nil {
		return nil, err
	}
	tree, err := ts.pool.Parse(ctx, sitteradapter.Mask(src))
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	defer tree.Close()

	tokens := sitteradapter.Classify(tree.RootNode(), src)
	log.Debugf("classified %d tokens", len(tokens))
	return tokens, nil
}

// Parse implements Parser. The tokens are not consulted; the grammar lexes
// the source itself.
func (ts *TreeSitter) Parse(ctx context.Context, src []byte, _ []syntax.Token) (*syntax.Tree, error) {
	tree, err := ts.pool.Parse(ctx, sitteradapter.Mask(src))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if perr := sitteradapter.FirstError(root, src); perr != nil {
		return nil, perr
	}
	return &syntax.Tree{
		Root:   sitteradapter.Convert(root, src),
		Source: string(src),
	}, nil
}

// Close releases the parser pool.
func (ts *TreeSitter) Close() error {
	return ts.pool.Close()
}

// checkInput rejects input the grammar would silently misread.
func checkInput(src []byte) error {
	for i := 0; i < len(src); {
		if src[i] == 0 {
			return &syntax.LexError{Offset: i, Message: "unexpected NUL byte"}
		}
		r, size := utf8.DecodeRune(src[i:])
		if r == utf8.RuneError && size <= 1 {
			return &syntax.LexError{Offset: i, Message: "invalid UTF-8 encoding"}
		}
		i += size
	}
	return nil
}
