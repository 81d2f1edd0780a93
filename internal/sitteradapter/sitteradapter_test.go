package sitteradapter_test

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"kclsp/internal/position"
	"kclsp/internal/sitteradapter"
	"kclsp/internal/syntax"
)

func parse(t *testing.T, src string) *sitter.Tree {
	t.Helper()
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestClassifySingleLine(t *testing.T) {
	src := "let x = 1"
	tree := parse(t, src)

	tokens := sitteradapter.Classify(tree.RootNode(), []byte(src))
	assert.Equal(t, []syntax.Token{
		{Start: 0, Length: 3, Kind: syntax.TokenKeyword},
		{Start: 4, Length: 1, Kind: syntax.TokenVariable},
		{Start: 6, Length: 1, Kind: syntax.TokenOperator},
		{Start: 8, Length: 1, Kind: syntax.TokenNumber},
	}, tokens)
}

func TestClassifyIdentifierRoles(t *testing.T) {
	src := "function add(a, b) {\n  return a + b\n}\nlet r = add(1, 2)"
	tree := parse(t, src)
	tokens := sitteradapter.Classify(tree.RootNode(), []byte(src))

	kinds := map[int]syntax.TokenKind{}
	for _, tok := range tokens {
		kinds[tok.Start] = tok.Kind
	}
	assert.Equal(t, syntax.TokenKeyword, kinds[0])    // function
	assert.Equal(t, syntax.TokenFunction, kinds[9])   // add
	assert.Equal(t, syntax.TokenParameter, kinds[13]) // a
	assert.Equal(t, syntax.TokenParameter, kinds[16]) // b
	assert.Equal(t, syntax.TokenKeyword, kinds[23])   // return
	assert.Equal(t, syntax.TokenOperator, kinds[32])  // +
	assert.Equal(t, syntax.TokenVariable, kinds[42])  // r
	assert.Equal(t, syntax.TokenFunction, kinds[46])  // add(...)
	assert.Equal(t, syntax.TokenNumber, kinds[50])    // 1
}

func TestClassifySplitsMultiLineComment(t *testing.T) {
	src := "/* one\ntwo */\nlet x = 1"
	tree := parse(t, src)
	tokens := sitteradapter.Classify(tree.RootNode(), []byte(src))

	require.GreaterOrEqual(t, len(tokens), 2)
	assert.Equal(t, syntax.Token{Start: 0, Length: 6, Kind: syntax.TokenComment}, tokens[0])
	assert.Equal(t, syntax.Token{Start: 7, Length: 6, Kind: syntax.TokenComment}, tokens[1])
	for _, tok := range tokens {
		assert.NotContains(t, src[tok.Start:tok.Start+tok.Length], "\n")
	}
}

func TestConvertDeclarations(t *testing.T) {
	src := "let x = 1\nlet y = x + 2"
	tree := parse(t, src)
	root := sitteradapter.Convert(tree.RootNode(), []byte(src))

	require.Equal(t, syntax.KindProgram, root.Kind)
	require.Len(t, root.Children, 2)

	first := root.Children[0]
	require.Equal(t, syntax.KindDeclaration, first.Kind)
	binds := first.Bindings()
	require.Len(t, binds, 1)
	assert.Equal(t, "x", binds[0].Name)
	assert.Equal(t, syntax.BindLet, binds[0].Binding)
	assert.Equal(t, syntax.Span{Start: 4, End: 5}, binds[0].Span)
	assert.Equal(t, syntax.KindNumber, first.Value().Kind)

	second := root.Children[1]
	value := second.Value()
	require.NotNil(t, value)
	assert.Equal(t, syntax.KindBinary, value.Kind)
	assert.Equal(t, "+", value.Name)
	require.Len(t, value.Children, 2)
	assert.Equal(t, syntax.KindIdentifier, value.Children[0].Kind)
	assert.Equal(t, syntax.BindNone, value.Children[0].Binding)
	assert.Equal(t, syntax.Span{Start: 18, End: 19}, value.Children[0].Span)
}

func TestConvertFunctions(t *testing.T) {
	src := "const f = (a, b = 2) => a * b\nfunction g(p) { return p }"
	tree := parse(t, src)
	root := sitteradapter.Convert(tree.RootNode(), []byte(src))
	require.Len(t, root.Children, 2)

	arrow := root.Children[0]
	assert.Equal(t, syntax.BindConst, arrow.Bindings()[0].Binding)
	fn := arrow.Value()
	require.Equal(t, syntax.KindFunction, fn.Kind)
	var params []string
	for _, c := range fn.Children {
		if c.Binding == syntax.BindParam {
			params = append(params, c.Name)
		}
	}
	assert.Equal(t, []string{"a", "b"}, params)

	decl := root.Children[1]
	require.Equal(t, syntax.KindDeclaration, decl.Kind)
	assert.Equal(t, "g", decl.Bindings()[0].Name)
	assert.Equal(t, syntax.BindFn, decl.Bindings()[0].Binding)
	body := decl.Value()
	require.Equal(t, syntax.KindFunction, body.Kind)
	assert.Equal(t, syntax.KindBlock, body.Children[len(body.Children)-1].Kind)
}

func TestConvertMultipleDeclarators(t *testing.T) {
	src := "let a = 1, b = 'x'"
	tree := parse(t, src)
	root := sitteradapter.Convert(tree.RootNode(), []byte(src))

	var names []string
	root.Walk(func(n *syntax.Node) bool {
		if n.Kind == syntax.KindIdentifier && n.Binding == syntax.BindLet {
			names = append(names, n.Name)
		}
		return true
	})
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestFirstError(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		src := "let x = 1"
		assert.Nil(t, sitteradapter.FirstError(parse(t, src).RootNode(), []byte(src)))
	})

	t.Run("broken", func(t *testing.T) {
		src := "let x = 1\nlet y = (1 +"
		perr := sitteradapter.FirstError(parse(t, src).RootNode(), []byte(src))
		require.NotNil(t, perr)
		assert.True(t, perr.Span.Valid(len(src)))
		assert.NotEmpty(t, perr.Message)
	})
}

func TestApplyTextEdit(t *testing.T) {
	doc := "let x = 1\nlet y = x + 2"

	t.Run("incremental", func(t *testing.T) {
		got, err := sitteradapter.ApplyTextEdit(protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{
				Start: protocol.Position{Line: 1, Character: 8},
				End:   protocol.Position{Line: 1, Character: 9},
			},
			Text: "z",
		}, doc)
		require.NoError(t, err)
		assert.Equal(t, "let x = 1\nlet y = z + 2", got)
	})

	t.Run("whole", func(t *testing.T) {
		got, err := sitteradapter.ApplyTextEdit(protocol.TextDocumentContentChangeEvent{Text: "let a = 2"}, doc)
		require.NoError(t, err)
		assert.Equal(t, "let a = 2", got)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := sitteradapter.ApplyTextEdit(protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{
				Start: protocol.Position{Line: 4, Character: 0},
				End:   protocol.Position{Line: 4, Character: 1},
			},
			Text: "z",
		}, doc)
		assert.ErrorIs(t, err, position.ErrOutOfRange)
	})

	t.Run("sequence", func(t *testing.T) {
		got, err := sitteradapter.ApplyTextEdits([]any{
			protocol.TextDocumentContentChangeEventWhole{Text: "let a = 1"},
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 0, Character: 9},
					End:   protocol.Position{Line: 0, Character: 9},
				},
				Text: "\nlet b = a",
			},
		}, doc)
		require.NoError(t, err)
		assert.Equal(t, "let a = 1\nlet b = a", got)
	})
}
