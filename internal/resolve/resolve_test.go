package resolve_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kclsp/internal/parser"
	"kclsp/internal/resolve"
	"kclsp/internal/syntax"
)

func mustParse(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	ts := parser.NewTreeSitter(1)
	t.Cleanup(func() { ts.Close() })
	tree, err := ts.Parse(context.Background(), []byte(src), nil)
	require.NoError(t, err)
	return tree
}

func span(start, end int) syntax.Span {
	return syntax.Span{Start: start, End: end}
}

func TestDefinitionAndReferences(t *testing.T) {
	tree := mustParse(t, "let x = 1\nlet y = x + 2")

	def, ok := resolve.DefinitionOf(tree, 18)
	require.True(t, ok)
	assert.Equal(t, span(4, 5), def)

	assert.Equal(t, []syntax.Span{span(4, 5), span(18, 19)}, resolve.ReferencesOf(tree, 18, true))
	assert.Equal(t, []syntax.Span{span(18, 19)}, resolve.ReferencesOf(tree, 18, false))

	// From the definition site the answer is the same.
	assert.Equal(t, []syntax.Span{span(4, 5), span(18, 19)}, resolve.ReferencesOf(tree, 4, true))

	// The offset just past an identifier still addresses it.
	def, ok = resolve.DefinitionOf(tree, 19)
	require.True(t, ok)
	assert.Equal(t, span(4, 5), def)
}

func TestRenamePlanIncludesDefinition(t *testing.T) {
	src := "let x = 1\nlet y = x + 2"
	tree := mustParse(t, src)

	plan, ok := resolve.RenamePlan(tree, 18, "z")
	require.True(t, ok)
	assert.Equal(t, map[syntax.Span]string{span(4, 5): "z", span(18, 19): "z"}, plan)

	// Applying the edits back to front yields the renamed document.
	out := src
	for _, s := range []syntax.Span{span(18, 19), span(4, 5)} {
		out = out[:s.Start] + plan[s] + out[s.End:]
	}
	assert.Equal(t, "let z = 1\nlet y = z + 2", out)
}

func TestShadowing(t *testing.T) {
	tree := mustParse(t, "let x = 1\n{\n  let x = 2\n  x\n}\nx")

	tests := []struct {
		name   string
		offset int
		def    syntax.Span
		refs   []syntax.Span
	}{
		{"inner use", 26, span(18, 19), []syntax.Span{span(18, 19), span(26, 27)}},
		{"inner definition", 18, span(18, 19), []syntax.Span{span(18, 19), span(26, 27)}},
		{"outer use", 30, span(4, 5), []syntax.Span{span(4, 5), span(30, 31)}},
		{"outer definition", 4, span(4, 5), []syntax.Span{span(4, 5), span(30, 31)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := resolve.DefinitionOf(tree, tt.offset)
			require.True(t, ok)
			assert.Equal(t, tt.def, def)
			assert.Equal(t, tt.refs, resolve.ReferencesOf(tree, tt.offset, true))
		})
	}
}

func TestFreeIdentifier(t *testing.T) {
	tree := mustParse(t, "let y = foo")

	_, ok := resolve.DefinitionOf(tree, 8)
	assert.False(t, ok)
	assert.Empty(t, resolve.ReferencesOf(tree, 8, true))

	plan, ok := resolve.RenamePlan(tree, 8, "bar")
	assert.False(t, ok)
	assert.Nil(t, plan)

	ident, ok := resolve.IdentifierAt(tree, 8)
	require.True(t, ok)
	assert.Equal(t, "foo", ident.Name)
}

func TestNotOnIdentifier(t *testing.T) {
	tree := mustParse(t, "let x = 1")

	_, ok := resolve.DefinitionOf(tree, 8)
	assert.False(t, ok)
	_, ok = resolve.IdentifierAt(tree, 1)
	assert.False(t, ok)
}

func TestParameters(t *testing.T) {
	tree := mustParse(t, "function f(a) {\n  return a\n}\nlet a = 3\na")

	b, ok := resolve.BindingAt(tree, 25)
	require.True(t, ok)
	assert.Equal(t, syntax.BindParam, b.Kind)
	assert.Equal(t, span(11, 12), b.Span)
	assert.Equal(t, syntax.KindFunction, b.Decl.Kind)

	b, ok = resolve.BindingAt(tree, 39)
	require.True(t, ok)
	assert.Equal(t, syntax.BindLet, b.Kind)
	assert.Equal(t, span(33, 34), b.Span)

	b, ok = resolve.BindingAt(tree, 9)
	require.True(t, ok)
	assert.Equal(t, syntax.BindFn, b.Kind)
	assert.Equal(t, "f", b.Name)
}

func TestRedeclarationKeepsFirstBinding(t *testing.T) {
	tree := mustParse(t, "let x = 1\nlet x = 2\nx")

	def, ok := resolve.DefinitionOf(tree, 20)
	require.True(t, ok)
	assert.Equal(t, span(4, 5), def)
	assert.Equal(t, []syntax.Span{span(4, 5), span(14, 15), span(20, 21)}, resolve.ReferencesOf(tree, 20, true))
}

func TestVisibleBindings(t *testing.T) {
	tree := mustParse(t, "let a = 1\nfunction f(p) {\n  let a = 2\n  \n}")

	got := resolve.VisibleBindings(tree, 39)
	var names []string
	for _, b := range got {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"a", "p", "f"}, names)
	assert.Equal(t, span(32, 33), got[0].Span)

	// Outside the function only top level bindings are visible.
	got = resolve.VisibleBindings(tree, 9)
	names = names[:0]
	for _, b := range got {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"a", "f"}, names)
}

func TestNilTree(t *testing.T) {
	_, ok := resolve.DefinitionOf(nil, 0)
	assert.False(t, ok)
	assert.Nil(t, resolve.VisibleBindings(nil, 0))
}

func TestResolution(t *testing.T) {
	tree := mustParse(t, "let x = 1\nlet y = x + 2\nlet z = w")
	r := resolve.Resolve(tree)

	var resolved, free []string
	tree.Root.Walk(func(n *syntax.Node) bool {
		if n.Kind != syntax.KindIdentifier || n.Binding != syntax.BindNone {
			return true
		}
		if b, ok := r.Lookup(n); ok {
			resolved = append(resolved, b.Name+"@"+b.Span.String())
		} else {
			free = append(free, n.Name)
		}
		return true
	})
	assert.Equal(t, []string{"x@4..5"}, resolved)
	assert.Equal(t, []string{"w"}, free)
}
