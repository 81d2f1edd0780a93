// Package resolve answers symbol identity questions over a syntax tree:
// where an identifier is defined, where else the same symbol occurs and
// which edits rename it.
//
// Scopes are opened by Program, Block and Function nodes. A binding is
// visible in its whole scope and in nested scopes that do not shadow it.
package resolve

import (
	"sort"

	"kclsp/internal/syntax"
)

// Binding is a declaration site.
type Binding struct {
	Name string
	Span syntax.Span
	Kind syntax.BindingKind
	// Decl is the Declaration or Function node that owns the binding.
	Decl *syntax.Node
}

// DefinitionOf returns the span of the binding that the identifier at offset
// resolves to. Free identifiers have no definition.
func DefinitionOf(tree *syntax.Tree, offset int) (syntax.Span, bool) {
	b, ok := BindingAt(tree, offset)
	if !ok {
		return syntax.Span{}, false
	}
	return b.Span, true
}

// BindingAt returns the binding the identifier at offset resolves to.
func BindingAt(tree *syntax.Tree, offset int) (Binding, bool) {
	ix := build(tree)
	o := ix.at(offset)
	if o == nil || o.binding == nil {
		return Binding{}, false
	}
	return *o.binding, true
}

// ReferencesOf returns every occurrence of the symbol at offset, sorted by
// start offset. The definition is included only when includeDefinition is set.
func ReferencesOf(tree *syntax.Tree, offset int, includeDefinition bool) []syntax.Span {
	ix := build(tree)
	o := ix.at(offset)
	if o == nil || o.binding == nil {
		return nil
	}

	var spans []syntax.Span
	for _, other := range ix.occs {
		if other.binding != o.binding {
			continue
		}
		if !includeDefinition && other.node.Span == o.binding.Span {
			continue
		}
		spans = append(spans, other.node.Span)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// RenamePlan maps every occurrence of the symbol at offset, definition
// included, to newName. It reports false when offset is not on a resolvable
// identifier; a partial plan is never returned.
func RenamePlan(tree *syntax.Tree, offset int, newName string) (map[syntax.Span]string, bool) {
	spans := ReferencesOf(tree, offset, true)
	if len(spans) == 0 {
		return nil, false
	}
	plan := make(map[syntax.Span]string, len(spans))
	for _, s := range spans {
		plan[s] = newName
	}
	return plan, true
}

// IdentifierAt returns the identifier node at offset, resolved or not.
func IdentifierAt(tree *syntax.Tree, offset int) (*syntax.Node, bool) {
	o := build(tree).at(offset)
	if o == nil {
		return nil, false
	}
	return o.node, true
}

// VisibleBindings lists the bindings in scope at offset, innermost scope
// first. A name shadowed by an inner scope is reported once.
func VisibleBindings(tree *syntax.Tree, offset int) []Binding {
	ix := build(tree)
	if ix.root == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []Binding
	for sc := ix.scopeAt(offset); sc != nil; sc = sc.parent {
		for _, b := range sc.order {
			if seen[b.Name] {
				continue
			}
			seen[b.Name] = true
			out = append(out, *b)
		}
	}
	return out
}

// Resolution is the resolved view of a whole tree. It is immutable and can
// answer any number of lookups.
type Resolution struct {
	byNode map[*syntax.Node]*occurrence
}

// Resolve resolves every identifier in tree once.
func Resolve(tree *syntax.Tree) *Resolution {
	ix := build(tree)
	r := &Resolution{byNode: make(map[*syntax.Node]*occurrence, len(ix.occs))}
	for _, o := range ix.occs {
		r.byNode[o.node] = o
	}
	return r
}

// Lookup returns the binding an identifier node resolves to.
func (r *Resolution) Lookup(ident *syntax.Node) (Binding, bool) {
	o, ok := r.byNode[ident]
	if !ok || o.binding == nil {
		return Binding{}, false
	}
	return *o.binding, true
}
