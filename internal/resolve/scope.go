package resolve

import "kclsp/internal/syntax"

// scope is one lexical scope. Bindings are hoisted: every binding declared
// anywhere in the scope is visible throughout it.
type scope struct {
	node   *syntax.Node
	parent *scope
	names  map[string]*Binding
	order  []*Binding
}

func (s *scope) lookup(name string) *Binding {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.names[name]; ok {
			return b
		}
	}
	return nil
}

type occurrence struct {
	node    *syntax.Node
	scope   *scope
	binding *Binding
}

// index is the resolved view of one tree.
type index struct {
	root   *scope
	scopes []*scope
	occs   []*occurrence
}

func build(tree *syntax.Tree) *index {
	ix := &index{}
	if tree == nil || tree.Root == nil {
		return ix
	}
	ix.root = ix.newScope(tree.Root, nil)
	ix.walk(tree.Root, ix.root, nil)

	for _, o := range ix.occs {
		if o.binding == nil {
			o.binding = o.scope.lookup(o.node.Name)
		}
	}
	return ix
}

func (ix *index) newScope(n *syntax.Node, parent *scope) *scope {
	s := &scope{node: n, parent: parent, names: map[string]*Binding{}}
	ix.scopes = append(ix.scopes, s)
	return s
}

// walk assigns every identifier to its scope and declares bindings. owner is
// the node that introduces direct binding children of n, if any.
func (ix *index) walk(n *syntax.Node, sc *scope, owner *syntax.Node) {
	if n.Kind.IsScope() && n != sc.node {
		sc = ix.newScope(n, sc)
	}

	if n.Kind == syntax.KindIdentifier {
		o := &occurrence{node: n, scope: sc}
		if n.Binding != syntax.BindNone {
			if prev, ok := sc.names[n.Name]; ok {
				// Redeclared in the same scope: the first binding keeps the identity.
				o.binding = prev
			} else {
				b := &Binding{Name: n.Name, Span: n.Span, Kind: n.Binding, Decl: owner}
				sc.names[n.Name] = b
				sc.order = append(sc.order, b)
				o.binding = b
			}
		}
		ix.occs = append(ix.occs, o)
		return
	}

	var childOwner *syntax.Node
	if n.Kind == syntax.KindDeclaration || n.Kind == syntax.KindFunction {
		childOwner = n
	}
	for _, c := range n.Children {
		ix.walk(c, sc, childOwner)
	}
}

// at returns the identifier occurrence at offset. An identifier containing
// offset wins over one that ends exactly at it.
func (ix *index) at(offset int) *occurrence {
	var touching *occurrence
	for _, o := range ix.occs {
		if o.node.Span.Contains(offset) {
			return o
		}
		if touching == nil && o.node.Span.End == offset {
			touching = o
		}
	}
	return touching
}

// scopeAt returns the innermost scope whose node contains offset, falling back
// to the root scope.
func (ix *index) scopeAt(offset int) *scope {
	best := ix.root
	for _, s := range ix.scopes {
		if s == ix.root || !s.node.Span.Contains(offset) {
			continue
		}
		if best == ix.root || s.node.Span.Len() < best.node.Span.Len() {
			best = s
		}
	}
	return best
}
