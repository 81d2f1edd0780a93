package sitteradapter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"kclsp/internal/syntax"
)

// Convert folds a concrete tree into the syntax model. Punctuation, comments
// and property names are dropped; declarations are normalised so that each
// declarator becomes one Declaration node.
func Convert(root *sitter.Node, src []byte) *syntax.Node {
	c := converter{src: src}
	n := c.node(root)
	if n == nil {
		n = &syntax.Node{Kind: syntax.KindProgram, Span: span(root)}
	}
	return n
}

type converter struct {
	src []byte
}

func span(n *sitter.Node) syntax.Span {
	return syntax.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

func (c *converter) node(n *sitter.Node) *syntax.Node {
	if n == nil {
		return nil
	}
	t := n.Type()
	switch {
	case t == nodeProgram:
		return c.wrap(syntax.KindProgram, n)
	case t == nodeStatementBlock || t == nodeClassBody:
		return c.wrap(syntax.KindBlock, n)
	case t == nodeLexicalDeclaration || t == nodeVariableDeclaration:
		return c.declaration(n)
	case isFunctionDeclaration(t):
		fn := c.function(n, false)
		out := &syntax.Node{Kind: syntax.KindDeclaration, Span: span(n)}
		if name := n.ChildByFieldName("name"); name != nil {
			out.Children = append(out.Children, c.ident(name, syntax.BindFn))
		}
		out.Children = append(out.Children, fn)
		return out
	case isFunctionNode(t):
		return c.function(n, true)
	case t == nodeMethodDefinition:
		return c.function(n, false)
	case t == nodeIdentifier && isSubstitutionAt(c.src, int(n.StartByte())):
		return nil
	case t == nodeIdentifier || t == nodeShorthandProperty:
		return c.ident(n, syntax.BindNone)
	case t == nodeAssignmentExpression:
		if d := c.fnDeclaration(n); d != nil {
			return d
		}
	case t == nodePropertyIdentifier || t == nodeComment:
		return nil
	case t == nodeNumber:
		return &syntax.Node{Kind: syntax.KindNumber, Span: span(n)}
	case t == nodeString || t == nodeTemplateString:
		return c.wrap(syntax.KindString, n)
	case t == nodeTrue || t == nodeFalse:
		return &syntax.Node{Kind: syntax.KindBool, Span: span(n)}
	case t == nodeArray:
		return c.wrap(syntax.KindArray, n)
	case t == nodeObject:
		return c.wrap(syntax.KindObject, n)
	case t == nodeBinaryExpression:
		out := &syntax.Node{Kind: syntax.KindBinary, Span: span(n)}
		if op := n.ChildByFieldName("operator"); op != nil {
			out.Name = op.Type()
			if out.Name == "|" && isPipeAt(c.src, int(op.StartByte())) {
				out.Name = pipeOperator
			}
		}
		c.append(out, n.ChildByFieldName("left"))
		c.append(out, n.ChildByFieldName("right"))
		return out
	case t == nodeCallExpression:
		out := &syntax.Node{Kind: syntax.KindCall, Span: span(n), Children: c.children(n)}
		if fn := n.ChildByFieldName("function"); fn != nil && fn.Type() == nodeIdentifier {
			out.Name = fn.Content(c.src)
		}
		return out
	case t == nodeParenthesizedExpression && n.NamedChildCount() == 1:
		return c.node(n.NamedChild(0))
	}
	return c.wrap(syntax.KindOther, n)
}

func (c *converter) wrap(kind syntax.NodeKind, n *sitter.Node) *syntax.Node {
	return &syntax.Node{Kind: kind, Span: span(n), Children: c.children(n)}
}

func (c *converter) children(n *sitter.Node) []*syntax.Node {
	var out []*syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := c.node(n.NamedChild(i)); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func (c *converter) append(parent *syntax.Node, n *sitter.Node) {
	if child := c.node(n); child != nil {
		parent.Children = append(parent.Children, child)
	}
}

func (c *converter) ident(n *sitter.Node, bind syntax.BindingKind) *syntax.Node {
	return &syntax.Node{
		Kind:    syntax.KindIdentifier,
		Span:    span(n),
		Name:    n.Content(c.src),
		Binding: bind,
	}
}

func bindingKind(keyword string) syntax.BindingKind {
	switch keyword {
	case "let":
		return syntax.BindLet
	case "const":
		return syntax.BindConst
	default:
		return syntax.BindVar
	}
}

// declaration returns one Declaration per declarator. Statements with several
// declarators are grouped under an Other node.
func (c *converter) declaration(n *sitter.Node) *syntax.Node {
	kind := syntax.BindVar
	if n.ChildCount() > 0 {
		kind = bindingKind(n.Child(0).Type())
	}

	var decls []*syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != nodeVariableDeclarator {
			continue
		}
		out := &syntax.Node{Kind: syntax.KindDeclaration, Span: span(d)}
		var defaults []*syntax.Node
		c.pattern(d.ChildByFieldName("name"), kind, &out.Children, &defaults)
		out.Children = append(out.Children, defaults...)
		c.append(out, d.ChildByFieldName("value"))
		decls = append(decls, out)
	}
	if len(decls) == 1 {
		return decls[0]
	}
	return &syntax.Node{Kind: syntax.KindOther, Span: span(n), Children: decls}
}

// pattern collects the binding identifiers of a destructuring pattern into
// binds, and any default value expressions it contains into defaults.
func (c *converter) pattern(p *sitter.Node, kind syntax.BindingKind, binds, defaults *[]*syntax.Node) {
	if p == nil {
		return
	}
	switch p.Type() {
	case nodeIdentifier, nodeShorthandPropertyPattern:
		*binds = append(*binds, c.ident(p, kind))
	case nodeAssignmentPattern, nodeObjectAssignmentPattern:
		c.pattern(p.ChildByFieldName("left"), kind, binds, defaults)
		if v := c.node(p.ChildByFieldName("right")); v != nil {
			*defaults = append(*defaults, v)
		}
	case nodePairPattern:
		c.pattern(p.ChildByFieldName("value"), kind, binds, defaults)
	case nodeArrayPattern, nodeObjectPattern, nodeRestPattern:
		for i := 0; i < int(p.NamedChildCount()); i++ {
			c.pattern(p.NamedChild(i), kind, binds, defaults)
		}
	default:
		if v := c.node(p); v != nil {
			*defaults = append(*defaults, v)
		}
	}
}

// function builds a Function node holding its parameters and body. A function
// expression's own name is bound inside the function scope.
func (c *converter) function(n *sitter.Node, ownName bool) *syntax.Node {
	out := &syntax.Node{Kind: syntax.KindFunction, Span: span(n)}
	if ownName {
		if name := n.ChildByFieldName("name"); name != nil {
			out.Children = append(out.Children, c.ident(name, syntax.BindFn))
		}
	}

	var defaults []*syntax.Node
	if p := n.ChildByFieldName("parameter"); p != nil {
		c.pattern(p, syntax.BindParam, &out.Children, &defaults)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			if p := params.NamedChild(i); p.Type() != nodeComment {
				c.pattern(p, syntax.BindParam, &out.Children, &defaults)
			}
		}
	}
	out.Children = append(out.Children, defaults...)
	c.append(out, n.ChildByFieldName("body"))
	return out
}

// fnDeclaration turns the assignment left behind by a masked fn keyword into
// a declaration of the function it names.
func (c *converter) fnDeclaration(n *sitter.Node) *syntax.Node {
	left := n.ChildByFieldName("left")
	if left == nil || left.Type() != nodeIdentifier {
		return nil
	}
	kw, ok := fnDeclared(left, c.src)
	if !ok {
		return nil
	}
	out := &syntax.Node{
		Kind:     syntax.KindDeclaration,
		Span:     syntax.Span{Start: kw, End: int(n.EndByte())},
		Children: []*syntax.Node{c.ident(left, syntax.BindFn)},
	}
	c.append(out, n.ChildByFieldName("right"))
	return out
}
