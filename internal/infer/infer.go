// Package infer derives display types for bindings. It is deliberately
// shallow: literal values, arithmetic over them, references to already typed
// bindings and calls to built-ins with a declared result are understood, and
// everything else stays untyped.
package infer

import (
	"kclsp/internal/resolve"
	"kclsp/internal/stdlib"
	"kclsp/internal/syntax"
)

// Inferer maps binding spans to a type description.
type Inferer interface {
	Infer(tree *syntax.Tree) map[syntax.Span]string
}

const (
	typeNumber = "number"
	typeString = "string"
	typeBool   = "bool"
	typeArray  = "array"
	typeObject = "object"
	typeFn     = "fn"
)

// Literal is the built-in Inferer.
type Literal struct {
	returns map[string]string
}

// NewLiteral creates an Inferer that also knows the result types declared in
// cat. A nil catalog is allowed.
func NewLiteral(cat stdlib.Catalog) *Literal {
	l := &Literal{returns: map[string]string{}}
	if cat != nil {
		for _, fn := range cat.Functions() {
			if r := fn.Returns(); r != "" && r != "()" {
				l.returns[fn.Name] = r
			}
		}
	}
	return l
}

// Infer implements Inferer. Only bindings with a known type appear in the
// result.
func (l *Literal) Infer(tree *syntax.Tree) map[syntax.Span]string {
	out := map[syntax.Span]string{}
	if tree == nil || tree.Root == nil {
		return out
	}
	w := walker{l: l, res: resolve.Resolve(tree), types: out}
	tree.Root.Walk(w.visit)
	return out
}

type walker struct {
	l     *Literal
	res   *resolve.Resolution
	types map[syntax.Span]string
}

func (w walker) visit(n *syntax.Node) bool {
	if n.Kind != syntax.KindDeclaration {
		return true
	}
	binds := n.Bindings()
	value := n.Value()
	// Destructuring patterns do not type their parts.
	if len(binds) != 1 || value == nil || len(n.Children) != 2 {
		return true
	}
	if t := w.typeOf(value); t != "" {
		w.types[binds[0].Span] = t
	}
	return true
}

func (w walker) typeOf(n *syntax.Node) string {
	switch n.Kind {
	case syntax.KindNumber:
		return typeNumber
	case syntax.KindString:
		return typeString
	case syntax.KindBool:
		return typeBool
	case syntax.KindArray:
		return typeArray
	case syntax.KindObject:
		return typeObject
	case syntax.KindFunction:
		return typeFn
	case syntax.KindIdentifier:
		if b, ok := w.res.Lookup(n); ok {
			return w.types[b.Span]
		}
	case syntax.KindBinary:
		return w.binary(n)
	case syntax.KindCall:
		if n.Name == "" || len(n.Children) == 0 {
			return ""
		}
		// A local binding with the same name hides the built-in.
		if _, local := w.res.Lookup(n.Children[0]); local {
			return ""
		}
		return w.l.returns[n.Name]
	}
	return ""
}

func (w walker) binary(n *syntax.Node) string {
	if len(n.Children) != 2 {
		return ""
	}
	left, right := w.typeOf(n.Children[0]), w.typeOf(n.Children[1])
	switch n.Name {
	case "|>":
		return right
	case "+":
		if left == typeString || right == typeString {
			return typeString
		}
		if left == typeNumber && right == typeNumber {
			return typeNumber
		}
	case "-", "*", "/", "%", "**":
		if left == typeNumber && right == typeNumber {
			return typeNumber
		}
	case "==", "===", "!=", "!==", "<", ">", "<=", ">=":
		return typeBool
	case "&&", "||":
		if left == typeBool && right == typeBool {
			return typeBool
		}
	}
	return ""
}
