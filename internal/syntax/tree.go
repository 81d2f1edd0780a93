package syntax

// NodeKind is the closed set of node shapes the analysis components
// understand. Everything else the grammar produces is folded into KindOther.
type NodeKind uint8

const (
	KindOther NodeKind = iota
	KindProgram
	KindBlock
	KindFunction
	KindDeclaration
	KindIdentifier
	KindNumber
	KindString
	KindBool
	KindArray
	KindObject
	KindBinary
	KindCall
)

var kindNames = [...]string{
	KindOther:       "other",
	KindProgram:     "program",
	KindBlock:       "block",
	KindFunction:    "function",
	KindDeclaration: "declaration",
	KindIdentifier:  "identifier",
	KindNumber:      "number",
	KindString:      "string",
	KindBool:        "bool",
	KindArray:       "array",
	KindObject:      "object",
	KindBinary:      "binary",
	KindCall:        "call",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsScope reports whether nodes of this kind open a lexical scope.
func (k NodeKind) IsScope() bool {
	return k == KindProgram || k == KindBlock || k == KindFunction
}

// BindingKind tags a declaration site. The zero value means the identifier
// is a use, not a binding.
type BindingKind uint8

const (
	BindNone BindingKind = iota
	BindLet
	BindConst
	BindVar
	BindFn
	BindParam
)

func (b BindingKind) String() string {
	switch b {
	case BindLet:
		return "let"
	case BindConst:
		return "const"
	case BindVar:
		return "var"
	case BindFn:
		return "fn"
	case BindParam:
		return "param"
	default:
		return ""
	}
}

// Node is an immutable syntax tree node.
//
// Identifier nodes carry the identifier text in Name; a Binding other than
// BindNone marks a declaration site. Binary nodes carry their operator in Name.
// A Declaration's children are its binding identifiers, then any pattern
// default expressions, then the initializer value last.
type Node struct {
	Kind     NodeKind
	Span     Span
	Name     string
	Binding  BindingKind
	Children []*Node
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Value returns the initializer of a Declaration, or nil.
func (n *Node) Value() *Node {
	if n.Kind != KindDeclaration || len(n.Children) == 0 {
		return nil
	}
	last := n.Children[len(n.Children)-1]
	if last.Kind == KindIdentifier && last.Binding != BindNone {
		return nil
	}
	return last
}

// Bindings returns the declaration sites directly owned by a Declaration.
func (n *Node) Bindings() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == KindIdentifier && c.Binding != BindNone {
			out = append(out, c)
		}
	}
	return out
}

// Tree is a parsed document. Source is the exact text the spans address;
// it can lag the current document text when later edits failed to parse.
type Tree struct {
	Root   *Node
	Source string
}
