package sitteradapter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"kclsp/internal/syntax"
)

var operators = map[string]bool{
	"=": true, "+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"==": true, "===": true, "!=": true, "!==": true,
	"<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true, "!": true, "??": true, "?": true, ":": true,
	"&": true, "|": true, "^": true, "~": true, "<<": true, ">>": true, ">>>": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"++": true, "--": true, "...": true, "=>": true, "|>": true,
}

// Classify walks a parsed document and returns its semantic tokens in
// document order. Tokens never cross a line break.
func Classify(root *sitter.Node, src []byte) []syntax.Token {
	c := classifier{src: src}
	c.walk(root)
	return c.tokens
}

type classifier struct {
	src    []byte
	tokens []syntax.Token
}

func (c *classifier) walk(n *sitter.Node) {
	switch t := n.Type(); {
	case t == nodeComment:
		c.emit(n, syntax.TokenComment)
		return
	case t == nodeString || t == nodeTemplateString || t == nodeRegex:
		c.emit(n, syntax.TokenString)
		return
	case t == nodeNumber:
		c.emit(n, syntax.TokenNumber)
		return
	case t == nodeTrue || t == nodeFalse || t == nodeNull || t == nodeUndefined:
		c.emit(n, syntax.TokenKeyword)
		return
	case t == nodeIdentifier && isSubstitutionAt(c.src, int(n.StartByte())):
		c.emit(n, syntax.TokenOperator)
		return
	case t == nodeIdentifier && c.fnName(n):
		return
	case t == nodeIdentifier || t == nodeShorthandProperty || t == nodeShorthandPropertyPattern:
		c.emit(n, identifierKind(n))
		return
	case t == nodePropertyIdentifier:
		kind := syntax.TokenVariable
		if p := n.Parent(); p != nil && p.Type() == nodeMemberExpression && calleeOf(p) {
			kind = syntax.TokenFunction
		}
		c.emit(n, kind)
		return
	case n.ChildCount() == 0 && !n.IsNamed():
		if t == "|" && isPipeAt(c.src, int(n.StartByte())) {
			c.tokens = append(c.tokens, syntax.Token{Start: int(n.StartByte()), Length: len(pipeOperator), Kind: syntax.TokenOperator})
		} else if isWord(t) {
			c.emit(n, syntax.TokenKeyword)
		} else if operators[t] {
			c.emit(n, syntax.TokenOperator)
		}
		return
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		c.walk(n.Child(i))
	}
}

// fnName emits the keyword and name of a masked fn declaration and reports
// whether n was one.
func (c *classifier) fnName(n *sitter.Node) bool {
	kw, ok := fnDeclared(n, c.src)
	if !ok {
		return false
	}
	c.tokens = append(c.tokens, syntax.Token{Start: kw, Length: len(fnKeyword), Kind: syntax.TokenKeyword})
	c.emit(n, syntax.TokenFunction)
	return true
}

// emit records n, splitting it at line breaks.
func (c *classifier) emit(n *sitter.Node, kind syntax.TokenKind) {
	start, end := int(n.StartByte()), int(n.EndByte())
	for start < end {
		lineEnd := start
		for lineEnd < end && c.src[lineEnd] != '\n' {
			lineEnd++
		}
		if lineEnd > start {
			c.tokens = append(c.tokens, syntax.Token{Start: start, Length: lineEnd - start, Kind: kind})
		}
		start = lineEnd + 1
	}
}

func identifierKind(n *sitter.Node) syntax.TokenKind {
	p := n.Parent()
	if p == nil {
		return syntax.TokenVariable
	}
	switch t := p.Type(); {
	case isFunctionDeclaration(t) || isFunctionNode(t):
		if sameNode(p.ChildByFieldName("name"), n) {
			return syntax.TokenFunction
		}
		if sameNode(p.ChildByFieldName("parameter"), n) {
			return syntax.TokenParameter
		}
	case t == nodeCallExpression:
		if sameNode(p.ChildByFieldName("function"), n) {
			return syntax.TokenFunction
		}
	case t == nodeVariableDeclarator:
		if v := p.ChildByFieldName("value"); v != nil && isFunctionNode(v.Type()) && sameNode(p.ChildByFieldName("name"), n) {
			return syntax.TokenFunction
		}
	}
	if inParameters(n) {
		return syntax.TokenParameter
	}
	return syntax.TokenVariable
}

// inParameters reports whether n sits in a binding position of a parameter
// list, including destructured and defaulted parameters.
func inParameters(n *sitter.Node) bool {
	child := n
	for p := n.Parent(); p != nil; child, p = p, p.Parent() {
		switch p.Type() {
		case nodeFormalParameters:
			return true
		case nodeAssignmentPattern, nodeObjectAssignmentPattern:
			if !sameNode(p.ChildByFieldName("left"), child) {
				return false
			}
		case nodeArrayPattern, nodeObjectPattern, nodeRestPattern, nodePairPattern:
		default:
			return false
		}
	}
	return false
}

func calleeOf(member *sitter.Node) bool {
	p := member.Parent()
	return p != nil && p.Type() == nodeCallExpression && sameNode(p.ChildByFieldName("function"), member)
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if (b < 'a' || b > 'z') && (b < 'A' || b > 'Z') && b != '_' {
			return false
		}
	}
	return true
}
