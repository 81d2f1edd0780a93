package sitteradapter

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"kclsp/internal/syntax"
)

// FirstError returns the first ERROR or MISSING node in document order as a
// ParseError, or nil when the tree is clean.
func FirstError(root *sitter.Node, src []byte) *syntax.ParseError {
	if root == nil || !root.HasError() {
		return nil
	}
	return firstError(root, src)
}

func firstError(n *sitter.Node, src []byte) *syntax.ParseError {
	if n.IsMissing() {
		return &syntax.ParseError{
			Span:    span(n),
			Message: fmt.Sprintf("missing %s", n.Type()),
		}
	}
	if n.IsError() {
		return &syntax.ParseError{
			Span:    span(n),
			Message: fmt.Sprintf("unexpected %s", excerpt(n.Content(src))),
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.HasError() && !child.IsMissing() {
			continue
		}
		if err := firstError(child, src); err != nil {
			return err
		}
	}
	return nil
}

func excerpt(s string) string {
	const max = 24
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			s = s[:i]
			break
		}
	}
	if len(s) > max {
		s = s[:max] + "..."
	}
	if s == "" {
		return "input"
	}
	return fmt.Sprintf("%q", s)
}
