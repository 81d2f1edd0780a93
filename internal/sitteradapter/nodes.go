// Package sitteradapter translates between tree-sitter's view of a document and
// the server's own syntax model: it classifies leaves into semantic tokens,
// folds the concrete tree into syntax.Node values and applies editor edits to
// document text.
package sitteradapter

import sitter "github.com/smacker/go-tree-sitter"

// Node types of the bundled grammar that the adapter distinguishes.
const (
	nodeProgram        = "program"
	nodeStatementBlock = "statement_block"
	nodeClassBody      = "class_body"
	nodeComment        = "comment"

	nodeLexicalDeclaration  = "lexical_declaration"
	nodeVariableDeclaration = "variable_declaration"
	nodeVariableDeclarator  = "variable_declarator"

	nodeFunctionDeclaration  = "function_declaration"
	nodeGeneratorDeclaration = "generator_function_declaration"
	nodeFunction             = "function"
	nodeFunctionExpression   = "function_expression"
	nodeGeneratorFunction    = "generator_function"
	nodeArrowFunction        = "arrow_function"
	nodeMethodDefinition     = "method_definition"
	nodeFormalParameters     = "formal_parameters"

	nodeIdentifier               = "identifier"
	nodePropertyIdentifier       = "property_identifier"
	nodeShorthandProperty        = "shorthand_property_identifier"
	nodeShorthandPropertyPattern = "shorthand_property_identifier_pattern"
	nodeAssignmentPattern        = "assignment_pattern"
	nodeObjectAssignmentPattern  = "object_assignment_pattern"
	nodePairPattern              = "pair_pattern"
	nodeRestPattern              = "rest_pattern"
	nodeArrayPattern             = "array_pattern"
	nodeObjectPattern            = "object_pattern"
	nodeParenthesizedExpression  = "parenthesized_expression"
	nodeMemberExpression         = "member_expression"
	nodeCallExpression           = "call_expression"
	nodeBinaryExpression         = "binary_expression"
	nodeAssignmentExpression     = "assignment_expression"
	nodeExpressionStatement      = "expression_statement"
	nodeNumber                   = "number"
	nodeString                   = "string"
	nodeTemplateString           = "template_string"
	nodeRegex                    = "regex"
	nodeTrue                     = "true"
	nodeFalse                    = "false"
	nodeNull                     = "null"
	nodeUndefined                = "undefined"
	nodeArray                    = "array"
	nodeObject                   = "object"
)

func isFunctionNode(t string) bool {
	switch t {
	case nodeFunction, nodeFunctionExpression, nodeGeneratorFunction, nodeArrowFunction:
		return true
	}
	return false
}

func isFunctionDeclaration(t string) bool {
	return t == nodeFunctionDeclaration || t == nodeGeneratorDeclaration
}

// sameNode compares by position and type. Nodes are handed out by value and
// carry no stable identity of their own.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// fnDeclared reports whether identifier n is the name of a masked fn
// declaration, returning the offset of its keyword.
func fnDeclared(n *sitter.Node, src []byte) (int, bool) {
	p := n.Parent()
	if p == nil || p.Type() != nodeAssignmentExpression || !sameNode(p.ChildByFieldName("left"), n) {
		return 0, false
	}
	if stmt := p.Parent(); stmt == nil || stmt.Type() != nodeExpressionStatement || stmt.StartByte() != n.StartByte() {
		return 0, false
	}
	return fnKeywordBefore(src, int(n.StartByte()))
}
