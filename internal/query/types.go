package query

import (
	"errors"

	"kclsp/internal/position"
)

// ErrInvalidName rejects a rename target that is not a usable identifier.
var ErrInvalidName = errors.New("invalid identifier")

// Hover is rendered markdown for a range.
type Hover struct {
	Contents string
	Range    position.Range
}

// CompletionKind classifies a completion item.
type CompletionKind int

const (
	CompletionKeyword CompletionKind = iota
	CompletionFunction
	CompletionVariable
	CompletionConstant
)

// CompletionItem is one completion candidate. InsertText is a snippet when
// Snippet is set.
type CompletionItem struct {
	Label         string
	Kind          CompletionKind
	Detail        string
	Documentation string
	Deprecated    bool
	InsertText    string
	Snippet       bool
}

// Edit replaces Range with NewText.
type Edit struct {
	Range   position.Range
	NewText string
}

// InlayHint is a label rendered at a position.
type InlayHint struct {
	Position position.Position
	Label    string
}

// Diagnostic is an analysis error of the current text.
type Diagnostic struct {
	Range   position.Range
	Message string
}
