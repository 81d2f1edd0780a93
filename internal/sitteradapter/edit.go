package sitteradapter

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"kclsp/internal/position"
)

// ApplyTextEdit applies one content change to document. A change without a
// range replaces the whole text. Range characters are UTF-16 units, resolved
// with the same mapping the rest of the server uses, and a position outside
// the document is an error rather than being clamped.
func ApplyTextEdit(edit protocol.TextDocumentContentChangeEvent, document string) (string, error) {
	if edit.Range == nil {
		return edit.Text, nil
	}
	rng := position.Range{
		Start: position.Position{Line: edit.Range.Start.Line, Character: edit.Range.Start.Character},
		End:   position.Position{Line: edit.Range.End.Line, Character: edit.Range.End.Character},
	}
	s, err := position.RangeToSpan(document, rng)
	if err != nil {
		return document, fmt.Errorf("apply edit at %v: %w", rng, err)
	}
	return document[:s.Start] + edit.Text + document[s.End:], nil
}

// ApplyTextEdits folds a change list in order, as the protocol requires.
func ApplyTextEdits(changes []any, document string) (string, error) {
	for _, change := range changes {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			next, err := ApplyTextEdit(c, document)
			if err != nil {
				return document, err
			}
			document = next
		case protocol.TextDocumentContentChangeEventWhole:
			document = c.Text
		default:
			return document, fmt.Errorf("unsupported content change %T", change)
		}
	}
	return document, nil
}
