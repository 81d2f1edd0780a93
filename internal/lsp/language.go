package lsp

import (
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"kclsp/internal/query"
)

func (s *Server) textDocumentHover(
	context *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	hover, ok := s.engine.Hover(params.TextDocument.URI, fromPosition(params.Position))
	if !ok {
		return nil, nil
	}
	rng := toRange(hover.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: hover.Contents,
		},
		Range: &rng,
	}, nil
}

func (s *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	items, ok := s.engine.Completion(
		params.TextDocument.URI,
		fromPosition(params.Position),
		s.Config().CompletionSnippets,
	)
	if !ok {
		return nil, nil
	}

	out := make([]protocol.CompletionItem, len(items))
	for i, item := range items {
		out[i] = toCompletionItem(item)
	}
	return out, nil
}

func toCompletionItem(item query.CompletionItem) protocol.CompletionItem {
	kind := completionKinds[item.Kind]
	out := protocol.CompletionItem{
		Label: item.Label,
		Kind:  &kind,
	}
	if item.Detail != "" {
		detail := item.Detail
		out.Detail = &detail
	}
	if item.Documentation != "" {
		out.Documentation = protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: item.Documentation,
		}
	}
	if item.Deprecated {
		out.Deprecated = &protocol.True
		out.Tags = []protocol.CompletionItemTag{protocol.CompletionItemTagDeprecated}
	}
	if item.InsertText != "" {
		text := item.InsertText
		format := protocol.InsertTextFormatPlainText
		if item.Snippet {
			format = protocol.InsertTextFormatSnippet
		}
		out.InsertText = &text
		out.InsertTextFormat = &format
	}
	return out
}

var completionKinds = map[query.CompletionKind]protocol.CompletionItemKind{
	query.CompletionKeyword:  protocol.CompletionItemKindKeyword,
	query.CompletionFunction: protocol.CompletionItemKindFunction,
	query.CompletionVariable: protocol.CompletionItemKindVariable,
	query.CompletionConstant: protocol.CompletionItemKindConstant,
}

func (s *Server) textDocumentDefinition(
	context *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	uri := params.TextDocument.URI
	rng, ok := s.engine.Definition(uri, fromPosition(params.Position))
	if !ok {
		return nil, nil
	}
	return protocol.Location{URI: uri, Range: toRange(rng)}, nil
}

func (s *Server) textDocumentReferences(
	context *glsp.Context,
	params *protocol.ReferenceParams,
) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	ranges := s.engine.References(uri, fromPosition(params.Position), params.Context.IncludeDeclaration)
	if len(ranges) == 0 {
		return nil, nil
	}

	locations := make([]protocol.Location, len(ranges))
	for i, rng := range ranges {
		locations[i] = protocol.Location{URI: uri, Range: toRange(rng)}
	}
	return locations, nil
}

func (s *Server) textDocumentPrepareRename(
	context *glsp.Context,
	params *protocol.PrepareRenameParams,
) (any, error) {
	rng, name, ok := s.engine.PrepareRename(params.TextDocument.URI, fromPosition(params.Position))
	if !ok {
		return nil, nil
	}
	return protocol.RangeWithPlaceholder{Range: toRange(rng), Placeholder: name}, nil
}

func (s *Server) textDocumentRename(
	context *glsp.Context,
	params *protocol.RenameParams,
) (*protocol.WorkspaceEdit, error) {
	uri := params.TextDocument.URI
	edits, err := s.engine.Rename(uri, fromPosition(params.Position), params.NewName)
	if errors.Is(err, query.ErrInvalidName) {
		return nil, err
	}
	if err != nil || edits == nil {
		return nil, nil
	}

	textEdits := make([]protocol.TextEdit, len(edits))
	for i, e := range edits {
		textEdits[i] = protocol.TextEdit{Range: toRange(e.Range), NewText: e.NewText}
	}
	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: textEdits},
	}, nil
}

func (s *Server) textDocumentSemanticTokensFull(
	context *glsp.Context,
	params *protocol.SemanticTokensParams,
) (*protocol.SemanticTokens, error) {
	if !s.Config().SemanticTokens {
		return nil, nil
	}
	data, ok := s.engine.SemanticTokensFull(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return &protocol.SemanticTokens{Data: data}, nil
}

func (s *Server) textDocumentSemanticTokensRange(
	context *glsp.Context,
	params *protocol.SemanticTokensRangeParams,
) (any, error) {
	if !s.Config().SemanticTokens {
		return nil, nil
	}
	data, ok := s.engine.SemanticTokensRange(params.TextDocument.URI, fromRange(params.Range))
	if !ok {
		return nil, nil
	}
	return &protocol.SemanticTokens{Data: data}, nil
}
