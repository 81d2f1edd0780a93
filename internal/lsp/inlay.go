package lsp

import (
	"encoding/json"
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Inlay hints arrived in LSP 3.17; protocol_3_16 has no types for them.

const MethodTextDocumentInlayHint = protocol.Method("textDocument/inlayHint")

type InlayHintKind protocol.UInteger

const InlayHintKindType = InlayHintKind(1)

type InlayHintParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Range        protocol.Range                  `json:"range"`
}

type InlayHint struct {
	Position    protocol.Position `json:"position"`
	Label       string            `json:"label"`
	Kind        *InlayHintKind    `json:"kind,omitempty"`
	PaddingLeft *bool             `json:"paddingLeft,omitempty"`
}

type serverCapabilities struct {
	protocol.ServerCapabilities
	InlayHintProvider any `json:"inlayHintProvider,omitempty"`
}

type initializeResult struct {
	Capabilities serverCapabilities                   `json:"capabilities"`
	ServerInfo   *protocol.InitializeResultServerInfo `json:"serverInfo,omitempty"`
}

// handler serves textDocument/inlayHint and hands every other method to the
// protocol_3_16 handler.
type handler struct {
	*protocol.Handler
	inlayHint func(context *glsp.Context, params *InlayHintParams) ([]InlayHint, error)
}

// glsp.Handler interface
func (h *handler) Handle(context *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	if context.Method != MethodTextDocumentInlayHint {
		return h.Handler.Handle(context)
	}
	if !h.IsInitialized() {
		return nil, true, true, errors.New("server not initialized")
	}

	validMethod = true
	var params InlayHintParams
	if err = json.Unmarshal(context.Params, &params); err == nil {
		validParams = true
		r, err = h.inlayHint(context, &params)
	}
	return
}

func (s *Server) textDocumentInlayHint(
	context *glsp.Context,
	params *InlayHintParams,
) ([]InlayHint, error) {
	if !s.Config().InlayHints {
		return nil, nil
	}

	hints := s.engine.InlayHints(params.TextDocument.URI, fromRange(params.Range))
	if len(hints) == 0 {
		return nil, nil
	}

	kind := InlayHintKindType
	out := make([]InlayHint, len(hints))
	for i, h := range hints {
		out[i] = InlayHint{
			Position: toPosition(h.Position),
			Label:    h.Label,
			Kind:     &kind,
		}
	}
	return out, nil
}
