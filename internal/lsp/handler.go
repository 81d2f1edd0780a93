package lsp

import (
	contextpkg "context"
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"kclsp/internal/cache/memory"
	"kclsp/internal/config"
	"kclsp/internal/sitteradapter"
	"kclsp/internal/syntax"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	cfg, err := config.Overlay(s.Config(), params.InitializationOptions)
	if err != nil {
		log.Errorf("invalid initialization options: %s", err)
		return nil, err
	}
	s.Configure(cfg)

	if params.ClientInfo != nil {
		log.Infof("client %s connected", params.ClientInfo.Name)
	}
	if params.Trace != nil {
		protocol.SetTraceValue(*params.Trace)
	}

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
		Save:      true,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
		ResolveProvider:   &protocol.False,
	}
	capabilities.RenameProvider = protocol.RenameOptions{PrepareProvider: &protocol.True}
	capabilities.SemanticTokensProvider = protocol.SemanticTokensOptions{
		Legend: protocol.SemanticTokensLegend{
			TokenTypes:     syntax.Legend(),
			TokenModifiers: []string{},
		},
		Range: true,
		Full:  true,
	}

	return initializeResult{
		Capabilities: serverCapabilities{
			ServerCapabilities: capabilities,
			InlayHintProvider:  true,
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Info("client initialized")
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	log.Info("shutdown")
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.store.CloseAll()
	return nil
}

func (s *Server) setTrace(
	context *glsp.Context,
	params *protocol.SetTraceParams,
) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	doc := params.TextDocument
	log.Debugf("didOpen %s", doc.URI)

	snap, err := s.store.Open(contextpkg.Background(), doc.URI, doc.Text, doc.Version)
	if err != nil {
		log.Errorf("failed to open %s: %s", doc.URI, err)
		return nil
	}
	s.publishDiagnostics(context.Notify, snap)
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.URI

	current, ok := s.store.Get(uri)
	if !ok {
		log.Warningf("change for unopened document %s", uri)
		return nil
	}

	text, err := sitteradapter.ApplyTextEdits(params.ContentChanges, current.Text)
	if err != nil {
		log.Warningf("dropping change to %s: %s", uri, err)
		return nil
	}

	snap, err := s.store.ApplyChange(contextpkg.Background(), uri, text, params.TextDocument.Version)
	switch {
	case errors.Is(err, memory.ErrStaleEdit):
		log.Debugf("%s", err)
		return nil
	case errors.Is(err, memory.ErrNotFound):
		log.Warningf("%s", err)
		return nil
	case err != nil:
		return err
	}

	s.publishDiagnostics(context.Notify, snap)
	return nil
}

func (s *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	log.Debugf("didSave %s", params.TextDocument.URI)
	return nil
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	log.Debugf("didClose %s", uri)

	if err := s.store.Close(uri); err != nil {
		log.Warningf("%s", err)
	}
	s.clearDiagnostics(context.Notify, uri)
	return nil
}
