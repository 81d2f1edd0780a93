package lsp

import (
	"reflect"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"kclsp/internal/cache/memory"
	"kclsp/internal/position"
	"kclsp/internal/query"
	"kclsp/internal/scheduler"
)

const source = "kcl"

// publishDiagnostics queues the diagnostics of snap for publishing. Tasks run
// in edit order and unchanged diagnostics are not resent.
func (s *Server) publishDiagnostics(notify glsp.NotifyFunc, snap *memory.Snapshot) {
	uri := snap.URI
	diagnostics := toDiagnostics(query.SnapshotDiagnostics(snap))

	s.scheduler.Schedule(scheduler.Task{
		Name: "diagnostics " + uri,
		Execute: func() error {
			if previous, exists := s.diagnosticCache[uri]; exists {
				if reflect.DeepEqual(previous, diagnostics) {
					return nil
				}
			}
			s.diagnosticCache[uri] = diagnostics
			notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
				URI:         uri,
				Diagnostics: diagnostics,
			})
			return nil
		},
	})
}

// clearDiagnostics forgets uri and sends the client an empty list.
func (s *Server) clearDiagnostics(notify glsp.NotifyFunc, uri string) {
	s.scheduler.Schedule(scheduler.Task{
		Name: "clear diagnostics " + uri,
		Execute: func() error {
			if _, exists := s.diagnosticCache[uri]; !exists {
				return nil
			}
			delete(s.diagnosticCache, uri)
			notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
				URI:         uri,
				Diagnostics: []protocol.Diagnostic{},
			})
			return nil
		},
	})
}

func toDiagnostics(diags []query.Diagnostic) []protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	src := source

	out := make([]protocol.Diagnostic, len(diags))
	for i, d := range diags {
		out[i] = protocol.Diagnostic{
			Range:    toRange(d.Range),
			Severity: &severity,
			Source:   &src,
			Message:  d.Message,
		}
	}
	return out
}

func toPosition(p position.Position) protocol.Position {
	return protocol.Position{Line: p.Line, Character: p.Character}
}

func fromPosition(p protocol.Position) position.Position {
	return position.Position{Line: p.Line, Character: p.Character}
}

func toRange(r position.Range) protocol.Range {
	return protocol.Range{Start: toPosition(r.Start), End: toPosition(r.End)}
}

func fromRange(r protocol.Range) position.Range {
	return position.Range{Start: fromPosition(r.Start), End: fromPosition(r.End)}
}
