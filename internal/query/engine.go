// Package query answers position-addressed editor requests from the document
// store. Every answer is computed from one snapshot: tree results are mapped
// against the text the tree was parsed from and token results against the
// snapshot's current text.
package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"kclsp/internal/cache/memory"
	"kclsp/internal/infer"
	"kclsp/internal/metrics"
	"kclsp/internal/position"
	"kclsp/internal/resolve"
	"kclsp/internal/semtok"
	"kclsp/internal/stdlib"
	"kclsp/internal/syntax"
)

var log = commonlog.GetLogger("kclsp.query")

// Engine is the query façade.
type Engine struct {
	store   *memory.Store
	inferer infer.Inferer
	catalog stdlib.Catalog
}

func NewEngine(store *memory.Store, inferer infer.Inferer, catalog stdlib.Catalog) *Engine {
	return &Engine{store: store, inferer: inferer, catalog: catalog}
}

// tree returns the snapshot's tree and the offset of pos in the tree's source.
func (e *Engine) tree(uri string, pos position.Position) (*syntax.Tree, int, bool) {
	snap, ok := e.store.Get(uri)
	if !ok || snap.Tree == nil {
		return nil, 0, false
	}
	off, err := position.ToOffset(snap.Tree.Source, pos)
	if err != nil {
		log.Debugf("%s %s: %s", uri, pos, err)
		return nil, 0, false
	}
	return snap.Tree, off, true
}

// Definition returns the range of the binding the identifier at pos refers to.
func (e *Engine) Definition(uri string, pos position.Position) (position.Range, bool) {
	defer metrics.ObserveQuery("definition", time.Now())

	tree, off, ok := e.tree(uri, pos)
	if !ok {
		return position.Range{}, false
	}
	s, ok := resolve.DefinitionOf(tree, off)
	if !ok {
		return position.Range{}, false
	}
	rng, err := position.SpanToRange(tree.Source, s)
	if err != nil {
		return position.Range{}, false
	}
	return rng, true
}

// References returns every occurrence of the symbol at pos in document order.
func (e *Engine) References(uri string, pos position.Position, includeDeclaration bool) []position.Range {
	defer metrics.ObserveQuery("references", time.Now())

	tree, off, ok := e.tree(uri, pos)
	if !ok {
		return nil
	}
	return rangesOf(tree.Source, resolve.ReferencesOf(tree, off, includeDeclaration))
}

// PrepareRename returns the range and current name of the symbol at pos.
func (e *Engine) PrepareRename(uri string, pos position.Position) (position.Range, string, bool) {
	defer metrics.ObserveQuery("prepareRename", time.Now())

	tree, off, ok := e.tree(uri, pos)
	if !ok {
		return position.Range{}, "", false
	}
	ident, ok := resolve.IdentifierAt(tree, off)
	if !ok {
		return position.Range{}, "", false
	}
	if _, ok := resolve.BindingAt(tree, off); !ok {
		return position.Range{}, "", false
	}
	rng, err := position.SpanToRange(tree.Source, ident.Span)
	if err != nil {
		return position.Range{}, "", false
	}
	return rng, ident.Name, true
}

// Rename returns the edits that rename the symbol at pos, definition
// included, sorted by position. A nil result means the position is not on a
// renameable symbol.
func (e *Engine) Rename(uri string, pos position.Position, newName string) ([]Edit, error) {
	defer metrics.ObserveQuery("rename", time.Now())

	if !ValidName(newName) {
		return nil, fmt.Errorf("%q: %w", newName, ErrInvalidName)
	}
	tree, off, ok := e.tree(uri, pos)
	if !ok {
		return nil, nil
	}
	plan, ok := resolve.RenamePlan(tree, off, newName)
	if !ok {
		return nil, nil
	}

	edits := make([]Edit, 0, len(plan))
	for s, text := range plan {
		rng, err := position.SpanToRange(tree.Source, s)
		if err != nil {
			return nil, nil
		}
		edits = append(edits, Edit{Range: rng, NewText: text})
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].Range.Start.Before(edits[j].Range.Start) })
	return edits, nil
}

// SemanticTokensFull encodes every token of the current text.
func (e *Engine) SemanticTokensFull(uri string) ([]uint32, bool) {
	defer metrics.ObserveQuery("semanticTokensFull", time.Now())

	snap, ok := e.store.Get(uri)
	if !ok {
		return nil, false
	}
	return encode(snap, nil)
}

// SemanticTokensRange encodes the tokens intersecting rng. The stream starts
// from a fresh (0, 0) baseline.
func (e *Engine) SemanticTokensRange(uri string, rng position.Range) ([]uint32, bool) {
	defer metrics.ObserveQuery("semanticTokensRange", time.Now())

	snap, ok := e.store.Get(uri)
	if !ok {
		return nil, false
	}
	s, err := position.RangeToSpan(snap.Text, rng)
	if err != nil {
		log.Debugf("%s %v: %s", uri, rng, err)
		return nil, false
	}
	return encode(snap, &s)
}

func encode(snap *memory.Snapshot, rng *syntax.Span) ([]uint32, bool) {
	deltas, err := semtok.Encode(snap.Text, snap.Tokens, rng)
	if err != nil {
		log.Errorf("%s version %d: %s", snap.URI, snap.Version, err)
		return nil, false
	}
	return semtok.Flatten(deltas), true
}

// InlayHints returns a type label after each typed binding inside rng.
func (e *Engine) InlayHints(uri string, rng position.Range) []InlayHint {
	defer metrics.ObserveQuery("inlayHint", time.Now())

	snap, ok := e.store.Get(uri)
	if !ok || snap.Tree == nil {
		return nil
	}
	src := snap.Tree.Source
	within, err := position.RangeToSpan(src, rng)
	if err != nil {
		return nil
	}

	var hints []InlayHint
	for s, typ := range e.inferer.Infer(snap.Tree) {
		if !s.Intersects(within) {
			continue
		}
		end, err := position.ToPosition(src, s.End)
		if err != nil {
			continue
		}
		hints = append(hints, InlayHint{Position: end, Label: ": " + typ})
	}
	sort.Slice(hints, func(i, j int) bool { return hints[i].Position.Before(hints[j].Position) })
	return hints
}

// Diagnostics reports the analysis error of the current text, if any. A
// clean document yields an empty, non-nil slice.
func (e *Engine) Diagnostics(uri string) ([]Diagnostic, bool) {
	defer metrics.ObserveQuery("diagnostics", time.Now())

	snap, ok := e.store.Get(uri)
	if !ok {
		return nil, false
	}
	return SnapshotDiagnostics(snap), true
}

// SnapshotDiagnostics reports the analysis error recorded on snap. Lex
// errors cover the offending character; parse errors cover the node the
// parser rejected.
func SnapshotDiagnostics(snap *memory.Snapshot) []Diagnostic {
	out := []Diagnostic{}

	var s syntax.Span
	var msg string
	switch {
	case snap.LexErr != nil:
		s = snap.LexErr.Span()
		if s.End < len(snap.Text) {
			s.End++
		}
		msg = snap.LexErr.Message
	case snap.ParseErr != nil:
		s = snap.ParseErr.Span
		msg = snap.ParseErr.Message
	default:
		return out
	}

	rng, err := position.SpanToRange(snap.Text, s)
	if err != nil {
		rng = position.Range{}
	}
	return append(out, Diagnostic{Range: rng, Message: msg})
}

// Hover describes the identifier at pos: its declaration when it resolves,
// or the built-in it names when it is free.
func (e *Engine) Hover(uri string, pos position.Position) (Hover, bool) {
	defer metrics.ObserveQuery("hover", time.Now())

	tree, off, ok := e.tree(uri, pos)
	if !ok {
		return Hover{}, false
	}
	ident, ok := resolve.IdentifierAt(tree, off)
	if !ok {
		return Hover{}, false
	}
	rng, err := position.SpanToRange(tree.Source, ident.Span)
	if err != nil {
		return Hover{}, false
	}

	if b, ok := resolve.BindingAt(tree, off); ok {
		types := e.inferer.Infer(tree)
		return Hover{Contents: fence(declaration(b, types[b.Span])), Range: rng}, true
	}
	if fn, ok := e.catalog.Lookup(ident.Name); ok {
		return Hover{Contents: builtinDoc(fn), Range: rng}, true
	}
	return Hover{}, false
}

func fence(code string) string {
	return "```kcl\n" + code + "\n```"
}

// declaration renders a binding the way it would be written, with its type
// when known.
func declaration(b resolve.Binding, typ string) string {
	var sb strings.Builder
	sb.WriteString(b.Kind.String())
	sb.WriteByte(' ')
	sb.WriteString(b.Name)
	if typ != "" && b.Kind != syntax.BindFn {
		sb.WriteString(": ")
		sb.WriteString(typ)
	}
	return sb.String()
}

func builtinDoc(fn stdlib.Function) string {
	doc := fence(fn.Signature) + "\n\n" + fn.Documentation()
	if fn.Deprecated {
		doc += "\n\n*Deprecated.*"
	}
	return doc
}

func rangesOf(text string, spans []syntax.Span) []position.Range {
	out := make([]position.Range, 0, len(spans))
	for _, s := range spans {
		rng, err := position.SpanToRange(text, s)
		if err != nil {
			return nil
		}
		out = append(out, rng)
	}
	return out
}
