package query

import (
	"time"

	"kclsp/internal/metrics"
	"kclsp/internal/position"
	"kclsp/internal/resolve"
	"kclsp/internal/syntax"
)

type keyword struct {
	label   string
	doc     string
	snippet string
}

var keywords = []keyword{
	{"|>", "A pipe operator.", "|> ${1}"},
	{"let", "A let binding.", "let ${1:name} = ${2:value}"},
	{"const", "A const binding.", "const ${1:name} = ${2:value}"},
	{"show", "Show a model.", "show(${1})"},
}

// Completion lists keywords, then built-in functions, then the bindings
// visible at pos. A position outside the last good tree gets no bindings. Snippet insert texts are produced only when snippets is set.
func (e *Engine) Completion(uri string, pos position.Position, snippets bool) ([]CompletionItem, bool) {
	defer metrics.ObserveQuery("completion", time.Now())

	snap, ok := e.store.Get(uri)
	if !ok {
		return nil, false
	}

	items := make([]CompletionItem, 0, len(keywords)+len(e.catalog.Functions()))
	for _, kw := range keywords {
		item := CompletionItem{Label: kw.label, Kind: CompletionKeyword, Detail: kw.doc}
		if snippets {
			item.InsertText, item.Snippet = kw.snippet, true
		}
		items = append(items, item)
	}

	for _, fn := range e.catalog.Functions() {
		item := CompletionItem{
			Label:         fn.Name,
			Kind:          CompletionFunction,
			Detail:        fn.Parameters(),
			Documentation: fn.Documentation(),
			Deprecated:    fn.Deprecated,
		}
		if snippets {
			item.InsertText, item.Snippet = fn.Name+"(${1})", true
		}
		items = append(items, item)
	}

	if snap.Tree == nil {
		return items, true
	}
	off, err := position.ToOffset(snap.Tree.Source, pos)
	if err != nil {
		log.Debugf("%s %s: %s", uri, pos, err)
		return items, true
	}
	types := e.inferer.Infer(snap.Tree)
	for _, b := range resolve.VisibleBindings(snap.Tree, off) {
		items = append(items, CompletionItem{
			Label:  b.Name,
			Kind:   bindingKind(b.Kind),
			Detail: declaration(b, types[b.Span]),
		})
	}
	return items, true
}

func bindingKind(k syntax.BindingKind) CompletionKind {
	switch k {
	case syntax.BindLet, syntax.BindVar, syntax.BindParam:
		return CompletionVariable
	case syntax.BindConst:
		return CompletionConstant
	case syntax.BindFn:
		return CompletionFunction
	default:
		return CompletionVariable
	}
}
