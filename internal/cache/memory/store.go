// Package memory keeps the analysed state of open documents.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tliron/commonlog"

	"kclsp/internal/metrics"
	"kclsp/internal/parser"
	"kclsp/internal/syntax"
)

var log = commonlog.GetLogger("kclsp.cache")

// Store holds one entry per open document. The map lock is only taken to
// find, insert or remove entries. Each entry serialises its own writers and
// publishes snapshots through an atomic pointer, so readers never wait for an
// analysis to finish.
type Store struct {
	tokenizer parser.Tokenizer
	parser    parser.Parser

	mu   sync.RWMutex
	docs map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	snap atomic.Pointer[Snapshot]
}

// Config wires the store to its front end.
type Config struct {
	Tokenizer parser.Tokenizer
	Parser    parser.Parser
}

func NewStore(config Config) *Store {
	return &Store{
		tokenizer: config.Tokenizer,
		parser:    config.Parser,
		docs:      make(map[string]*entry),
	}
}

// Open analyses text and stores it under uri. Opening a document that is
// already open replaces it in place, under the same writer lock and version
// ordering as ApplyChange, without carrying its tree forward.
func (s *Store) Open(ctx context.Context, uri string, text string, version int32) (*Snapshot, error) {
	if e, ok := s.lookup(uri); ok {
		return s.update(ctx, e, uri, text, version, false)
	}

	snap := s.analyze(ctx, uri, text, version, nil)
	e := &entry{}
	e.snap.Store(snap)

	s.mu.Lock()
	if current, ok := s.docs[uri]; ok {
		s.mu.Unlock()
		return s.update(ctx, current, uri, text, version, false)
	}
	s.docs[uri] = e
	metrics.OpenDocuments.Set(float64(len(s.docs)))
	s.mu.Unlock()

	metrics.DocumentChanges.WithLabelValues(metrics.ResultApplied).Inc()
	log.Debugf("opened %s at version %d", uri, version)
	return snap, nil
}

// ApplyChange replaces the text of uri. A version older than the stored one
// is rejected with ErrStaleEdit and the stored snapshot is returned unchanged.
func (s *Store) ApplyChange(ctx context.Context, uri string, text string, version int32) (*Snapshot, error) {
	e, ok := s.lookup(uri)
	if !ok {
		metrics.DocumentChanges.WithLabelValues(metrics.ResultMissing).Inc()
		return nil, fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	return s.update(ctx, e, uri, text, version, true)
}

// update analyses a new version of an existing entry. With carry set, a
// failed analysis keeps the previous tree.
func (s *Store) update(ctx context.Context, e *entry, uri string, text string, version int32, carry bool) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.snap.Load()
	if version < prev.Version {
		metrics.DocumentChanges.WithLabelValues(metrics.ResultStale).Inc()
		log.Debugf("ignoring %s version %d, have %d", uri, version, prev.Version)
		return prev, fmt.Errorf("%s version %d older than %d: %w", uri, version, prev.Version, ErrStaleEdit)
	}

	base := prev
	if !carry {
		base = nil
	}
	snap := s.analyze(ctx, uri, text, version, base)
	e.snap.Store(snap)
	metrics.DocumentChanges.WithLabelValues(metrics.ResultApplied).Inc()
	return snap, nil
}

// Get returns the current snapshot of uri.
func (s *Store) Get(uri string) (*Snapshot, bool) {
	e, ok := s.lookup(uri)
	if !ok {
		return nil, false
	}
	return e.snap.Load(), true
}

// Close drops uri and everything derived from it.
func (s *Store) Close(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[uri]; !ok {
		return fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	delete(s.docs, uri)
	metrics.OpenDocuments.Set(float64(len(s.docs)))
	log.Debugf("closed %s", uri)
	return nil
}

// CloseAll drops every document.
func (s *Store) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = make(map[string]*entry)
	metrics.OpenDocuments.Set(0)
}

// URIs lists the open documents in sorted order.
func (s *Store) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

func (s *Store) lookup(uri string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.docs[uri]
	return e, ok
}

// analyze builds the snapshot for one version. A lex failure leaves the
// token stream empty and skips parsing. Either failure carries the previous
// tree forward.
func (s *Store) analyze(ctx context.Context, uri string, text string, version int32, prev *Snapshot) *Snapshot {
	start := time.Now()
	defer func() { metrics.AnalysisDuration.Observe(time.Since(start).Seconds()) }()

	snap := &Snapshot{URI: uri, Version: version, Text: text}
	if prev != nil {
		snap.Tree = prev.Tree
	}
	src := []byte(text)

	tokens, err := s.tokenizer.Tokenize(ctx, src)
	if err != nil {
		snap.LexErr = asLexError(err)
		metrics.DocumentErrors.WithLabelValues(metrics.ErrorLex).Inc()
		log.Debugf("%s version %d: %s", uri, version, snap.LexErr)
		return snap
	}
	snap.Tokens = tokens

	tree, err := s.parser.Parse(ctx, src, tokens)
	if err != nil {
		snap.ParseErr = asParseError(err)
		metrics.DocumentErrors.WithLabelValues(metrics.ErrorParse).Inc()
		log.Debugf("%s version %d: %s", uri, version, snap.ParseErr)
		return snap
	}
	snap.Tree = tree
	return snap
}

func asLexError(err error) *syntax.LexError {
	var lexErr *syntax.LexError
	if errors.As(err, &lexErr) {
		return lexErr
	}
	return &syntax.LexError{Message: err.Error()}
}

func asParseError(err error) *syntax.ParseError {
	var parseErr *syntax.ParseError
	if errors.As(err, &parseErr) {
		return parseErr
	}
	return &syntax.ParseError{Message: err.Error()}
}
