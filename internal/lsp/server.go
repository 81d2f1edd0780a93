// Package lsp binds the query engine to the Language Server Protocol through
// glsp. Handlers translate protocol positions into engine calls; document
// updates go to the store and diagnostics are published from a single
// scheduler worker so they reach the client in edit order.
package lsp

import (
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"kclsp/internal/cache/memory"
	"kclsp/internal/config"
	"kclsp/internal/infer"
	"kclsp/internal/metrics"
	"kclsp/internal/parser"
	"kclsp/internal/query"
	"kclsp/internal/scheduler"
	"kclsp/internal/stdlib"
)

const Name = "kcl-language-server"

const defaultStatsInterval = time.Minute

var log = commonlog.GetLogger("kclsp.lsp")

// Options wires the server's collaborators.
type Options struct {
	Config    config.Config
	Catalog   stdlib.Catalog
	Tokenizer parser.Tokenizer
	Parser    parser.Parser
	Version   string
	Debug     bool

	// StatsInterval sets how often open-document stats are refreshed. Zero
	// means once a minute.
	StatsInterval time.Duration
}

type Server struct {
	handler   *protocol.Handler
	store     *memory.Store
	engine    *query.Engine
	scheduler *scheduler.Scheduler
	version   string
	debug     bool

	mu     sync.RWMutex
	config config.Config

	// Owned by the scheduler worker.
	diagnosticCache map[string][]protocol.Diagnostic
}

func NewServer(opts Options) *Server {
	ls := &Server{
		config:          opts.Config,
		version:         opts.Version,
		debug:           opts.Debug,
		diagnosticCache: make(map[string][]protocol.Diagnostic),
	}
	ls.store = memory.NewStore(memory.Config{
		Tokenizer: opts.Tokenizer,
		Parser:    opts.Parser,
	})
	ls.engine = query.NewEngine(ls.store, infer.NewLiteral(opts.Catalog), opts.Catalog)
	ls.scheduler = scheduler.NewScheduler(64)
	ls.scheduler.RunScheduler()

	interval := opts.StatsInterval
	if interval <= 0 {
		interval = defaultStatsInterval
	}
	ls.scheduler.SchedulePeriodicTask(interval, scheduler.Task{
		Name:    "document stats",
		Execute: ls.reportStats,
	})

	ls.handler = &protocol.Handler{
		Initialize:                      ls.initialize,
		Initialized:                     ls.initialized,
		Shutdown:                        ls.shutdown,
		SetTrace:                        ls.setTrace,
		TextDocumentDidOpen:             ls.textDocumentDidOpen,
		TextDocumentDidChange:           ls.textDocumentDidChange,
		TextDocumentDidSave:             ls.textDocumentDidSave,
		TextDocumentDidClose:            ls.textDocumentDidClose,
		TextDocumentHover:               ls.textDocumentHover,
		TextDocumentCompletion:          ls.textDocumentCompletion,
		TextDocumentDefinition:          ls.textDocumentDefinition,
		TextDocumentReferences:          ls.textDocumentReferences,
		TextDocumentRename:              ls.textDocumentRename,
		TextDocumentPrepareRename:       ls.textDocumentPrepareRename,
		TextDocumentSemanticTokensFull:  ls.textDocumentSemanticTokensFull,
		TextDocumentSemanticTokensRange: ls.textDocumentSemanticTokensRange,
	}
	return ls
}

// Handler returns the glsp handler, including methods newer than the
// protocol_3_16 handler knows about.
func (s *Server) Handler() glsp.Handler {
	return &handler{Handler: s.handler, inlayHint: s.textDocumentInlayHint}
}

// Transport returns a glsp server ready for RunStdio or RunTCP.
func (s *Server) Transport() *server.Server {
	return server.NewServer(s.Handler(), "kclsp", s.debug)
}

// Config returns the active configuration.
func (s *Server) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Configure replaces the active configuration. Feature toggles apply to the
// next request.
func (s *Server) Configure(cfg config.Config) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	log.Infof("configuration updated: %+v", cfg)
}

// reportStats refreshes the open-document gauge from the store.
func (s *Server) reportStats() error {
	uris := s.store.URIs()
	metrics.OpenDocuments.Set(float64(len(uris)))
	log.Debugf("%d open documents: %s", len(uris), strings.Join(uris, " "))
	return nil
}

// Close drops all documents and drains pending diagnostics.
func (s *Server) Close() {
	s.store.CloseAll()
	s.scheduler.StopScheduler()
}
