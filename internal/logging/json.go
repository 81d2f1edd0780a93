// Package logging provides a commonlog backend that writes one JSON object per
// message through slog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

const levelCritical = slog.LevelError + 4

// JSONBackend implements commonlog.Backend.
type JSONBackend struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	writer   io.Writer
	file     *os.File
	maxLevel commonlog.Level
	levels   map[string]commonlog.Level
}

// NewJSONBackend writes to w at the Info level until configured otherwise.
func NewJSONBackend(w io.Writer) *JSONBackend {
	b := &JSONBackend{maxLevel: commonlog.Info, levels: map[string]commonlog.Level{}}
	b.setWriter(w)
	return b
}

// UseJSON installs a JSON backend on stderr as the commonlog backend.
func UseJSON() *JSONBackend {
	b := NewJSONBackend(os.Stderr)
	commonlog.SetBackend(b)
	return b
}

func (b *JSONBackend) setWriter(w io.Writer) {
	b.writer = w
	b.logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Configure sets the verbosity and, when path is non-nil, appends to that
// file instead of stderr. Verbosity 0 logs notices, 1 info and 2 debug.
func (b *JSONBackend) Configure(verbosity int, path *string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.maxLevel = verbosityLevel(verbosity)
	if path == nil {
		return
	}
	file, err := os.OpenFile(*path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file %s: %s\n", *path, err)
		return
	}
	if b.file != nil {
		b.file.Close()
	}
	b.file = file
	b.setWriter(file)
}

func verbosityLevel(verbosity int) commonlog.Level {
	switch {
	case verbosity < 0:
		return commonlog.None
	case verbosity == 0:
		return commonlog.Notice
	case verbosity == 1:
		return commonlog.Info
	default:
		return commonlog.Debug
	}
}

func (b *JSONBackend) GetWriter() io.Writer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writer
}

func (b *JSONBackend) AllowLevel(level commonlog.Level, name ...string) bool {
	return level != commonlog.None && level <= b.GetMaxLevel(name...)
}

func (b *JSONBackend) SetMaxLevel(level commonlog.Level, name ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(name) == 0 {
		b.maxLevel = level
		return
	}
	b.levels[scope(name)] = level
}

func (b *JSONBackend) GetMaxLevel(name ...string) commonlog.Level {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if level, ok := b.levels[scope(name)]; ok {
		return level
	}
	return b.maxLevel
}

func (b *JSONBackend) NewMessage(level commonlog.Level, depth int, name ...string) commonlog.Message {
	if !b.AllowLevel(level, name...) {
		return nil
	}
	return &message{backend: b, level: level, scope: scope(name)}
}

func scope(name []string) string {
	return strings.Join(name, ".")
}

func slogLevel(level commonlog.Level) slog.Level {
	switch level {
	case commonlog.Critical:
		return levelCritical
	case commonlog.Error:
		return slog.LevelError
	case commonlog.Warning:
		return slog.LevelWarn
	case commonlog.Debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// message implements commonlog.Message.
type message struct {
	backend *JSONBackend
	level   commonlog.Level
	scope   string
	text    string
	attrs   []any
}

func (m *message) Set(key string, value any) commonlog.Message {
	switch key {
	case "_message":
		m.text = fmt.Sprint(value)
	case "_scope":
		m.scope = fmt.Sprint(value)
	default:
		m.attrs = append(m.attrs, slog.Any(strings.TrimPrefix(key, "_"), value))
	}
	return m
}

func (m *message) Send() {
	attrs := m.attrs
	if m.scope != "" {
		attrs = append([]any{slog.String("scope", m.scope)}, attrs...)
	}

	m.backend.mu.RLock()
	logger := m.backend.logger
	m.backend.mu.RUnlock()
	logger.Log(context.Background(), slogLevel(m.level), m.text, attrs...)
}
