package memory_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"kclsp/internal/cache/memory"
	"kclsp/internal/syntax"
)

// MockParser implements parser.Tokenizer and parser.Parser. Every word is a
// variable token; '@' fails lexing and '!' fails parsing.
type MockParser struct {
	tokenizeCalls atomic.Int32
	parseCalls    atomic.Int32
}

func (m *MockParser) Tokenize(_ context.Context, src []byte) ([]syntax.Token, error) {
	m.tokenizeCalls.Add(1)
	text := string(src)
	if i := strings.IndexByte(text, '@'); i >= 0 {
		return nil, &syntax.LexError{Offset: i, Message: "unexpected '@'"}
	}
	var tokens []syntax.Token
	start := -1
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == ' ' || text[i] == '\n' {
			if start >= 0 {
				tokens = append(tokens, syntax.Token{Start: start, Length: i - start, Kind: syntax.TokenVariable})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return tokens, nil
}

func (m *MockParser) Parse(_ context.Context, src []byte, _ []syntax.Token) (*syntax.Tree, error) {
	m.parseCalls.Add(1)
	text := string(src)
	if i := strings.IndexByte(text, '!'); i >= 0 {
		return nil, &syntax.ParseError{Span: syntax.Span{Start: i, End: i + 1}, Message: "unexpected '!'"}
	}
	root := &syntax.Node{Kind: syntax.KindProgram, Span: syntax.Span{End: len(text)}}
	return &syntax.Tree{Root: root, Source: text}, nil
}

func newStore() (*memory.Store, *MockParser) {
	m := &MockParser{}
	return memory.NewStore(memory.Config{Tokenizer: m, Parser: m}), m
}

const uri = "file:///main.kcl"

func TestOpenAndGet(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()

	_, ok := store.Get(uri)
	assert.False(t, ok)

	snap, err := store.Open(ctx, uri, "let x", 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), snap.Version)
	assert.Len(t, snap.Tokens, 2)
	require.NotNil(t, snap.Tree)
	assert.False(t, snap.Stale())
	assert.NoError(t, snap.Err())

	got, ok := store.Get(uri)
	require.True(t, ok)
	assert.Same(t, snap, got)
}

func TestGetIsIdempotent(t *testing.T) {
	store, _ := newStore()
	_, err := store.Open(context.Background(), uri, "let x", 1)
	require.NoError(t, err)

	first, _ := store.Get(uri)
	second, _ := store.Get(uri)
	assert.Same(t, first, second)
}

func TestApplyChange(t *testing.T) {
	store, m := newStore()
	ctx := context.Background()
	_, err := store.Open(ctx, uri, "let x", 1)
	require.NoError(t, err)

	snap, err := store.ApplyChange(ctx, uri, "let x y", 2)
	require.NoError(t, err)
	assert.Equal(t, "let x y", snap.Text)
	assert.Len(t, snap.Tokens, 3)
	assert.Equal(t, "let x y", snap.Tree.Source)
	assert.Equal(t, int32(2), m.parseCalls.Load())

	t.Run("equal version is applied", func(t *testing.T) {
		snap, err := store.ApplyChange(ctx, uri, "let z", 2)
		require.NoError(t, err)
		assert.Equal(t, "let z", snap.Text)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := store.ApplyChange(ctx, "file:///other.kcl", "x", 1)
		assert.ErrorIs(t, err, memory.ErrNotFound)
	})
}

func TestStaleEdit(t *testing.T) {
	store, m := newStore()
	ctx := context.Background()
	_, err := store.Open(ctx, uri, "v1", 1)
	require.NoError(t, err)
	_, err = store.ApplyChange(ctx, uri, "v5", 5)
	require.NoError(t, err)
	calls := m.tokenizeCalls.Load()

	snap, err := store.ApplyChange(ctx, uri, "v3", 3)
	assert.ErrorIs(t, err, memory.ErrStaleEdit)
	assert.Equal(t, int32(5), snap.Version)
	assert.Equal(t, calls, m.tokenizeCalls.Load(), "stale edits are not analysed")

	current, _ := store.Get(uri)
	assert.Equal(t, int32(5), current.Version)
	assert.Equal(t, "v5", current.Text)
}

func TestParseErrorKeepsPreviousTree(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	_, err := store.Open(ctx, uri, "let x", 1)
	require.NoError(t, err)

	snap, err := store.ApplyChange(ctx, uri, "let !", 2)
	require.NoError(t, err)
	require.NotNil(t, snap.ParseErr)
	assert.Equal(t, syntax.Span{Start: 4, End: 5}, snap.ParseErr.Span)
	assert.Len(t, snap.Tokens, 2)
	require.NotNil(t, snap.Tree)
	assert.Equal(t, "let x", snap.Tree.Source)
	assert.True(t, snap.Stale())

	var parseErr *syntax.ParseError
	assert.True(t, errors.As(snap.Err(), &parseErr))

	// A later good version clears the error and the staleness.
	snap, err = store.ApplyChange(ctx, uri, "let y", 3)
	require.NoError(t, err)
	assert.Nil(t, snap.ParseErr)
	assert.False(t, snap.Stale())
}

func TestLexErrorSkipsParse(t *testing.T) {
	store, m := newStore()
	ctx := context.Background()
	_, err := store.Open(ctx, uri, "let x", 1)
	require.NoError(t, err)
	parses := m.parseCalls.Load()

	snap, err := store.ApplyChange(ctx, uri, "let @", 2)
	require.NoError(t, err)
	require.NotNil(t, snap.LexErr)
	assert.Equal(t, 4, snap.LexErr.Offset)
	assert.Empty(t, snap.Tokens)
	assert.Equal(t, parses, m.parseCalls.Load())
	require.NotNil(t, snap.Tree)
	assert.Equal(t, "let x", snap.Tree.Source)
}

func TestOpenWithErrorHasNoTree(t *testing.T) {
	store, _ := newStore()
	snap, err := store.Open(context.Background(), uri, "!", 1)
	require.NoError(t, err)
	assert.NotNil(t, snap.ParseErr)
	assert.Nil(t, snap.Tree)
	assert.False(t, snap.Stale())
}

func TestOpenReplaces(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	_, err := store.Open(ctx, uri, "a", 1)
	require.NoError(t, err)
	_, err = store.ApplyChange(ctx, uri, "a !", 2)
	require.NoError(t, err)

	snap, err := store.Open(ctx, uri, "b !", 3)
	require.NoError(t, err)
	assert.Equal(t, "b !", snap.Text)
	assert.Equal(t, int32(3), snap.Version)
	assert.NotNil(t, snap.ParseErr)
	assert.Nil(t, snap.Tree, "a reopened document starts without a tree")

	got, ok := store.Get(uri)
	require.True(t, ok)
	assert.Same(t, snap, got)
	assert.Equal(t, []string{uri}, store.URIs())
}

func TestOpenRejectsOlderVersion(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	first, err := store.Open(ctx, uri, "a", 7)
	require.NoError(t, err)

	snap, err := store.Open(ctx, uri, "b", 1)
	assert.ErrorIs(t, err, memory.ErrStaleEdit)
	assert.Same(t, first, snap)

	got, ok := store.Get(uri)
	require.True(t, ok)
	assert.Equal(t, "a", got.Text)
}

func TestOpenWhileChanging(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	_, err := store.Open(ctx, uri, "v0", 0)
	require.NoError(t, err)

	g, ctx := errgroup.WithContext(ctx)
	for i := int32(1); i <= 20; i++ {
		g.Go(func() error {
			_, err := store.ApplyChange(ctx, uri, fmt.Sprintf("change %d", i), i)
			if errors.Is(err, memory.ErrStaleEdit) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			_, err := store.Open(ctx, uri, fmt.Sprintf("open %d", i), i)
			if errors.Is(err, memory.ErrStaleEdit) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	// Every writer went through the one entry, so the newest version won.
	snap, ok := store.Get(uri)
	require.True(t, ok)
	assert.Equal(t, int32(20), snap.Version)
	assert.Equal(t, []string{uri}, store.URIs())
}

func TestLexErrorDropsStaleParseError(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	_, err := store.Open(ctx, uri, "let x", 1)
	require.NoError(t, err)
	snap, err := store.ApplyChange(ctx, uri, "let !", 2)
	require.NoError(t, err)
	require.NotNil(t, snap.ParseErr)

	snap, err = store.ApplyChange(ctx, uri, "let @", 3)
	require.NoError(t, err)
	require.NotNil(t, snap.LexErr)
	assert.Nil(t, snap.ParseErr, "the parse error described older text")
	require.NotNil(t, snap.Tree)
	assert.Equal(t, "let x", snap.Tree.Source)
}

func TestClose(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	for _, u := range []string{"file:///b.kcl", "file:///a.kcl", "file:///c.kcl"} {
		_, err := store.Open(ctx, u, "x", 1)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"file:///a.kcl", "file:///b.kcl", "file:///c.kcl"}, store.URIs())

	require.NoError(t, store.Close("file:///b.kcl"))
	_, ok := store.Get("file:///b.kcl")
	assert.False(t, ok)
	assert.ErrorIs(t, store.Close("file:///b.kcl"), memory.ErrNotFound)

	_, err := store.ApplyChange(ctx, "file:///b.kcl", "y", 2)
	assert.ErrorIs(t, err, memory.ErrNotFound)

	store.CloseAll()
	assert.Empty(t, store.URIs())
}

// TestConcurrentReadersSeeWholeSnapshots runs writers and readers on one
// document. Every snapshot a reader sees must be internally consistent.
func TestConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	store, _ := newStore()
	ctx := context.Background()
	_, err := store.Open(ctx, uri, "w0", 0)
	require.NoError(t, err)

	const versions = 200
	var g errgroup.Group

	for w := 0; w < 2; w++ {
		g.Go(func() error {
			for v := 1; v <= versions; v++ {
				text := strings.Repeat(fmt.Sprintf("w%d ", w), v%7+1)
				_, err := store.ApplyChange(ctx, uri, text, int32(v))
				if err != nil && !errors.Is(err, memory.ErrStaleEdit) {
					return err
				}
			}
			return nil
		})
	}

	for r := 0; r < 4; r++ {
		g.Go(func() error {
			for i := 0; i < 500; i++ {
				snap, ok := store.Get(uri)
				if !ok {
					return errors.New("document vanished")
				}
				if snap.Tree.Source != snap.Text {
					return fmt.Errorf("version %d: tree source %q, text %q", snap.Version, snap.Tree.Source, snap.Text)
				}
				if want := len(strings.Fields(snap.Text)); len(snap.Tokens) != want {
					return fmt.Errorf("version %d: %d tokens for %d words", snap.Version, len(snap.Tokens), want)
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	snap, _ := store.Get(uri)
	assert.Equal(t, int32(versions), snap.Version)
}
