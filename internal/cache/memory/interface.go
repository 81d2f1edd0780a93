package memory

import (
	"errors"

	"kclsp/internal/syntax"
)

var (
	// ErrNotFound is returned for a URI the store does not hold.
	ErrNotFound = errors.New("document not found")
	// ErrStaleEdit is returned for a change older than the stored version.
	ErrStaleEdit = errors.New("stale edit")
)

// Snapshot is an immutable view of one document version. Text, Tokens and
// the error fields always belong to the same version. Tree is the last tree
// that parsed successfully and is addressed by Tree.Source, which lags Text
// while the document does not parse.
type Snapshot struct {
	URI     string
	Version int32
	Text    string
	Tokens  []syntax.Token
	Tree    *syntax.Tree

	LexErr   *syntax.LexError
	ParseErr *syntax.ParseError
}

// Stale reports whether the tree was parsed from older text.
func (s *Snapshot) Stale() bool {
	return s.Tree != nil && s.Tree.Source != s.Text
}

// Err returns the analysis error of this version, if any.
func (s *Snapshot) Err() error {
	if s.LexErr != nil {
		return s.LexErr
	}
	if s.ParseErr != nil {
		return s.ParseErr
	}
	return nil
}
