// Package stdlib describes the built-in functions of the language.
package stdlib

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Function is one built-in.
type Function struct {
	Name        string `yaml:"name"`
	Signature   string `yaml:"signature"`
	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
	Deprecated  bool   `yaml:"deprecated"`
}

// Documentation renders the summary and description as markdown.
func (f Function) Documentation() string {
	if f.Description == "" {
		return f.Summary
	}
	return f.Summary + "\n\n" + f.Description
}

// Parameters returns the signature with the leading function name removed.
func (f Function) Parameters() string {
	return strings.TrimPrefix(f.Signature, f.Name)
}

// Returns is the declared result type, or "" when the signature has none.
func (f Function) Returns() string {
	i := strings.LastIndex(f.Signature, "->")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(f.Signature[i+2:])
}

// Catalog lists built-in functions.
type Catalog interface {
	Functions() []Function
	Lookup(name string) (Function, bool)
}

// Registry is a Catalog loaded from YAML.
type Registry struct {
	functions []Function
	byName    map[string]Function
}

type catalogYAML struct {
	Functions []Function `yaml:"functions"`
}

// Load parses a YAML catalog. Functions are kept sorted by name.
func Load(data []byte) (*Registry, error) {
	var doc catalogYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling catalog: %w", err)
	}

	r := &Registry{byName: make(map[string]Function, len(doc.Functions))}
	for i, fn := range doc.Functions {
		if fn.Name == "" {
			return nil, fmt.Errorf("catalog entry %d has empty name", i)
		}
		if _, dup := r.byName[fn.Name]; dup {
			return nil, fmt.Errorf("catalog entry %q is duplicated", fn.Name)
		}
		if fn.Signature == "" {
			fn.Signature = fn.Name + "()"
		}
		r.byName[fn.Name] = fn
		r.functions = append(r.functions, fn)
	}
	sort.Slice(r.functions, func(i, j int) bool { return r.functions[i].Name < r.functions[j].Name })
	return r, nil
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Load(data)
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the embedded catalog.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Load(defaultCatalogYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Functions implements Catalog. The returned slice must not be modified.
func (r *Registry) Functions() []Function {
	return r.functions
}

// Lookup implements Catalog.
func (r *Registry) Lookup(name string) (Function, bool) {
	fn, ok := r.byName[name]
	return fn, ok
}
