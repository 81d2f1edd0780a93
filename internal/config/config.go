package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SemanticTokens     bool   `json:"semantic_tokens"     yaml:"semantic_tokens"`
	InlayHints         bool   `json:"inlay_hints"         yaml:"inlay_hints"`
	CompletionSnippets bool   `json:"completion_snippets" yaml:"completion_snippets"`
	CatalogPath        string `json:"catalog_path"        yaml:"catalog_path"` // empty means the embedded catalog
	ParserPoolSize     int    `json:"parser_pool_size"    yaml:"parser_pool_size"`
}

var defaultConfig = Config{
	SemanticTokens:     true,
	InlayHints:         true,
	CompletionSnippets: true,
	ParserPoolSize:     4,
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig
}

// Load overlays v, typically the client's initialization options, on the
// defaults.
func Load(v any) (Config, error) {
	return Overlay(defaultConfig, v)
}

// Overlay overlays v on base. Only fields present in v overwrite.
func Overlay(base Config, v any) (Config, error) {
	cfg := base
	if v == nil {
		return cfg, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}

	return cfg.validate()
}

// LoadFile reads a YAML file over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg.validate()
}

func (c Config) validate() (Config, error) {
	if c.ParserPoolSize < 1 {
		return Config{}, fmt.Errorf("parser_pool_size must be positive, got %d", c.ParserPoolSize)
	}
	return c, nil
}
