package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kclsp/internal/cache/memory"
	"kclsp/internal/infer"
	"kclsp/internal/parser"
	"kclsp/internal/position"
	"kclsp/internal/query"
	"kclsp/internal/scanner"
	"kclsp/internal/semtok"
)

var dumpCmd = &cobra.Command{
	Use:   "dump PATH...",
	Short: "Print the analysis of KCL files, or of every KCL file below a directory, as YAML",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDump(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func init() {
	dumpCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
}

type dumpToken struct {
	Line   uint32 `yaml:"line"`
	Start  uint32 `yaml:"start"`
	Length uint32 `yaml:"length"`
	Kind   string `yaml:"kind"`
}

type dumpDiagnostic struct {
	Range   string `yaml:"range"`
	Message string `yaml:"message"`
}

type dumpHint struct {
	Position string `yaml:"position"`
	Label    string `yaml:"label"`
}

type dumpFile struct {
	URI         string           `yaml:"uri"`
	Diagnostics []dumpDiagnostic `yaml:"diagnostics"`
	Tokens      []dumpToken      `yaml:"tokens"`
	Hints       []dumpHint       `yaml:"hints,omitempty"`
}

func runDump(ctx context.Context, w io.Writer, paths []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	ts := parser.NewTreeSitter(cfg.ParserPoolSize)
	defer ts.Close()
	store := memory.NewStore(memory.Config{Tokenizer: ts, Parser: ts})
	engine := query.NewEngine(store, infer.NewLiteral(catalog), catalog)

	var files []dumpFile
	for _, root := range paths {
		err := scanner.Scan(ctx, root, func(path string, document []byte) error {
			f, err := dumpOne(ctx, store, engine, path, document)
			if err != nil {
				return err
			}
			files = append(files, f)
			return nil
		})
		if err != nil {
			return err
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(files)
}

func dumpOne(ctx context.Context, store *memory.Store, engine *query.Engine, path string, document []byte) (dumpFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return dumpFile{}, err
	}
	uri := "file://" + filepath.ToSlash(abs)

	snap, err := store.Open(ctx, uri, string(document), 0)
	if err != nil {
		return dumpFile{}, err
	}
	defer store.Close(uri)

	out := dumpFile{URI: uri}
	for _, d := range query.SnapshotDiagnostics(snap) {
		out.Diagnostics = append(out.Diagnostics, dumpDiagnostic{
			Range:   fmt.Sprintf("%s-%s", d.Range.Start, d.Range.End),
			Message: d.Message,
		})
	}

	deltas, err := semtok.Encode(snap.Text, snap.Tokens, nil)
	if err != nil {
		return dumpFile{}, fmt.Errorf("%s: %w", path, err)
	}
	for _, t := range semtok.Decode(deltas) {
		out.Tokens = append(out.Tokens, dumpToken{
			Line:   t.Line,
			Start:  t.Start,
			Length: t.Length,
			Kind:   t.Kind.String(),
		})
	}

	end, err := position.ToPosition(snap.Text, len(snap.Text))
	if err != nil {
		return dumpFile{}, err
	}
	for _, h := range engine.InlayHints(uri, position.Range{End: end}) {
		out.Hints = append(out.Hints, dumpHint{Position: h.Position.String(), Label: h.Label})
	}
	return out, nil
}
