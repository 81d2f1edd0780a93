package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"kclsp/internal/config"
	"kclsp/internal/logging"
	"kclsp/internal/stdlib"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

var (
	rootCmd = &cobra.Command{
		Use:           "kcl-language-server",
		Short:         "Language server for KCL",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
	}

	debug    bool
	jsonLogs bool
	logfile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Print debug info")
	rootCmd.PersistentFlags().BoolVarP(&jsonLogs, "json", "j", false, "Print logs as JSON")
	rootCmd.PersistentFlags().StringVar(&logfile, "logfile", "", "Path to log file (default stderr)")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(dumpCmd)
}

func configureLogging() {
	if jsonLogs {
		logging.UseJSON()
	}
	verbosity := 1
	if debug {
		verbosity = 2
	}
	if logfile != "" {
		commonlog.Configure(verbosity, &logfile)
		return
	}
	commonlog.Configure(verbosity, nil)
}

// loadConfig reads path over the defaults, or returns the defaults when path
// is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

func loadCatalog(cfg config.Config) (stdlib.Catalog, error) {
	if cfg.CatalogPath == "" {
		return stdlib.Default(), nil
	}
	return stdlib.LoadFile(cfg.CatalogPath)
}
