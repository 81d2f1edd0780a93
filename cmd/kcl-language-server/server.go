package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"kclsp/internal/config"
	"kclsp/internal/lsp"
	"kclsp/internal/parser"
)

var log = commonlog.GetLogger("kclsp")

var (
	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Run the language server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	stdio       bool
	socket      int
	configPath  string
	metricsAddr string
)

func init() {
	serverCmd.Flags().BoolVar(&stdio, "stdio", false, "Listen on stdin and stdout")
	serverCmd.Flags().IntVar(&socket, "socket", 8080, "Port to listen on when not using stdio")
	serverCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file, reloaded on change")
	serverCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on host:port")
}

func runServer(ctx context.Context) error {
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

	ls := lsp.NewServer(lsp.Options{
		Config:    cfg,
		Catalog:   catalog,
		Tokenizer: ts,
		Parser:    ts,
		Version:   Version,
		Debug:     debug,
	})
	defer ls.Close()

	handleSignals(ls)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if configPath != "" {
		if err := config.Watch(ctx, configPath, ls.Configure); err != nil {
			return err
		}
	}

	transport := ls.Transport()
	g.Go(func() error {
		defer cancel()
		if stdio {
			return transport.RunStdio()
		}
		return transport.RunTCP(fmt.Sprintf("0.0.0.0:%d", socket))
	})

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			log.Infof("serving metrics on %s", metricsAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// handleSignals exits cleanly on SIGINT and SIGTERM.
func handleSignals(ls *lsp.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		log.Infof("received signal: %s", sig)
		log.Info("triggering cleanup...")
		ls.Close()
		log.Info("all clean, exiting!")
		os.Exit(0)
	}()
}
