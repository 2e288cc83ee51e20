package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hakim/surfacerecon/internal/metrics"
	"github.com/hakim/surfacerecon/internal/pipeline"
	"github.com/hakim/surfacerecon/internal/server"
	"github.com/hakim/surfacerecon/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scan API over HTTP",
	Long: `Start the HTTP API:

  POST /scan         {"domain": "example.com"}  queue a scan (202 {jobId})
                     ?sync=true runs it inline and returns the report
  GET  /scan/:id     job state, progress and result
  GET  /health       liveness and wordlist size
  GET  /metrics      Prometheus metrics

Finished reports are stored in the report database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if cmd.Flags().Changed("sync") {
			cfg.Server.Sync, _ = cmd.Flags().GetBool("sync")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		collector := metrics.New()
		orch := pipeline.NewFromConfig(cfg, pipeline.Options{Recorder: collector})

		srv := server.New(ctx, cfg.Server, orch, collector, store)
		if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr from config)")
	serveCmd.Flags().Bool("sync", false, "run scans inline by default")
	rootCmd.AddCommand(serveCmd)
}
