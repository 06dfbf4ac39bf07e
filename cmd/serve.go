package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/propdash-cli/internal/metrics"
	"github.com/KaramelBytes/propdash-cli/internal/server"
	"github.com/KaramelBytes/propdash-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	srvLoad loadFlags
	srvAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve [file|glob]...",
	Short: "Serve the dashboard API over HTTP",
	Long: `Serve starts an HTTP API for uploading a dataset and querying quality,
overview, segments, competitiveness and records. Files given as arguments are
loaded before the server starts. Prometheus metrics are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := srvLoad.options(cmd)
		if err != nil {
			return err
		}
		sess := session.New(opts)
		reg := metrics.New()
		if len(args) > 0 {
			paths, err := expandInputs(args)
			if err != nil {
				return err
			}
			snap, err := sess.LoadFiles(paths)
			reg.ObserveLoad(string(opts.Domain), err, snapRows(snap), snapDropped(snap))
			if err != nil {
				return err
			}
			fmt.Printf("✓ Loaded %d records from %d file(s)\n", snap.Dataset.Len(), len(paths))
		}

		addr := currentConfig().ServeAddr
		if cmd.Flags().Changed("addr") {
			addr = srvAddr
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Printf("✓ Serving on %s\n", addr)
		return server.New(sess, reg).Run(ctx, addr)
	},
}

func snapRows(s *session.Snapshot) int {
	if s == nil {
		return 0
	}
	return s.Quality.CleanedRows
}

func snapDropped(s *session.Snapshot) int {
	if s == nil {
		return 0
	}
	return s.Quality.DroppedRows
}

func init() {
	rootCmd.AddCommand(serveCmd)
	srvLoad.register(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", ":8080", "listen address (default from config serve_addr)")
}
