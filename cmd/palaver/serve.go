package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/internal/cli"
	httpAdapter "github.com/aretw0/palaver/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes sessions and conversations as a JSON API over HTTP, with SSE event streams and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.HTTPAddr, _ = cmd.Flags().GetString("addr")
		}

		app, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()
		logger := app.Logger

		srv := &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: httpAdapter.NewHandler(app.Game,
				httpAdapter.WithLogger(logger),
				httpAdapter.WithGatherer(app.Registry),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Palaver Server", "addr", srv.Addr, "world", cfg.World, "store", cfg.Store, "version", palaver.Version)
			serverErrors <- srv.ListenAndServe()
		}()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case <-sigCtx.Done():
			logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				return srv.Close()
			}
			logger.Info("Palaver Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (env PALAVER_HTTP_ADDR)")
}
