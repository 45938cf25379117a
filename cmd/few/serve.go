package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/few/pkg/adapters/http"
	"github.com/aretw0/few/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes component sessions over HTTP: start sessions, invoke actions, dispatch patches,
evaluate expressions and stream store diffs (SSE). Prometheus metrics are served on /metrics,
or on server.metrics_addr when it is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newHost(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		addr := h.Config.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		metrics := observability.Handler(h.Gatherer)
		opts := []httpAdapter.Option{httpAdapter.WithLogger(h.Logger)}
		servers := []*http.Server{}
		if h.Config.Server.MetricsAddr == "" {
			opts = append(opts, httpAdapter.WithMetrics(metrics))
		} else {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics)
			servers = append(servers, &http.Server{Addr: h.Config.Server.MetricsAddr, Handler: mux})
		}
		servers = append(servers, &http.Server{
			Addr:    addr,
			Handler: httpAdapter.NewHandler(h.Sessions, opts...),
		})

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		// Channel to listen for errors coming from the listeners.
		serverErrors := make(chan error, len(servers))
		for _, srv := range servers {
			go func() {
				h.Logger.Info("few server listening", "addr", srv.Addr, "components", h.Config.Components)
				serverErrors <- srv.ListenAndServe()
			}()
		}

		var runErr error
		select {
		case runErr = <-serverErrors:
		case <-ctx.Done():
			h.Logger.Info("shutdown signal received")
		}

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				h.Logger.Warn("graceful shutdown did not complete", "addr", srv.Addr, "err", err)
				srv.Close()
			}
		}
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			return runErr
		}
		h.Logger.Info("few server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides server.addr)")
}
