package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/litsearch/internal/api"
	"github.com/Aman-CERP/litsearch/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(o *globalOptions) *cobra.Command {
	var addr string
	var skipReindex bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Rebuild the indexes, then serve search over HTTP",
		Long: `Rebuild every namespace from the catalog and then start the JSON HTTP
server. Requests are not accepted until the rebuild has finished.

Endpoints:
  POST /search                                   structured search
  GET  /search/basic?q=                          free-text search
  GET  /search/exists?title=&lastName=           duplicate-poem check
  GET  /search/authors?firstName=&lastName=      author lookup
  GET  /metrics                                  query metrics since startup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = o.cfg.Server.Addr
			}
			return runServe(cmd, o, addr, skipReindex)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&skipReindex, "skip-reindex", false, "Serve the existing indexes without rebuilding")

	return cmd
}

func runServe(cmd *cobra.Command, o *globalOptions, addr string, skipReindex bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(o)
	if err != nil {
		return reportError(cmd, err)
	}

	if !skipReindex {
		reports, err := a.reindex(ctx, o)
		if err != nil {
			return reportError(cmd, err)
		}
		for _, r := range reports {
			if r.Result.Status != store.StatusOK {
				o.logger.Warn("namespace_serving_degraded",
					slog.String("namespace", string(r.Kind)),
					slog.String("status", r.Result.Status.String()))
			}
		}
	}

	srv := api.NewServer(addr, a.service, o.logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errCh
}
