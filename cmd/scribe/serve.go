package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fwojciec/scribe"
	"github.com/fwojciec/scribe/engine"
	scribehttp "github.com/fwojciec/scribe/http"
	"github.com/fwojciec/scribe/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http_addr)")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	srv := scribehttp.NewServer(
		func() scribe.Store { return prometheus.NewStore(a.db.NewStore(), a.metrics) },
		func(store scribe.Store) *engine.Engine { return a.newEngine(store) },
		scribehttp.WithLogger(a.logger),
		scribehttp.WithMetrics(a.metrics),
	)
	defer srv.Close()

	hs := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http server listening", zap.String("addr", addr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
