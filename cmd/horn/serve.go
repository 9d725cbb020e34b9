package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cognicore/horn/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		addr     string
		maxConns int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve proofs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := a.cfg.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("max-conns") {
				cfg.MaxConns = maxConns
			}

			h, cleanup, err := a.buildHorn(ctx, a.proverOptions(0, false, false, false), false)
			if err != nil {
				return classify(err)
			}
			defer cleanup()

			return server.New(h, cfg, a.logger).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().IntVar(&maxConns, "max-conns", 0, "Maximum concurrent connections (default from config)")
	return cmd
}
