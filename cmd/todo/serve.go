package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"tasklist/internal/logger"
	"tasklist/internal/metrics"
	"tasklist/internal/render"
	"tasklist/internal/server"
)

type serveFlags struct {
	addr        string
	metricsAddr string
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (overrides addr)")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "metrics listen address (overrides metrics_addr)")
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	srv := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags, srv)
		},
	}
	srv.register(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, flags *rootFlags, srv *serveFlags) error {
	cfg, ctx, err := load(cmd, flags)
	if err != nil {
		return err
	}
	if srv.addr != "" {
		cfg.Addr = srv.addr
	}
	if srv.metricsAddr != "" {
		cfg.MetricsAddr = srv.metricsAddr
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := render.New(render.WithHeading(cfg.Heading))
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	log := logger.FromContext(ctx)
	s := server.New(st, r, log, metrics.New())
	log.Info("starting server", "db", st.Path(), "addr", cfg.Addr, "metrics_addr", cfg.MetricsAddr)
	return s.ListenAndServe(ctx, cfg.Addr, cfg.MetricsAddr)
}
