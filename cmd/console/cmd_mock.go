package main

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/stockroom/internal/console/app"
	"github.com/aussiebroadwan/stockroom/pkg/slogx"
)

func (c *cli) mockCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Serve an in-memory inventory API for local development",
		Long: `Serve a seeded in-memory inventory API.

Seeded users (password "password"): admin (admin), test.user (manager),
viewer (viewer).`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *c.cfg
			if addr != "" {
				cfg.MockAddr = addr
			}
			level := cfg.LogLevel
			if c.logLevel == "" && level == "warn" {
				// Request logs are the point of running the mock.
				level = "info"
			}
			logger := slogx.New(slogx.Config{
				Service: "stockroom-mock-api",
				Version: app.BuildVersion,
				Env:     cfg.Env,
				Level:   level,
				Format:  cfg.LogFormat,
				Output:  c.errOut,
			})

			srv, err := app.NewMockServer(cfg, logger)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context(), nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (or set STOCKROOM_MOCK_ADDR)")
	return cmd
}
