package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/MetaNet/internal/app"
	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		Long: "Serve loads the configured network and exposes it over HTTP.\n" +
			"Unlike the one-shot commands it logs with the configured log settings,\n" +
			"and changes to log.level in the config file apply without a restart.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.Build(ctx, cfg, logger, Version)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			if err := app.WatchLogLevel(cliCtx.ConfigPath, logger); err != nil {
				logger.Warn("config watch disabled", logging.Err(err))
			}
			return a.Server.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default: server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default: server.port)")
	return cmd
}
