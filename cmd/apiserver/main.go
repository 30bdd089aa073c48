// Command apiserver serves the MetaNet HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/MetaNet/internal/app"
	"github.com/turtacn/MetaNet/internal/config"
	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var version = "dev"

const startupTimeout = time.Minute

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: METANET_* environment and defaults)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if httpPort > 0 {
		cfg.Server.Port = httpPort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	logger.Info("starting MetaNet API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	a, err := app.Build(startCtx, cfg, logger, version)
	cancel()
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if err := app.WatchLogLevel(configPath, logger); err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}

	if err := a.Server.Run(ctx); err != nil {
		logger.Error("HTTP server error", logging.Err(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
