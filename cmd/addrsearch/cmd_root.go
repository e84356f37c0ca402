package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"address_search_backend/internal/adapters"
	"address_search_backend/platform/config"
	"address_search_backend/platform/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "addrsearch",
	Short: "address suggestions and geocoding from the command line",
	Long: `
addrsearch queries the configured places provider (Google or Nominatim, see
PLACES_PROVIDER) for address suggestions and resolves addresses to
coordinates. The interactive mode runs a full search session on the terminal.
`,
	SilenceUsage: true,
}

func Execute(version string) {
	rootCmd.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// runtimeDeps is what every subcommand needs.
type runtimeDeps struct {
	cfg       *config.Config
	log       *logger.Logger
	upstreams *adapters.Upstreams
}

func loadDeps() (*runtimeDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// stdout carries results, logs go to stderr
	log := logger.NewWithWriter(cfg.Env, os.Stderr)

	upstreams, err := adapters.NewUpstreams(cfg, log)
	if err != nil {
		return nil, err
	}

	return &runtimeDeps{cfg: cfg, log: log, upstreams: upstreams}, nil
}
