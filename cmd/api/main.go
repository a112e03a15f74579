// Command api runs the DhanKavach HTTP server. It is the container entry
// point; `dhankavach serve` does the same with command line flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dhankavach/internal/app"
	"dhankavach/internal/config"
	"dhankavach/pkg/logger"
)

func main() {
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting DhanKavach")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}

	serveErr := a.Serve(ctx)
	if err := a.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("shutdown finished with errors")
	}
	if serveErr != nil {
		log.Fatal().Err(serveErr).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}
