package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dhankavach/internal/app"
	"dhankavach/internal/config"
	"dhankavach/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
	rootCmd  = &cobra.Command{
		Use:   "dhankavach",
		Short: "Connected intelligence fraud correlation for households",
		Long: `dhankavach scores documents, messages and payments for fraud and
remembers every flagged phone number, UPI handle and link per household,
so a later payment to the same identifier is blocked before money moves.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logger.level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(checkTransactionCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(approveCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads and validates configuration, applying command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes to stderr so command output on stdout stays machine readable
func newLogger(cfg config.LoggerConfig) *logger.Logger {
	log := logger.New(logger.Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		TimeFormat: cfg.TimeFormat,
		Output:     os.Stderr,
	})
	logger.SetGlobal(log)
	return log
}

// withApp builds the application for one command and always closes it
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, newLogger(cfg.Logger))
	if err != nil {
		return err
	}

	runErr := fn(ctx, a)
	if err := a.Close(context.Background()); err != nil && runErr == nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return runErr
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
