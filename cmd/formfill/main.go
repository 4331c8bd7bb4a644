// Command formfill serves the PDF form-fill API and exposes its operations
// on the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/formfill-api/cmd/api"
	"github.com/FACorreiaa/formfill-api/pkg/config"
	"github.com/FACorreiaa/formfill-api/pkg/logger"
)

var (
	cfg *config.Config
	log *slog.Logger
)

// rootCmd serves the API when run without a subcommand
var rootCmd = &cobra.Command{
	Use:   "formfill",
	Short: "Fill the Letter of Representation from a spreadsheet",
	Long: `formfill reads the first data row of an Excel workbook and fills the
Letter of Representation PDF template with it.

Without a subcommand the HTTP API is started.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runServe,
}

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, fillCmd, purgeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = c
	log = logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	deps, err := api.InitDependencies(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	return api.Serve(ctx, deps)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
