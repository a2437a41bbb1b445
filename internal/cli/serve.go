package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/questforge/questforge/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "Store driver: memory, sqlite, redis, postgres (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost  string
	servePort  int
	serveStore string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the questforge API server",
	Long:  `Start the HTTP API, health checks and scheduled jobs. Stops on SIGINT or SIGTERM.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}

	// Override config from flags
	if serveHost != "" {
		cfg.API.Host = serveHost
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}
	if serveStore != "" {
		cfg.Store.Driver = serveStore
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := daemon.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := daemon.NewWithConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return d.Serve(ctx)
}
