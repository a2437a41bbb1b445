package cli

import (
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"

	"github.com/questforge/questforge/internal/daemon"
)

// openDaemon loads the configuration and wires a daemon for a one-shot
// command. Logging stays off unless --verbose is set.
func openDaemon(ctx context.Context) (*daemon.Daemon, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := zap.NewNop()
	if verbose {
		cfg.Logging.Format = "console"
		if logger, err = daemon.NewLogger(cfg.Logging); err != nil {
			return nil, err
		}
	}
	return daemon.NewWithConfig(ctx, cfg, logger)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
