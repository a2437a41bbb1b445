// Package cli implements the questforge command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "questforge",
	Short: "questforge: progression and rewards engine",
	Long: `questforge tracks XP, levels, login streaks, badges and daily
challenges for a gamified learning product.

Run 'questforge serve' to start the HTTP API, or use the subcommands to
inspect the catalog and drive the engine from the shell.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine activity to stderr")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
