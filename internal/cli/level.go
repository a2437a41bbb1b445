package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/questforge/questforge/internal/app/engagement"
)

func init() {
	rootCmd.AddCommand(levelCmd)
}

var levelCmd = &cobra.Command{
	Use:   "level XP",
	Short: "Show the level and progress for an XP total",
	Args:  cobra.ExactArgs(1),
	RunE:  runLevel,
}

func runLevel(cmd *cobra.Command, args []string) error {
	xp, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("xp must be an integer: %q", args[0])
	}
	p := engagement.ProgressToNext(engagement.ClampXP(xp))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Level:     %s\n", p.Level)
	if p.IsMaxLevel {
		fmt.Fprintf(out, "Progress:  max level (%d+ XP)\n", p.CurrentThreshold)
		return nil
	}
	fmt.Fprintf(out, "Progress:  %d%% (%d/%d XP)\n", p.Percentage, engagement.ClampXP(xp), p.NextThreshold)
	return nil
}
