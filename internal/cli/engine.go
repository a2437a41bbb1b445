package cli

import (
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/questforge/questforge/internal/domain"
)

func init() {
	challengeCmd.Flags().StringVar(&challengeDay, "day", "", "Calendar day YYYY-MM-DD (default today)")
	challengeCmd.Flags().BoolVar(&challengeReroll, "reroll", false, "Replace the day's challenge")
	challengeCmd.Flags().Int64Var(&challengeSeed, "seed", 0, "Reroll seed (default random)")
	rootCmd.AddCommand(loginCmd, challengeCmd, progressCmd)
}

var (
	challengeDay    string
	challengeReroll bool
	challengeSeed   int64
)

var loginCmd = &cobra.Command{
	Use:   "login USER",
	Short: "Record a login and update the user's streak",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.Engine.OnLogin(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress USER",
	Short: "Show a user's progression",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		view, err := d.Engine.GetProgression(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), view)
	},
}

var challengeCmd = &cobra.Command{
	Use:   "challenge USER",
	Short: "Show, create or reroll a user's daily challenge",
	Args:  cobra.ExactArgs(1),
	RunE:  runChallenge,
}

func runChallenge(cmd *cobra.Command, args []string) error {
	var day domain.Day
	if challengeDay != "" {
		var err error
		if day, err = domain.ParseDay(challengeDay); err != nil {
			return err
		}
	}

	d, err := openDaemon(cmd.Context())
	if err != nil {
		return err
	}
	defer d.Close()

	var ch domain.DailyChallenge
	if challengeReroll {
		seed := challengeSeed
		if !cmd.Flags().Changed("seed") {
			seed = rand.Int64()
		}
		ch, err = d.Engine.Reroll(cmd.Context(), args[0], day, seed)
	} else {
		ch, err = d.Engine.GetOrCreateDailyChallenge(cmd.Context(), args[0], day)
	}
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), ch)
}
