package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/questforge/questforge/internal/app/engagement"
	"github.com/questforge/questforge/internal/daemon"
	"github.com/questforge/questforge/internal/domain"
)

func init() {
	scoreCmd.Flags().StringVar(&scoreAnswers, "answers", "", "JSON file with the attempt (required)")
	scoreCmd.Flags().BoolVar(&scorePremium, "premium", false, "Apply the premium multiplier")
	scoreCmd.Flags().Int64Var(&scoreElapsed, "elapsed", -1, "Elapsed seconds (overrides the file)")
	scoreCmd.MarkFlagRequired("answers")
	rootCmd.AddCommand(scoreCmd)
}

var (
	scoreAnswers string
	scorePremium bool
	scoreElapsed int64
)

var scoreCmd = &cobra.Command{
	Use:   "score QUEST_ID",
	Short: "Score a quest attempt without recording it",
	Long: `Score a quest attempt read from a JSON file. The file holds either an
attempt object {"answers": [...], "elapsedSeconds": N} or a bare array of
step answers.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	cat, _, err := daemon.LoadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	quest, err := cat.Quest(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	attempt, err := readAttempt(scoreAnswers)
	if err != nil {
		return err
	}
	if scoreElapsed >= 0 {
		attempt.ElapsedSeconds = scoreElapsed
	}

	res, err := engagement.ScoreAttempt(quest, attempt, scorePremium)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Quest:       %s (%s)\n", quest.ID, quest.Difficulty)
	fmt.Fprintf(out, "Steps:       %d/%d correct\n", res.CorrectSteps, res.TotalSteps)
	fmt.Fprintf(out, "Base score:  %d/%d\n", res.BaseScore, res.MaxPossibleScore)
	fmt.Fprintf(out, "Time bonus:  %d\n", res.TimeBonus)
	fmt.Fprintf(out, "Final score: %d\n", res.FinalScore)
	return nil
}

func readAttempt(path string) (domain.QuestAttempt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.QuestAttempt{}, fmt.Errorf("read answers: %w", err)
	}
	var attempt domain.QuestAttempt
	if err := json.Unmarshal(data, &attempt); err == nil {
		return attempt, nil
	}
	if err := json.Unmarshal(data, &attempt.Answers); err != nil {
		return domain.QuestAttempt{}, fmt.Errorf("parse answers: %w", err)
	}
	return attempt, nil
}
