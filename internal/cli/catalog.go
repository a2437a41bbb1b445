package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/questforge/questforge/internal/app/engagement"
	"github.com/questforge/questforge/internal/daemon"
	"github.com/questforge/questforge/internal/domain"
)

func init() {
	questsCmd.Flags().StringVar(&questsCategory, "category", "", "Only quests of this category")
	questsCmd.Flags().BoolVar(&questsFree, "free", false, "Only free quests")
	rootCmd.AddCommand(questsCmd, badgesCmd)
}

var (
	questsCategory string
	questsFree     bool
)

var questsCmd = &cobra.Command{
	Use:     "quests",
	Aliases: []string{"ls"},
	Short:   "List the quest catalog",
	RunE:    runQuests,
}

func runQuests(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	cat, _, err := daemon.LoadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	quests, err := cat.ListQuests(cmd.Context(), domain.QuestFilter{
		Category: questsCategory,
		FreeOnly: questsFree,
	})
	if err != nil {
		return err
	}
	if len(quests) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No quests match.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tDIFFICULTY\tXP\tMINUTES\tSTEPS\tPREMIUM")
	for _, q := range quests {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%t\n",
			q.ID, q.Category, q.Difficulty, q.XP, q.DurationMinutes, len(q.Steps), q.IsPremium)
	}
	return w.Flush()
}

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "List the badge catalog in evaluation order",
	RunE:  runBadges,
}

func runBadges(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	_, badges, err := daemon.LoadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	if badges == nil {
		badges = engagement.DefaultBadges()
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRARITY\tREQUIREMENT")
	for _, b := range badges {
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.Rarity, describeRequirement(b.Requirement))
	}
	return w.Flush()
}

func describeRequirement(r domain.Requirement) string {
	switch {
	case r.Key != "" && r.Count > 0:
		return fmt.Sprintf("%s %s >= %d", r.Type, r.Key, r.Count)
	case r.Key != "":
		return fmt.Sprintf("%s %s", r.Type, r.Key)
	case r.Count > 0:
		return fmt.Sprintf("%s >= %d", r.Type, r.Count)
	default:
		return string(r.Type)
	}
}
