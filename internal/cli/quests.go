package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lingopal/lingopal/internal/app/progress"
	"github.com/lingopal/lingopal/internal/daemon"
)

func init() {
	questsCmd.Flags().BoolVar(&questsPool, "pool", false, "List every quest that can be drawn")
	questsCmd.AddCommand(questClaimCmd)
	rootCmd.AddCommand(questsCmd)
}

var questsPool bool

var questsCmd = &cobra.Command{
	Use:   "quests",
	Short: "Show today's quests",
	RunE: func(cmd *cobra.Command, args []string) error {
		if questsPool {
			return printQuestPool()
		}
		return withDaemon(cmd, runQuests)
	},
}

var questClaimCmd = &cobra.Command{
	Use:   "claim <quest-id>",
	Short: "Collect the reward for a completed quest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			res, err := d.Engagement.ClaimQuest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printResult(os.Stdout, res)
			return nil
		})
	},
}

func runQuests(d *daemon.Daemon) error {
	quests := d.Engagement.Snapshot().Quests
	if len(quests) == 0 {
		fmt.Println("No quests today.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tQUEST\tPROGRESS\tSTATUS\tREWARD")
	for _, q := range quests {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d XP, %d coins\n",
			q.ID, q.Description, renderBar(progress.QuestPercent(q)), q.Status, q.RewardXP, q.RewardCoins)
	}
	return w.Flush()
}

func printQuestPool() error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tQUEST\tREWARD")
	for _, q := range progress.QuestPool() {
		fmt.Fprintf(w, "%s\t%s\t%d XP, %d coins\n", q.Metric, q.Description, q.RewardXP, q.RewardCoins)
	}
	return w.Flush()
}
