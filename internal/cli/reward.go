package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lingopal/lingopal/internal/app/reward"
	"github.com/lingopal/lingopal/internal/daemon"
)

func init() {
	rewardCmd.Flags().IntVar(&rewardStreak, "streak", -1, "Preview a specific streak length instead of the current one")
	rootCmd.AddCommand(rewardCmd)
}

var rewardStreak int

var rewardCmd = &cobra.Command{
	Use:   "reward",
	Short: "Preview streak rewards and combo multipliers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := daemon.LoadConfig()
		if err != nil {
			return err
		}
		eng := cfg.Engagement()

		streak := rewardStreak
		if streak < 0 {
			err := withDaemon(cmd, func(d *daemon.Daemon) error {
				streak = d.Engagement.Snapshot().Progress.Streak
				return nil
			})
			if err != nil {
				return err
			}
		}

		sr := reward.Streak(streak, eng.StreakBaseXP, eng.StreakBaseCoins)
		fmt.Printf("Streak %d: today %d XP, %d coins\n", sr.Streak, sr.TodayXP, sr.TodayCoins)
		fmt.Printf("Tomorrow x%.1f: %d XP, %d coins\n\n", sr.TomorrowMultiplier, sr.TomorrowXP, sr.TomorrowCoins)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "COMBO\tMULTIPLIER\tBONUS XP")
		for n := 1; n <= 5; n++ {
			fmt.Fprintf(w, "%d\tx%.1f\t+%d\n", n, reward.ComboMultiplier(n), reward.ComboBonus(n, eng.QuestionXP))
		}
		return w.Flush()
	},
}
