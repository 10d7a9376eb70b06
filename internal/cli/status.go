package cli

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lingopal/lingopal/internal/app/engagement"
	"github.com/lingopal/lingopal/internal/app/evolution"
	"github.com/lingopal/lingopal/internal/daemon"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show level, streak, wallet and pet at a glance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, runStatus)
	},
}

func runStatus(d *daemon.Daemon) error {
	snap := d.Engagement.Snapshot()
	p := snap.Progress

	stage, err := evolution.CurrentStageName(snap.Pet)
	if err != nil {
		return err
	}
	unlocked, err := d.DB.UnlockedAchievementCount()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Level\t%d  %s\n", p.Level, renderBar(int(math.Round(engagement.LevelPct(p)))))
	fmt.Fprintf(w, "XP\t%d / %d\n", p.XP, p.XPToNextLevel)
	alive := ""
	if !engagement.StreakAlive(p, d.Engagement.Now()) && p.Streak > 0 {
		alive = " (read today to keep it!)"
	}
	fmt.Fprintf(w, "Streak\t%d days%s, best %d\n", p.Streak, alive, p.LongestStreak)
	fmt.Fprintf(w, "Wallet\t%d coins, %d gems\n", p.Coins, p.Gems)
	fmt.Fprintf(w, "Reading\t%d stories, %d words\n", p.BooksRead, p.WordsLearned)
	fmt.Fprintf(w, "Quiz\t%d/%d correct, best combo %d\n", p.QuizCorrect, p.QuizAnswered, p.BestCombo)
	fmt.Fprintf(w, "Achievements\t%d unlocked\n", unlocked)
	fmt.Fprintf(w, "Pet\t%s the %s (happiness %d, %s)\n", snap.Pet.Name, stage, snap.Pet.Happiness, snap.Pet.Emotion)
	np := d.Engagement.NoticePolicy()
	fmt.Fprintf(w, "Notices\t%d per day, quiet %s–%s\n", np.MaxPerDay, np.QuietStart, np.QuietEnd)
	return w.Flush()
}
