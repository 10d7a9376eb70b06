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
	achievementsCmd.Flags().StringVar(&achFilter, "filter", "all", "all, unlocked, locked or a category")
	achievementsCmd.Flags().StringVar(&achSort, "sort", "recent", "recent, progress, alphabetical or rarity")
	achievementsCmd.Flags().StringVar(&achSearch, "search", "", "Match title or description")
	rootCmd.AddCommand(achievementsCmd)
}

var (
	achFilter string
	achSort   string
	achSearch string
)

var achievementsCmd = &cobra.Command{
	Use:     "achievements",
	Aliases: []string{"ach"},
	Short:   "List achievements and progress toward each",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, category, err := progress.ParseFilter(achFilter)
		if err != nil {
			return err
		}
		sortKey, err := progress.ParseSort(achSort)
		if err != nil {
			return err
		}
		q := progress.Query{Filter: filter, Category: category, Sort: sortKey, Search: achSearch}
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			return runAchievements(d, q)
		})
	},
}

func runAchievements(d *daemon.Daemon, q progress.Query) error {
	list := d.Engagement.Achievements(q)
	if len(list) == 0 {
		fmt.Println("No achievements match.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tTITLE\tRARITY\tPROGRESS\tUNLOCKED")
	for _, a := range list {
		unlocked := ""
		if a.Unlocked {
			unlocked = a.UnlockedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.Icon, a.Title, a.Rarity, renderBar(progress.AchievementPercent(a)), unlocked)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if m, ok := d.Engagement.NextMilestone(); ok {
		fmt.Printf("\nNext up: %s (%d/%d)\n", m.Title, m.CurrentProgress, m.TargetValue)
	}
	return nil
}
