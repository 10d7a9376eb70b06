package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lingopal/lingopal/internal/app/engagement"
	"github.com/lingopal/lingopal/internal/daemon"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// withDaemon opens the daemon for a one-shot command and closes it after fn.
// It refuses while a server owns the state store, since both sides would
// save their own snapshot over the other's.
func withDaemon(cmd *cobra.Command, fn func(d *daemon.Daemon) error) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	if err := checkNotServing(cfg); err != nil {
		return err
	}
	d, err := daemon.NewWithConfig(cmd.Context(), cfg, daemon.Home(), logger)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}

func checkNotServing(cfg daemon.Config) error {
	if addr, ok := daemon.Running(cfg); ok {
		return fmt.Errorf("%w on %s: use the HTTP API or stop the server first", daemon.ErrDaemonRunning, addr)
	}
	return nil
}

// printResult renders a reward delta for the terminal.
func printResult(w io.Writer, res engagement.Result) {
	var parts []string
	if res.XP != 0 {
		parts = append(parts, fmt.Sprintf("+%d XP", res.XP))
	}
	if res.ComboBonus > 0 {
		parts = append(parts, fmt.Sprintf("(combo x%d: +%d)", res.Combo, res.ComboBonus))
	}
	if res.Coins != 0 {
		parts = append(parts, fmt.Sprintf("%+d coins", res.Coins))
	}
	if res.Gems != 0 {
		parts = append(parts, fmt.Sprintf("+%d gems", res.Gems))
	}
	if len(parts) > 0 {
		fmt.Fprintln(w, green(strings.Join(parts, "  ")))
	}

	if res.Streak != nil {
		fmt.Fprintf(w, "Day %d streak! Tomorrow pays x%.1f (%d XP, %d coins)\n",
			res.Streak.Streak, res.Streak.TomorrowMultiplier, res.Streak.TomorrowXP, res.Streak.TomorrowCoins)
	}
	if res.LevelsGained > 0 {
		fmt.Fprintln(w, bold(fmt.Sprintf("Level up! Now level %d", res.Level)))
		for _, u := range res.Unlocks {
			fmt.Fprintf(w, "  unlocked: %s\n", u)
		}
	}
	for _, a := range res.Achievements {
		fmt.Fprintf(w, "%s Achievement: %s (%s)\n", a.Icon, yellow(a.Title), a.Rarity)
	}
	for _, q := range res.Quests {
		fmt.Fprintf(w, "Quest %s: %s\n", q.Status, q.Description)
	}
	if res.Evolution != nil {
		fmt.Fprintf(w, "Your pet is ready to become a %s! Run 'lingopal pet evolve'.\n", cyan(res.Evolution.StageName))
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "%s %s\n", red("warning:"), warn)
	}
}
