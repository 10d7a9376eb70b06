package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lingopal/lingopal/internal/app/engagement"
	"github.com/lingopal/lingopal/internal/daemon"
)

func init() {
	shopCmd.AddCommand(shopBuyCmd)
	rootCmd.AddCommand(shopCmd)
}

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "List treats and toys for your pet",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tITEM\tPRICE\tHAPPINESS")
		for _, it := range engagement.ShopItems() {
			fmt.Fprintf(w, "%s\t%s %s\t%d coins\t+%d\n", it.ID, it.Icon, it.Name, it.Price, it.Happiness)
		}
		return w.Flush()
	},
}

var shopBuyCmd = &cobra.Command{
	Use:   "buy <item-id>",
	Short: "Spend coins on a shop item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			res, err := d.Engagement.Purchase(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			pet := d.Engagement.Snapshot().Pet
			fmt.Printf("%s loved it! Happiness %d, feeling %s\n", pet.Name, pet.Happiness, pet.Emotion)
			printResult(os.Stdout, res)
			return nil
		})
	},
}
