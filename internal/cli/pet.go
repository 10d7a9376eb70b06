package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lingopal/lingopal/internal/app/evolution"
	"github.com/lingopal/lingopal/internal/daemon"
)

func init() {
	petCmd.AddCommand(petEvolveCmd)
	rootCmd.AddCommand(petCmd)
}

var petCmd = &cobra.Command{
	Use:   "pet",
	Short: "Show the reading pet and its evolution history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, runPet)
	},
}

var petEvolveCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Play a pending evolution and apply it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			tr, ok := d.Engagement.PendingEvolution()
			if !ok {
				fmt.Println("Nothing to evolve yet. Keep reading!")
				return nil
			}
			res, err := d.Engagement.AcknowledgeEvolution(cmd.Context(), tr.ID)
			if err != nil {
				return err
			}
			fmt.Printf("✨ Your pet evolved into a %s!\n", tr.StageName)
			printResult(os.Stdout, res)
			return nil
		})
	},
}

func runPet(d *daemon.Daemon) error {
	pet := d.Engagement.Snapshot().Pet
	track, err := evolution.LookupTrack(pet.Track)
	if err != nil {
		return err
	}
	name, err := track.StageName(pet.Stage)
	if err != nil {
		return err
	}

	fmt.Printf("%s the %s (%s track, stage %d/%d)\n", pet.Name, name, pet.Track, pet.Stage, track.MaxStage())
	fmt.Printf("Happiness %s  feeling %s\n", renderBar(pet.Happiness), pet.Emotion)
	if next, ok := track.NextRequirement(pet.Stage); ok {
		fmt.Printf("Next: %s at level %d\n", next.Name, next.MinLevel)
	} else {
		fmt.Println("Fully grown!")
	}
	if tr, ok := d.Engagement.PendingEvolution(); ok {
		fmt.Printf("Ready to evolve into a %s. Run 'lingopal pet evolve'.\n", tr.StageName)
	}

	history, err := d.DB.ListEvolutions(pet.ID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return nil
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tNAME\tLEVEL\tEVOLVED")
	for _, r := range history {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", r.Stage, r.StageName, r.UserLevel, r.EvolvedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
