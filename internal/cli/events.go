package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lingopal/lingopal/internal/app/engagement"
	"github.com/lingopal/lingopal/internal/daemon"
)

func init() {
	readCmd.Flags().IntVar(&readWords, "words", 0, "New words learned in the story")
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(loginCmd)
}

var readWords int

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Record a finished story",
	RunE: func(cmd *cobra.Command, args []string) error {
		if readWords < 0 {
			return fmt.Errorf("--words must not be negative")
		}
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			res, err := d.Engagement.CompleteReading(cmd.Context(), engagement.Reading{WordsLearned: readWords})
			if err != nil {
				return err
			}
			printResult(os.Stdout, res)
			return nil
		})
	},
}

var quizCmd = &cobra.Command{
	Use:   "quiz <answers>",
	Short: "Record a quiz, one letter per answer (y = correct, n = wrong)",
	Example: `  lingopal quiz yyny
  lingopal quiz yyyyy`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		answers := strings.ToLower(args[0])
		for _, c := range answers {
			if c != 'y' && c != 'n' {
				return fmt.Errorf("invalid answer %q: use y or n", c)
			}
		}
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			for i, c := range answers {
				res, err := d.Engagement.AnswerQuestion(cmd.Context(), c == 'y')
				if err != nil {
					return err
				}
				mark := "✗"
				if c == 'y' {
					mark = "✓"
				}
				fmt.Printf("Q%d %s ", i+1, mark)
				printResult(os.Stdout, res)
				if c == 'n' {
					fmt.Println()
				}
			}
			res, err := d.Engagement.EndQuiz(cmd.Context())
			if err != nil {
				return err
			}
			printResult(os.Stdout, res)
			return nil
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check in for the day and collect the streak bonus",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(d *daemon.Daemon) error {
			res, err := d.Engagement.DailyLogin(cmd.Context())
			if err != nil {
				return err
			}
			if res.Streak == nil {
				fmt.Println("Already checked in today.")
			}
			printResult(os.Stdout, res)
			return nil
		})
	},
}
