package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/osse101/RecipeForge_Go/internal/config"
	"github.com/osse101/RecipeForge_Go/internal/event"
)

var (
	deadLetterPath  string
	deadLetterWorld string
)

var deadLettersCmd = &cobra.Command{
	Use:   "deadletters",
	Short: "List events that exhausted their publish retries",
	Long: `Print the dead-letter log written by the service. Each line is an event
that could not be delivered to its subscribers after every retry.

Examples:
  recipectl deadletters
  recipectl deadletters --file /var/log/recipeforge/dead.jsonl --world overworld`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := deadLetterPath
		if !cmd.Flags().Changed("file") {
			path = envOr("EVENT_DEAD_LETTER_PATH", config.DefaultDeadLetterPath)
		}

		f, err := os.Open(path)
		if os.IsNotExist(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "no dead letters at %s\n", path)
			return nil
		}
		if err != nil {
			return err
		}
		defer f.Close()

		entries, readErr := event.ReadDeadLetters(f)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tTYPE\tWORLD\tRECIPE\tATTEMPTS\tERROR")
		for _, e := range entries {
			if deadLetterWorld != "" && e.World != deadLetterWorld {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
				e.Timestamp.Format(time.RFC3339), e.Event.Type, dash(e.World), dash(e.RecipeID), e.Attempts, dash(e.LastError))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		return readErr
	},
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	deadLettersCmd.Flags().StringVarP(&deadLetterPath, "file", "f", config.DefaultDeadLetterPath,
		"dead-letter log (env EVENT_DEAD_LETTER_PATH)")
	deadLettersCmd.Flags().StringVarP(&deadLetterWorld, "world", "w", "", "only entries for this world")
	rootCmd.AddCommand(deadLettersCmd)
}
