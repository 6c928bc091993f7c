package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var countsWorld string

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show persisted world craft counts",
	Long: `Print the craft counters last flushed to storage, per world and recipe.
Counters still in a running service's memory are not included.

Examples:
  recipectl counts
  recipectl counts --world overworld`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		all, err := store.LoadAllCounts(cmd.Context())
		if err != nil {
			return err
		}

		worlds := make([]string, 0, len(all))
		for w := range all {
			if countsWorld == "" || w == countsWorld {
				worlds = append(worlds, w)
			}
		}
		sort.Strings(worlds)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WORLD\tRECIPE\tCOUNT")
		for _, w := range worlds {
			ids := make([]string, 0, len(all[w]))
			for id := range all[w] {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", w, id, all[w][id])
			}
		}
		return tw.Flush()
	},
}

func init() {
	countsCmd.Flags().StringVarP(&countsWorld, "world", "w", "", "only this world")
	rootCmd.AddCommand(countsCmd)
}
