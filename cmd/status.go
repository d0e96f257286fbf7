package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show record counts per data source",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := st.CountServices(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("services: %d total, %d active\n", counts.Total, counts.Active)

		names := make([]string, 0, len(counts.BySource))
		for name := range counts.BySource {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-24s %d\n", name, counts.BySource[name])
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
