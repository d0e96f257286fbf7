package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mountisa-community/directory-cli/internal/ingest"
)

var ingestSources []string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Discover and ingest service listings from configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initDirectory(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		selected, err := env.Sources.Select(ingestSources)
		if err != nil {
			return err
		}
		jobs := make([]ingest.Source, len(selected))
		for i, s := range selected {
			jobs[i] = s
		}

		totals, runErr := env.Pipeline.IngestSources(ctx, jobs, cfg.Ingest.MaxConcurrentSources)

		var sum ingest.BatchStats
		for _, name := range env.Sources.Names() {
			stats, ok := totals[name]
			if !ok {
				continue
			}
			fmt.Printf("%-24s discovered=%d created=%d merged=%d dropped=%d failed=%d\n",
				name, stats.Discovered, stats.Created, stats.Merged, stats.Dropped, stats.Failed)
			sum.Discovered += stats.Discovered
			sum.Created += stats.Created
			sum.Merged += stats.Merged
			sum.Dropped += stats.Dropped
			sum.Failed += stats.Failed
		}
		fmt.Printf("%-24s discovered=%d created=%d merged=%d dropped=%d failed=%d\n",
			"total", sum.Discovered, sum.Created, sum.Merged, sum.Dropped, sum.Failed)

		return runErr
	},
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestSources, "source", nil, "sources to ingest (default all)")
	rootCmd.AddCommand(ingestCmd)
}
