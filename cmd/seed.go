package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the curated seed listings into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initDirectory(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		src, err := env.Sources.Get("curated_seed")
		if err != nil {
			return err
		}

		raws, err := src.Discover(ctx)
		if err != nil {
			return err
		}

		stats, err := env.Pipeline.IngestBatch(ctx, raws, src.Name())
		if err != nil {
			return err
		}

		fmt.Printf("seeded %d services (%d created, %d merged, %d dropped, %d failed)\n",
			stats.Persisted(), stats.Created, stats.Merged, stats.Dropped, stats.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
