package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kawabatas/payroll-batch/internal/app/seed"
	"github.com/kawabatas/payroll-batch/internal/cli/output"
)

func newSeedCmd(opts *globalOptions) *cobra.Command {
	var force bool
	c := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "YAML のフィクスチャを投入（既存データがあればスキップ）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			ds, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer ds.Close()

			res, err := seed.Apply(cmd.Context(), ds, f, force)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if res.Skipped {
				output.Info(w, "store is not empty; use --force to upsert anyway")
				return nil
			}
			output.Success(w, "seeded %d batches, %d entries", res.Batches, res.Entries)
			return nil
		},
	}
	c.Flags().BoolVar(&force, "force", false, "既存データがあっても upsert する")
	return c
}
