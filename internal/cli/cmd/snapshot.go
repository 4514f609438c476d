package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kawabatas/payroll-batch/internal/cli/output"
	sqlitedriver "github.com/kawabatas/payroll-batch/internal/infra/datastore/sqlite"
)

func newSnapshotCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <out.sqlite>",
		Short: "SQLite の一貫スナップショットを作成（VACUUM INTO）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.driver != "" && opts.driver != "sqlite" {
				return fmt.Errorf("snapshot is only supported for sqlite (driver=%s)", opts.driver)
			}
			src := sqlitedriver.Path(opts.source, opts.sqlitePath)
			if err := sqlitedriver.SnapshotTo(cmd.Context(), src, args[0]); err != nil {
				return err
			}
			output.Success(cmd.OutOrStdout(), "snapshot written to %s", args[0])
			return nil
		},
	}
}
