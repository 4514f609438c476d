// Package cmd implements the batchctl admin CLI.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/kawabatas/payroll-batch/internal/cli/output"
	"github.com/kawabatas/payroll-batch/internal/infra/config"
	"github.com/kawabatas/payroll-batch/internal/infra/datastore"
)

// globalOptions は全サブコマンド共通のフラグです。
type globalOptions struct {
	driver     string
	dsn        string
	sqlitePath string
	source     string
}

func (o *globalOptions) open(ctx context.Context) (datastore.DataStore, error) {
	// CLI からはスナップショットのアップロードを行わない
	return datastore.Open(ctx, datastore.Config{
		Driver:   o.driver,
		DSN:      o.dsn,
		Source:   o.source,
		Path:     o.sqlitePath,
		Strategy: datastore.NoopSnapshotStrategy{},
	})
}

// NewRootCmd builds the command tree; flag defaults come from cfg.
func NewRootCmd(cfg config.AppConfig) *cobra.Command {
	opts := &globalOptions{source: cfg.SqliteSource}
	root := &cobra.Command{
		Use:   "batchctl",
		Short: "payroll batch admin CLI",
		Long: `batchctl は payroll batch のデータストアを直接操作する管理ツールです。

使用例:
  # バッチ一覧
  batchctl batches list

  # フィクスチャ投入
  batchctl seed ./seed/batches.yaml

  # SQLite の一貫スナップショット
  batchctl snapshot ./tmp/backup.sqlite`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.driver, "driver", cfg.DBDriver, "database driver (sqlite|postgres|mysql)")
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", cfg.DBDSN, "DSN for postgres/mysql")
	root.PersistentFlags().StringVar(&opts.sqlitePath, "sqlite-path", cfg.SqlitePath, "SQLite file path")

	root.AddCommand(newBatchesCmd(opts))
	root.AddCommand(newSeedCmd(opts))
	root.AddCommand(newSnapshotCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs batchctl with configuration loaded from the environment.
func Execute() {
	os.Exit(execute(NewRootCmd(config.Load())))
}

// execute はエラーを stderr に出して終了コードを返す
func execute(root *cobra.Command) int {
	if err := root.Execute(); err != nil {
		output.Error(root.ErrOrStderr(), "%v", err)
		return 1
	}
	return 0
}
