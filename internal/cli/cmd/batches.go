package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kawabatas/payroll-batch/internal/app/usecase"
	"github.com/kawabatas/payroll-batch/internal/cli/output"
)

func newBatchesCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	batches := &cobra.Command{
		Use:   "batches",
		Short: "バッチの参照",
	}
	batches.PersistentFlags().BoolVarP(&asJSON, "json", "j", false, "JSON で出力")

	list := &cobra.Command{
		Use:   "list",
		Short: "バッチ一覧",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer ds.Close()

			list, err := usecase.NewBatchService(ds, nil).List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return output.PrintJSON(w, list)
			}
			if len(list) == 0 {
				output.Info(w, "no batches")
				return nil
			}
			tbl := output.NewTable([]string{"ID", "NAME", "TYPE", "CURRENCY", "PAYMENT_DATE", "STATUS", "UPDATED"})
			for _, b := range list {
				tbl.AddRow([]string{
					b.ID, b.Name, b.PaymentType, b.Currency, b.PaymentDate,
					output.Status(string(b.Status)),
					b.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			tbl.Render(w)
			return nil
		},
	}

	count := &cobra.Command{
		Use:   "count",
		Short: "バッチ件数",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer ds.Close()

			n, err := usecase.NewBatchService(ds, nil).Count(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), map[string]int64{"count": n})
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "バッチ詳細（エントリ込み）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer ds.Close()

			svc := usecase.NewBatchService(ds, nil)
			b, err := svc.Get(ctx, args[0])
			if err != nil {
				return err
			}
			entries, err := usecase.NewEntryService(ds, svc).ListByBatch(ctx, b.ID)
			if err != nil {
				return err
			}
			sum, err := svc.Summary(ctx, b.ID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return output.PrintJSON(w, map[string]any{"batch": b, "entries": entries, "summary": sum})
			}
			fmt.Fprintf(w, "Batch:    %s (%s)\n", b.ID, b.Name)
			fmt.Fprintf(w, "Status:   %s\n", output.Status(string(b.Status)))
			fmt.Fprintf(w, "Type:     %s / %s\n", b.PaymentType, b.Currency)
			fmt.Fprintf(w, "Debit:    %s %s\n", b.DebitAccount, b.AccountType)
			fmt.Fprintf(w, "Pay date: %s\n", b.PaymentDate)
			fmt.Fprintf(w, "Total:    %.2f (%d entries)\n\n", sum.TotalAmount, sum.EntryCount)

			tbl := output.NewTable([]string{"ENTRY_ID", "METHOD", "PAYEE", "AMOUNT", "REFERENCE"})
			for _, e := range entries {
				tbl.AddRow([]string{
					e.ID, e.Method, e.PayeeName,
					strconv.FormatFloat(float64(e.Amount), 'f', 2, 64),
					e.PaymentReference,
				})
			}
			tbl.Render(w)
			return nil
		},
	}

	batches.AddCommand(list, count, show)
	return batches
}
