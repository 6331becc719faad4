package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/closing"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/report"
)

func newReportCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Financial statements",
	}
	cmd.AddCommand(
		newBalanceSheetCommand(v),
		newProfitAndLossCommand(v),
		newTrialBalanceCommand(v),
	)
	return cmd
}

func newBalanceSheetCommand(v *viper.Viper) *cobra.Command {
	var asOf, format string

	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Balance sheet as of a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			end, err := parseDate(asOf)
			if err != nil {
				return err
			}
			ctx, a, err := loadApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.store.Snapshot(ctx, a.cfg.Tenant)
			if err != nil {
				return err
			}
			res := balance.Compute(snap.Vouchers, a.chart, closing.StatementWindow(snap.Periods, end))
			logWarnings(a, res)

			bs := report.NewBalanceSheet(res, a.chart, end)
			if !bs.Balanced() {
				a.log.Warn().Str("difference", bs.Difference().StringFixed(2)).Msg("balance sheet does not balance")
			}
			return write(cmd.OutOrStdout(), format, bs, report.BalanceSheetMarkdown(bs))
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "statement date, YYYY-MM-DD (default today)")
	addFormatFlag(cmd, &format)
	return cmd
}

func newProfitAndLossCommand(v *viper.Viper) *cobra.Command {
	var (
		year     int
		from, to string
		format   string
	)

	cmd := &cobra.Command{
		Use:     "pnl",
		Aliases: []string{"profit-and-loss"},
		Short:   "Profit and loss for a fiscal year or date range",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (year == 0) == (from == "" && to == "") {
				return errors.New("give either --year or --from/--to")
			}

			ctx, a, err := loadApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			var window balance.Window
			if year != 0 {
				m, d := a.fiscalStart()
				window = balance.FiscalYear(year, m, d)
			} else {
				start, err := parseDate(from)
				if err != nil {
					return err
				}
				end, err := parseDate(to)
				if err != nil {
					return err
				}
				window = balance.Range(start, balance.AsOf(end).End)
			}

			snap, err := a.store.Snapshot(ctx, a.cfg.Tenant)
			if err != nil {
				return err
			}
			// Closing vouchers zero the income accounts; leave them out so a
			// closed year still reports its result.
			vouchers := make([]model.Voucher, 0, len(snap.Vouchers))
			for _, vch := range snap.Vouchers {
				if vch.Kind != model.KindClosing {
					vouchers = append(vouchers, vch)
				}
			}
			res := balance.Compute(vouchers, a.chart, window)
			logWarnings(a, res)

			pl := report.NewProfitAndLoss(res, a.chart)
			return write(cmd.OutOrStdout(), format, pl, report.ProfitAndLossMarkdown(pl))
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "fiscal year (the calendar year it starts in)")
	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date, YYYY-MM-DD (default today)")
	addFormatFlag(cmd, &format)
	return cmd
}

func newTrialBalanceCommand(v *viper.Viper) *cobra.Command {
	var asOf, format string

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Debit and credit balance of every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			end, err := parseDate(asOf)
			if err != nil {
				return err
			}
			ctx, a, err := loadApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.store.Snapshot(ctx, a.cfg.Tenant)
			if err != nil {
				return err
			}
			res := balance.Compute(snap.Vouchers, a.chart, closing.StatementWindow(snap.Periods, end))
			logWarnings(a, res)

			tb := report.NewTrialBalance(res, a.chart)
			return write(cmd.OutOrStdout(), format, tb, report.TrialBalanceMarkdown(tb))
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "statement date, YYYY-MM-DD (default today)")
	addFormatFlag(cmd, &format)
	return cmd
}
