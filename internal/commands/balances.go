package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/closing"
)

type accountBalance struct {
	AccountID int             `json:"account_id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
}

func newBalancesCommand(v *viper.Viper) *cobra.Command {
	var (
		asOf   string
		from   string
		all    bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show the balance of every account",
		Long: `Show the signed balance of every account.

By default the window starts after the latest closed and carried-forward
fiscal year, so balance sheet accounts include their opening balances and
income accounts show the current year. --from sets an explicit start.`,
		Args: cobra.NoArgs,
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

			window := closing.StatementWindow(snap.Periods, end)
			switch {
			case all:
				window = balance.AsOf(end)
			case from != "":
				start, err := parseDate(from)
				if err != nil {
					return err
				}
				window = balance.Range(start, balance.AsOf(end).End)
			}

			res := balance.Compute(snap.Vouchers, a.chart, window)
			logWarnings(a, res)

			var rows []accountBalance
			var b strings.Builder
			fmt.Fprintf(&b, "# Account balances, %s\n\n", window)
			fmt.Fprintln(&b, "| Account | Name | Type | Balance |")
			fmt.Fprintln(&b, "|---:|:---|:---|---:|")
			for _, acct := range a.chart.All() {
				bal := res.Of(acct.ID)
				rows = append(rows, accountBalance{AccountID: acct.ID, Name: acct.Name, Type: string(acct.Type), Balance: bal.Round(2)})
				fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", acct.ID, acct.Name, acct.Type, bal.StringFixed(2))
			}
			return write(cmd.OutOrStdout(), format, rows, b.String())
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "last date included, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&from, "from", "", "first date included, YYYY-MM-DD")
	cmd.Flags().BoolVar(&all, "all", false, "include every voucher regardless of closed years")
	addFormatFlag(cmd, &format)

	return cmd
}

// logWarnings reports integrity warnings from a balance computation.
func logWarnings(a *app, res balance.Result) {
	for _, w := range res.Warnings {
		a.log.Warn().
			Str("voucher", w.VoucherNumber).
			Int("account_id", w.AccountID).
			Msg(w.Message)
	}
}
