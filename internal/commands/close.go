package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/books/internal/activitylog"
	"github.com/cleared-dev/books/internal/closing"
	"github.com/cleared-dev/books/internal/journal"
)

func newCloseYearCommand(v *viper.Viper) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "close-year <year>",
		Short: "Close a fiscal year into retained earnings",
		Long: `Close a fiscal year: zero every revenue and expense account into the
retained earnings account and carry the balance sheet forward with an
opening voucher on the first day of the next year. A year can be closed
only once, and nothing can be posted into it afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil || year < 1900 || year > 9999 {
				return fmt.Errorf("invalid year %q", args[0])
			}

			ctx, a, err := loadApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			m, d := a.fiscalStart()
			opts := []closing.Option{closing.WithFiscalYearStart(m, d)}
			if repo := a.gitRepo(); repo != nil {
				opts = append(opts, closing.WithCommitter(repo))
			}
			svc := closing.NewService(a.store, a.chart, journal.NewService(a.store, a.chart), opts...)

			out, err := svc.Close(ctx, a.cfg.Tenant, year)
			commitFailed := errors.Is(err, closing.ErrCommit)
			if err != nil && !commitFailed {
				return err
			}

			entry := activitylog.Entry{
				Action:     activitylog.ActionClose,
				Details:    fmt.Sprintf("fiscal year %d, net %s", year, out.NetProfit.StringFixed(2)),
				VoucherID:  out.Period.ClosingVoucherID,
				CommitHash: out.Commit,
			}
			if commitFailed {
				// The ledger is closed; only record it, do not retry the commit.
				entry.CommitHash = "-"
			}
			if rerr := a.record(ctx, entry, ""); rerr != nil && err == nil {
				err = rerr
			}

			if asJSON {
				if werr := write(cmd.OutOrStdout(), formatJSON, out, ""); werr != nil {
					return werr
				}
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Closed fiscal year %d (%s to %s)\n", year,
				out.Period.Start.Format(dateFormat), out.Period.End.AddDate(0, 0, -1).Format(dateFormat))
			fmt.Fprintf(w, "Net profit: %s\n", out.NetProfit.StringFixed(2))
			if out.Closing != nil {
				fmt.Fprintf(w, "Closing voucher: %s\n", out.Closing.Number)
			}
			if out.Opening != nil {
				fmt.Fprintf(w, "Opening voucher: %s\n", out.Opening.Number)
			}
			if out.Commit != "" {
				fmt.Fprintf(w, "Commit: %s\n", out.Commit)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")
	return cmd
}
