package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/books/internal/activitylog"
	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/journal"
)

func newPostCommand(v *viper.Viper) *cobra.Command {
	var (
		date      string
		narration string
		debits    []string
		credits   []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a balanced voucher to the ledger",
		Example: `  books post --date 2025-01-02 --narration "Owner capital" \
    --debit 1010=500000 --credit 3010=500000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			req := journal.PostRequest{Date: d, Narration: narration}
			for _, s := range debits {
				acct, amt, err := parseLeg(s)
				if err != nil {
					return err
				}
				req.Entries = append(req.Entries, journal.EntryRequest{AccountID: acct, Debit: amt, Credit: decimal.Zero})
			}
			for _, s := range credits {
				acct, amt, err := parseLeg(s)
				if err != nil {
					return err
				}
				req.Entries = append(req.Entries, journal.EntryRequest{AccountID: acct, Debit: decimal.Zero, Credit: amt})
			}

			ctx, a, err := loadApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			voucher, err := journal.NewService(a.store, a.chart).Post(ctx, a.cfg.Tenant, req)
			if err != nil {
				return err
			}

			total, _ := voucher.Totals()
			err = a.record(ctx, activitylog.Entry{
				Action:    activitylog.ActionPost,
				Details:   fmt.Sprintf("%s %s, %s", voucher.Number, voucher.Narration, total.StringFixed(2)),
				VoucherID: voucher.ID,
			}, fmt.Sprintf("post: %s %s", voucher.Number, voucher.Narration))
			if err != nil {
				return err
			}

			if asJSON {
				return write(cmd.OutOrStdout(), formatJSON, voucher, "")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted %s (%s)\n", voucher.Number, voucher.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "voucher date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&narration, "narration", "", "description of the voucher")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, "debit leg as ACCOUNT=AMOUNT, repeatable")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "credit leg as ACCOUNT=AMOUNT, repeatable")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the posted voucher as JSON")

	return cmd
}

// parseLeg parses ACCOUNT=AMOUNT.
func parseLeg(s string) (int, decimal.Decimal, error) {
	acct, amount, ok := strings.Cut(s, "=")
	if !ok {
		return 0, decimal.Zero, legError(s, "want ACCOUNT=AMOUNT")
	}
	id, err := strconv.Atoi(strings.TrimSpace(acct))
	if err != nil {
		return 0, decimal.Zero, legError(s, "account must be a number")
	}
	amt, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, decimal.Zero, legError(s, "amount must be a decimal number")
	}
	return id, amt, nil
}

func legError(s, description string) error {
	return apperrors.ValidationError{Rule: "request", Ref: s, Description: description}
}
