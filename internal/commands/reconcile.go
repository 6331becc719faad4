package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/books/internal/activitylog"
	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/importer"
	"github.com/cleared-dev/books/internal/recon"
	"github.com/cleared-dev/books/internal/report"
)

type reconcileOutput struct {
	SessionID   string        `json:"session_id"`
	Period      string        `json:"period"`
	Report      recon.Report  `json:"report"`
	Suggestions []recon.Match `json:"suggestions,omitempty"`
}

func newReconcileCommand(v *viper.Viper) *cobra.Command {
	var (
		toggles        []string
		suggest        bool
		clearSuggested bool
		maxDays        int
		format         string
	)

	cmd := &cobra.Command{
		Use:   "reconcile <YYYY-MM>",
		Short: "Reconcile the bank account against the imported statement",
		Long: `Reconcile one month of the bank account against the imported bank
statement. Both feeds run from the first transaction through the end of the
month, so closing balances are cumulative and items still outstanding from
earlier months carry forward. Rows cleared in an earlier month stay cleared.
Cleared marks are kept per month under reconciliation/<tenant>/ and never
change the ledger.

Toggle a mark with --toggle bank:<id> or --toggle book:<id>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period := args[0]
			if err := recon.ValidatePeriod(period); err != nil {
				return err
			}
			start, err := time.Parse("2006-01", period)
			if err != nil {
				return err
			}
			window := balance.AsOf(start.AddDate(0, 1, -1))

			ctx, a, err := loadApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			bankAcct, err := recon.BankAccount(a.chart)
			if err != nil {
				return err
			}
			snap, err := a.store.Snapshot(ctx, a.cfg.Tenant)
			if err != nil {
				return err
			}
			stmt, err := importer.LoadStatement(a.root, a.cfg.Tenant)
			if err != nil {
				return err
			}

			marks := recon.NewFileClearedStore(a.root)
			bankFeed := recon.BankFeed(stmt, window)
			bookFeed := recon.BookFeed(snap.Vouchers, bankAcct.ID, window)
			settled, err := recon.LoadSettled(ctx, marks, a.cfg.Tenant, period, bankFeed, bookFeed)
			if err != nil {
				return err
			}
			sess, err := recon.NewSession(ctx, marks, a.cfg.Tenant, period, bankFeed, bookFeed, recon.WithSettled(settled))
			if err != nil {
				return err
			}

			changed := 0
			for _, t := range toggles {
				side, id, err := parseToggle(t)
				if err != nil {
					return err
				}
				if _, err := sess.Toggle(ctx, side, id); err != nil {
					return err
				}
				changed++
			}

			out := reconcileOutput{SessionID: sess.ID, Period: period}
			if suggest || clearSuggested {
				out.Suggestions = sess.Suggest(maxDays)
			}
			if clearSuggested && len(out.Suggestions) > 0 {
				if err := sess.ClearMatches(ctx, out.Suggestions); err != nil {
					return err
				}
				changed += len(out.Suggestions)
			}
			out.Report = sess.Report()

			if changed > 0 {
				err := a.record(ctx, activitylog.Entry{
					Action:  activitylog.ActionReconcile,
					Details: fmt.Sprintf("%s: %d marks changed, difference %s", period, changed, out.Report.Difference.StringFixed(2)),
				}, fmt.Sprintf("reconcile: %s", period))
				if err != nil {
					return err
				}
			}

			md := report.ReconciliationMarkdown(period, out.Report)
			if len(out.Suggestions) > 0 {
				md += suggestionsMarkdown(out.Suggestions, clearSuggested)
			}
			return write(cmd.OutOrStdout(), format, out, md)
		},
	}

	cmd.Flags().StringArrayVar(&toggles, "toggle", nil, "flip a cleared mark, as bank:<id> or book:<id>; repeatable")
	cmd.Flags().BoolVar(&suggest, "suggest", false, "list likely matches between uncleared transactions")
	cmd.Flags().BoolVar(&clearSuggested, "clear-suggested", false, "mark every suggested match as cleared")
	cmd.Flags().IntVar(&maxDays, "max-days", 3, "largest date gap for a suggested match")
	addFormatFlag(cmd, &format)
	return cmd
}

func parseToggle(s string) (recon.Side, string, error) {
	side, id, ok := strings.Cut(s, ":")
	if !ok || id == "" || !recon.Side(side).Valid() {
		return "", "", apperrors.ValidationError{
			Rule:        "side",
			Ref:         s,
			Description: "toggle must look like bank:<id> or book:<id>",
		}
	}
	return recon.Side(side), id, nil
}

func suggestionsMarkdown(matches []recon.Match, cleared bool) string {
	var b strings.Builder
	title := "Suggested matches"
	if cleared {
		title = "Cleared matches"
	}
	fmt.Fprintf(&b, "\n## %s\n\n", title)
	fmt.Fprintln(&b, "| Bank | Book | Days apart |")
	fmt.Fprintln(&b, "|:---|:---|---:|")
	for _, m := range matches {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", m.BankID, m.BookID, m.Days)
	}
	return b.String()
}
