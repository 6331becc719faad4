// Package closing transfers a fiscal year's profit or loss into retained
// earnings and carries the balance sheet into the next year.
package closing

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/model"
)

// Chart is the read access closing needs to the chart of accounts.
type Chart interface {
	All() []model.Account
	Get(id int) (model.Account, bool)
	ByRole(role model.AccountRole) (model.Account, bool)
}

// Result holds the vouchers produced for one fiscal year. Closing or Opening
// is nil when it would have no entries.
type Result struct {
	Window      balance.Window
	Closing     *model.Voucher
	Opening     *model.Voucher
	NetProfit   decimal.Decimal
	YearEnd     balance.Result // balances before closing
	PostClosing balance.Result // balances after the closing voucher
}

// CloseYear builds the closing and opening vouchers for the fiscal year in
// window. It only computes: running it twice over the same ledger produces the
// transfer twice, so callers guard against re-closing (see Service).
//
// The returned vouchers carry no ID or number.
func CloseYear(window balance.Window, vouchers []model.Voucher, chart Chart) (Result, error) {
	if window.Start.IsZero() || window.End.IsZero() {
		return Result{}, fmt.Errorf("closing requires a bounded fiscal year, got %s: %w", window, apperrors.ErrValidation)
	}
	re, ok := chart.ByRole(model.RoleRetainedEarnings)
	if !ok {
		return Result{}, apperrors.ConfigurationError{
			Setting:     "role=retained_earnings",
			Description: "no account in the chart carries the retained_earnings role",
		}
	}
	if re.Type != model.AccountTypeEquity {
		return Result{}, apperrors.ConfigurationError{
			Setting:     "role=retained_earnings",
			Description: fmt.Sprintf("account %d must be equity, got %s", re.ID, re.Type),
		}
	}

	yearEnd := balance.Compute(vouchers, chart, window)
	res := Result{Window: window, YearEnd: yearEnd, NetProfit: decimal.Zero}

	var entries []model.VoucherEntry
	netProfit := decimal.Zero
	for _, a := range chart.All() {
		b := yearEnd.Of(a.ID)
		if balance.IsZero(b) {
			continue
		}
		switch a.Type {
		case model.AccountTypeRevenue:
			// Zero a credit-normal balance with a debit.
			entries = append(entries, entry(a.ID, b))
			netProfit = netProfit.Add(b)
		case model.AccountTypeExpense:
			entries = append(entries, entry(a.ID, b.Neg()))
			netProfit = netProfit.Sub(b)
		}
	}
	if !netProfit.IsZero() {
		entries = append(entries, entry(re.ID, netProfit.Neg()))
	}
	res.NetProfit = netProfit

	year := window.Start.Year()
	if len(entries) > 0 {
		res.Closing = &model.Voucher{
			Date:      window.LastDay(),
			Narration: fmt.Sprintf("Closing entries for fiscal year %d", year),
			Kind:      model.KindClosing,
			Entries:   entries,
		}
	}

	res.PostClosing = yearEnd.Copy()
	if res.Closing != nil {
		res.PostClosing = balance.Apply(res.PostClosing, *res.Closing, chart)
	}

	var opening []model.VoucherEntry
	for _, a := range chart.All() {
		b := res.PostClosing.Of(a.ID)
		if balance.IsZero(b) {
			continue
		}
		switch a.Type {
		case model.AccountTypeAsset:
			opening = append(opening, entry(a.ID, b))
		case model.AccountTypeLiability, model.AccountTypeEquity:
			opening = append(opening, entry(a.ID, b.Neg()))
		}
	}
	if len(opening) > 0 {
		res.Opening = &model.Voucher{
			Date:      window.End,
			Narration: fmt.Sprintf("Opening balances brought forward from fiscal year %d", year),
			Kind:      model.KindOpening,
			Entries:   opening,
		}
	}
	return res, nil
}

// entry debits a positive amount and credits the absolute value of a
// negative one, so both sides stay non-negative.
func entry(accountID int, amount decimal.Decimal) model.VoucherEntry {
	if amount.IsNegative() {
		return model.VoucherEntry{AccountID: accountID, Debit: decimal.Zero, Credit: amount.Neg()}
	}
	return model.VoucherEntry{AccountID: accountID, Debit: amount, Credit: decimal.Zero}
}

// StatementWindow returns the window a balance sheet at asOf should cover:
// everything from the end of the latest carried-forward year. Only the
// unbroken run of closed years from the earliest one counts, since an
// opening voucher carries nothing from before a gap.
func StatementWindow(periods []model.FiscalPeriod, asOf time.Time) balance.Window {
	w := balance.AsOf(asOf)
	chain := append([]model.FiscalPeriod(nil), periods...)
	sort.Slice(chain, func(i, j int) bool { return chain[i].Start.Before(chain[j].Start) })
	for i, p := range chain {
		if i > 0 && !p.Start.Equal(chain[i-1].End) {
			break
		}
		if p.OpeningVoucherID == "" || !p.End.Before(w.End) {
			continue
		}
		w.Start = p.End
	}
	return w
}
