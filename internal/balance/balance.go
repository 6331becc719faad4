// Package balance computes signed per-account balances from journal vouchers.
//
// It is the single source of truth for every statement: the balance sheet,
// profit and loss, trial balance and year-end closing all start from a Result.
package balance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// Epsilon is the magnitude at or below which a balance is treated as zero.
var Epsilon = decimal.RequireFromString("0.001")

// IsZero reports whether |d| <= Epsilon.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Epsilon)
}

// Chart is the read access the engine needs to the chart of accounts.
type Chart interface {
	All() []model.Account
	Get(id int) (model.Account, bool)
}

// IntegrityWarning reports a voucher entry that could not be applied.
type IntegrityWarning struct {
	VoucherID     string
	VoucherNumber string
	AccountID     int
	Message       string
}

func (w IntegrityWarning) String() string {
	return fmt.Sprintf("voucher %s: account %d: %s", w.VoucherNumber, w.AccountID, w.Message)
}

// Result holds the balance of every known account plus any warnings raised
// while computing it.
type Result struct {
	Window   Window
	Balances map[int]decimal.Decimal
	Warnings []IntegrityWarning
}

// Of returns the balance of an account, zero if unknown.
func (r Result) Of(accountID int) decimal.Decimal {
	if b, ok := r.Balances[accountID]; ok {
		return b
	}
	return decimal.Zero
}

// Compute applies every in-window voucher entry to its account using the
// normal-balance rule: asset and expense accounts accumulate debit - credit,
// liability, equity and revenue accounts accumulate credit - debit.
func Compute(vouchers []model.Voucher, chart Chart, window Window) Result {
	res := Result{
		Window:   window,
		Balances: make(map[int]decimal.Decimal, len(chart.All())),
	}
	for _, a := range chart.All() {
		res.Balances[a.ID] = decimal.Zero
	}
	for _, v := range vouchers {
		if !window.Contains(v.Date) {
			continue
		}
		res = Apply(res, v, chart)
	}
	return res
}

// Apply layers one voucher on top of r regardless of its date. r.Balances is
// updated in place.
func Apply(r Result, v model.Voucher, chart Chart) Result {
	for _, e := range v.Entries {
		acct, ok := chart.Get(e.AccountID)
		if !ok {
			r.Warnings = append(r.Warnings, IntegrityWarning{
				VoucherID:     v.ID,
				VoucherNumber: v.Number,
				AccountID:     e.AccountID,
				Message:       "unknown account, entry excluded",
			})
			continue
		}
		r.Balances[acct.ID] = r.Balances[acct.ID].Add(Signed(acct.Type, e))
	}
	return r
}

// Signed returns the entry's effect on an account of type t.
func Signed(t model.AccountType, e model.VoucherEntry) decimal.Decimal {
	if t.DebitNormal() {
		return e.Debit.Sub(e.Credit)
	}
	return e.Credit.Sub(e.Debit)
}

// Copy returns a Result whose balances can be changed without affecting r.
func (r Result) Copy() Result {
	out := Result{
		Window:   r.Window,
		Balances: make(map[int]decimal.Decimal, len(r.Balances)),
		Warnings: append([]IntegrityWarning(nil), r.Warnings...),
	}
	for id, b := range r.Balances {
		out.Balances[id] = b
	}
	return out
}
