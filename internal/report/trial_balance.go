package report

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/model"
)

// TrialBalanceRow shows an account's balance in the debit or credit column.
type TrialBalanceRow struct {
	AccountID int               `json:"account_id"`
	Name      string            `json:"name"`
	Type      model.AccountType `json:"type"`
	Debit     decimal.Decimal   `json:"debit"`
	Credit    decimal.Decimal   `json:"credit"`
}

// TrialBalance lists every non-zero account.
type TrialBalance struct {
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
}

// NewTrialBalance places each balance on its natural side; a balance against
// its normal side (an overdrawn bank account) moves to the other column.
func NewTrialBalance(res balance.Result, chart Chart) TrialBalance {
	tb := TrialBalance{Rows: []TrialBalanceRow{}, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, a := range chart.All() {
		b := res.Of(a.ID)
		if balance.IsZero(b) {
			continue
		}
		row := TrialBalanceRow{AccountID: a.ID, Name: a.Name, Type: a.Type, Debit: decimal.Zero, Credit: decimal.Zero}
		debitSide := a.Type.DebitNormal() == b.IsPositive()
		if debitSide {
			row.Debit = b.Abs().Round(2)
		} else {
			row.Credit = b.Abs().Round(2)
		}
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
		tb.Rows = append(tb.Rows, row)
	}
	return tb
}

// Balanced reports whether total debits equal total credits.
func (tb TrialBalance) Balanced() bool {
	return balance.IsZero(tb.TotalDebit.Sub(tb.TotalCredit))
}
