// Package recon reconciles the bank account in the books against an
// independent bank statement feed.
package recon

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/model"
)

// Tolerance is the largest adjusted-balance difference still reported as
// reconciled.
var Tolerance = decimal.RequireFromString("0.01")

// Side names one of the two feeds.
type Side string

const (
	SideBank Side = "bank"
	SideBook Side = "book"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool { return s == SideBank || s == SideBook }

// Transaction is one row of either feed. On the bank side Credit is money in;
// on the book side Debit is money in.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// Amount returns the larger of Debit and Credit.
func (t Transaction) Amount() decimal.Decimal {
	return decimal.Max(t.Debit, t.Credit)
}

// RoleChart looks accounts up by role.
type RoleChart interface {
	ByRole(role model.AccountRole) (model.Account, bool)
}

// BankAccount returns the account designated with the bank role.
func BankAccount(chart RoleChart) (model.Account, error) {
	a, ok := chart.ByRole(model.RoleBank)
	if !ok {
		return model.Account{}, apperrors.ConfigurationError{
			Setting:     "role=bank",
			Description: "no account in the chart carries the bank role",
		}
	}
	if a.Type != model.AccountTypeAsset {
		return model.Account{}, apperrors.ConfigurationError{
			Setting:     "role=bank",
			Description: fmt.Sprintf("bank account %d must be an asset, got %s", a.ID, a.Type),
		}
	}
	return a, nil
}

// BookFeed projects the vouchers touching the bank account into book rows.
// Several bank entries in one voucher are netted into a single row keyed by
// the voucher ID; vouchers netting to zero are skipped. Opening vouchers
// restate balances already carried by earlier vouchers and are skipped too.
func BookFeed(vouchers []model.Voucher, bankAccountID int, window balance.Window) []Transaction {
	var out []Transaction
	for _, v := range vouchers {
		if v.Kind == model.KindOpening || !window.Contains(v.Date) {
			continue
		}
		net, touched := decimal.Zero, false
		for _, e := range v.Entries {
			if e.AccountID == bankAccountID {
				net = net.Add(e.Debit).Sub(e.Credit)
				touched = true
			}
		}
		if !touched || net.IsZero() {
			continue
		}
		row := Transaction{
			ID:          v.ID,
			Date:        v.Date,
			Description: v.Narration,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		if net.IsPositive() {
			row.Debit = net
		} else {
			row.Credit = net.Neg()
		}
		out = append(out, row)
	}
	return out
}

// BankFeed converts imported statement rows within window into bank rows.
// Rows without an ID fall back to their reference.
func BankFeed(stmt []model.BankStatementTransaction, window balance.Window) []Transaction {
	var out []Transaction
	for _, s := range stmt {
		if !window.Contains(s.Date) {
			continue
		}
		txID := s.ID
		if txID == "" {
			txID = s.Reference
		}
		out = append(out, Transaction{
			ID:          txID,
			Date:        s.Date,
			Description: s.Description,
			Debit:       s.Debit,
			Credit:      s.Credit,
		})
	}
	return out
}

// Report is the reconciliation statement.
type Report struct {
	ClosingBankBalance decimal.Decimal `json:"closing_bank_balance"`
	ClosingBookBalance decimal.Decimal `json:"closing_book_balance"`

	DepositsInTransit     []Transaction `json:"deposits_in_transit"`
	OutstandingPayments   []Transaction `json:"outstanding_payments"`
	BankCreditsNotInBooks []Transaction `json:"bank_credits_not_in_books"`
	BankDebitsNotInBooks  []Transaction `json:"bank_debits_not_in_books"`

	TotalDepositsInTransit     decimal.Decimal `json:"total_deposits_in_transit"`
	TotalOutstandingPayments   decimal.Decimal `json:"total_outstanding_payments"`
	TotalBankCreditsNotInBooks decimal.Decimal `json:"total_bank_credits_not_in_books"`
	TotalBankDebitsNotInBooks  decimal.Decimal `json:"total_bank_debits_not_in_books"`

	AdjustedBankBalance decimal.Decimal `json:"adjusted_bank_balance"`
	AdjustedBookBalance decimal.Decimal `json:"adjusted_book_balance"`
	Difference          decimal.Decimal `json:"difference"`
	Reconciled          bool            `json:"reconciled"`
}

// Reconcile compares the two feeds. Closing balances are cumulative over
// every row supplied, so callers scope the feeds to the statement range.
// Rows whose IDs are in the cleared set of their side count as matched.
func Reconcile(bankFeed, bookFeed []Transaction, clearedBank, clearedBook map[string]bool) Report {
	r := Report{
		ClosingBankBalance:    decimal.Zero,
		ClosingBookBalance:    decimal.Zero,
		DepositsInTransit:     []Transaction{},
		OutstandingPayments:   []Transaction{},
		BankCreditsNotInBooks: []Transaction{},
		BankDebitsNotInBooks:  []Transaction{},
	}

	var dit, op, bc, bd decimal.Decimal
	for _, t := range bankFeed {
		r.ClosingBankBalance = r.ClosingBankBalance.Add(t.Credit).Sub(t.Debit)
		if clearedBank[t.ID] {
			continue
		}
		if t.Credit.IsPositive() {
			r.BankCreditsNotInBooks = append(r.BankCreditsNotInBooks, t)
			bc = bc.Add(t.Credit)
		}
		if t.Debit.IsPositive() {
			r.BankDebitsNotInBooks = append(r.BankDebitsNotInBooks, t)
			bd = bd.Add(t.Debit)
		}
	}
	for _, t := range bookFeed {
		r.ClosingBookBalance = r.ClosingBookBalance.Add(t.Debit).Sub(t.Credit)
		if clearedBook[t.ID] {
			continue
		}
		if t.Debit.IsPositive() {
			r.DepositsInTransit = append(r.DepositsInTransit, t)
			dit = dit.Add(t.Debit)
		}
		if t.Credit.IsPositive() {
			r.OutstandingPayments = append(r.OutstandingPayments, t)
			op = op.Add(t.Credit)
		}
	}

	r.TotalDepositsInTransit = dit
	r.TotalOutstandingPayments = op
	r.TotalBankCreditsNotInBooks = bc
	r.TotalBankDebitsNotInBooks = bd
	r.AdjustedBankBalance = r.ClosingBankBalance.Add(dit).Sub(op)
	r.AdjustedBookBalance = r.ClosingBookBalance.Add(bc).Sub(bd)
	r.Difference = r.AdjustedBankBalance.Sub(r.AdjustedBookBalance)
	r.Reconciled = r.Difference.Abs().LessThan(Tolerance)
	return r
}
