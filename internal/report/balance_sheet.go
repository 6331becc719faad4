package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/model"
)

// BalanceSheet is the statement of financial position at a date.
type BalanceSheet struct {
	AsOf             time.Time       `json:"as_of"`
	Assets           []Line          `json:"assets"`
	Liabilities      []Line          `json:"liabilities"`
	Equity           []Line          `json:"equity"`
	NetIncome        decimal.Decimal `json:"net_income"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"` // includes NetIncome
}

// NewBalanceSheet partitions balances by classification. Revenue and expense
// accounts never appear as lines; their net is folded into NetIncome and from
// there into TotalEquity.
func NewBalanceSheet(res balance.Result, chart Chart, asOf time.Time) BalanceSheet {
	bs := BalanceSheet{
		AsOf:        balance.Day(asOf),
		Assets:      []Line{},
		Liabilities: []Line{},
		Equity:      []Line{},
	}

	totalAssets, totalLiabilities, totalEquity := decimal.Zero, decimal.Zero, decimal.Zero
	for _, a := range chart.All() {
		b := res.Of(a.ID)
		switch a.Type {
		case model.AccountTypeAsset:
			totalAssets = totalAssets.Add(b)
			if !balance.IsZero(b) {
				bs.Assets = append(bs.Assets, lineFor(a, b))
			}
		case model.AccountTypeLiability:
			totalLiabilities = totalLiabilities.Add(b)
			if !balance.IsZero(b) {
				bs.Liabilities = append(bs.Liabilities, lineFor(a, b))
			}
		case model.AccountTypeEquity:
			totalEquity = totalEquity.Add(b)
			if !balance.IsZero(b) {
				bs.Equity = append(bs.Equity, lineFor(a, b))
			}
		}
	}

	netIncome := sumType(res, chart, model.AccountTypeRevenue).Sub(sumType(res, chart, model.AccountTypeExpense))
	bs.NetIncome = netIncome.Round(2)
	bs.TotalAssets = totalAssets.Round(2)
	bs.TotalLiabilities = totalLiabilities.Round(2)
	bs.TotalEquity = totalEquity.Add(netIncome).Round(2)
	return bs
}

// Difference returns TotalAssets - (TotalLiabilities + TotalEquity).
func (bs BalanceSheet) Difference() decimal.Decimal {
	return bs.TotalAssets.Sub(bs.TotalLiabilities.Add(bs.TotalEquity))
}

// Balanced reports whether the accounting equation holds.
func (bs BalanceSheet) Balanced() bool {
	return balance.IsZero(bs.Difference())
}
