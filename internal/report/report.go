// Package report builds financial statements from balance.Result values.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/model"
)

// Chart is the read access the generators need to the chart of accounts.
type Chart interface {
	All() []model.Account
	ByRole(role model.AccountRole) (model.Account, bool)
}

// Line is one account row on a statement.
type Line struct {
	AccountID int             `json:"account_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

func lineFor(a model.Account, amount decimal.Decimal) Line {
	return Line{AccountID: a.ID, Name: a.Name, Amount: amount.Round(2)}
}

// sumType totals the balances of every account of type t.
func sumType(res balance.Result, chart Chart, t model.AccountType) decimal.Decimal {
	total := decimal.Zero
	for _, a := range chart.All() {
		if a.Type == t {
			total = total.Add(res.Of(a.ID))
		}
	}
	return total
}
