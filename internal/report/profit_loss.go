package report

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/model"
)

// ProfitAndLoss is the income statement for the window of its balances.
type ProfitAndLoss struct {
	Window             balance.Window  `json:"-"`
	RevenueLines       []Line          `json:"revenue_lines"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	COGSLine           *Line           `json:"cogs_line,omitempty"`
	TotalCOGS          decimal.Decimal `json:"total_cogs"`
	GrossProfit        decimal.Decimal `json:"gross_profit"`
	ExpenseLines       []Line          `json:"expense_lines"`
	TotalOtherExpenses decimal.Decimal `json:"total_other_expenses"`
	NetProfitOrLoss    decimal.Decimal `json:"net_profit_or_loss"`
}

// NewProfitAndLoss builds the statement. The primary revenue account leads the
// revenue lines and the cost of goods sold account is split out above gross
// profit; both are found by role. Zero lines are hidden but still counted.
func NewProfitAndLoss(res balance.Result, chart Chart) ProfitAndLoss {
	pl := ProfitAndLoss{
		Window:       res.Window,
		RevenueLines: []Line{},
		ExpenseLines: []Line{},
	}

	primary, hasPrimary := chart.ByRole(model.RolePrimaryRevenue)
	cogs, hasCOGS := chart.ByRole(model.RoleCOGS)

	totalRevenue := decimal.Zero
	if hasPrimary && primary.Type == model.AccountTypeRevenue {
		b := res.Of(primary.ID)
		totalRevenue = totalRevenue.Add(b)
		if !balance.IsZero(b) {
			pl.RevenueLines = append(pl.RevenueLines, lineFor(primary, b))
		}
	} else {
		hasPrimary = false
	}

	totalCOGS := decimal.Zero
	if hasCOGS && cogs.Type == model.AccountTypeExpense {
		totalCOGS = res.Of(cogs.ID)
		if !balance.IsZero(totalCOGS) {
			line := lineFor(cogs, totalCOGS)
			pl.COGSLine = &line
		}
	} else {
		hasCOGS = false
	}

	otherExpenses := decimal.Zero
	for _, a := range chart.All() {
		b := res.Of(a.ID)
		switch {
		case a.Type == model.AccountTypeRevenue:
			if hasPrimary && a.ID == primary.ID {
				continue
			}
			totalRevenue = totalRevenue.Add(b)
			if !balance.IsZero(b) {
				pl.RevenueLines = append(pl.RevenueLines, lineFor(a, b))
			}
		case a.Type == model.AccountTypeExpense:
			if hasCOGS && a.ID == cogs.ID {
				continue
			}
			otherExpenses = otherExpenses.Add(b)
			if !balance.IsZero(b) {
				pl.ExpenseLines = append(pl.ExpenseLines, lineFor(a, b))
			}
		}
	}

	gross := totalRevenue.Sub(totalCOGS)
	pl.TotalRevenue = totalRevenue.Round(2)
	pl.TotalCOGS = totalCOGS.Round(2)
	pl.GrossProfit = gross.Round(2)
	pl.TotalOtherExpenses = otherExpenses.Round(2)
	pl.NetProfitOrLoss = gross.Sub(otherExpenses).Round(2)
	return pl
}
