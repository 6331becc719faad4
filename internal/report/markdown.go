package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/recon"
)

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func cell(s string) string { return strings.ReplaceAll(s, "|", `\|`) }

func writeLines(b *strings.Builder, lines []Line) {
	for _, l := range lines {
		fmt.Fprintf(b, "| %d | %s | %s |\n", l.AccountID, cell(l.Name), money(l.Amount))
	}
}

// BalanceSheetMarkdown renders bs as a markdown document.
func BalanceSheetMarkdown(bs BalanceSheet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Balance Sheet as of %s\n\n", bs.AsOf.Format("2006-01-02"))

	fmt.Fprintln(&b, "## Assets")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "| Account | Name | Amount |")
	fmt.Fprintln(&b, "|---:|:---|---:|")
	writeLines(&b, bs.Assets)
	fmt.Fprintf(&b, "| | **Total assets** | **%s** |\n\n", money(bs.TotalAssets))

	fmt.Fprintln(&b, "## Liabilities")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "| Account | Name | Amount |")
	fmt.Fprintln(&b, "|---:|:---|---:|")
	writeLines(&b, bs.Liabilities)
	fmt.Fprintf(&b, "| | **Total liabilities** | **%s** |\n\n", money(bs.TotalLiabilities))

	fmt.Fprintln(&b, "## Equity")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "| Account | Name | Amount |")
	fmt.Fprintln(&b, "|---:|:---|---:|")
	writeLines(&b, bs.Equity)
	fmt.Fprintf(&b, "| | Net income | %s |\n", money(bs.NetIncome))
	fmt.Fprintf(&b, "| | **Total equity** | **%s** |\n\n", money(bs.TotalEquity))

	if bs.Balanced() {
		fmt.Fprintln(&b, "Assets equal liabilities plus equity.")
	} else {
		fmt.Fprintf(&b, "**Out of balance by %s.**\n", money(bs.Difference()))
	}
	return b.String()
}

// ProfitAndLossMarkdown renders pl as a markdown document.
func ProfitAndLossMarkdown(pl ProfitAndLoss) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Profit and Loss, %s\n\n", pl.Window)

	fmt.Fprintln(&b, "| Account | Name | Amount |")
	fmt.Fprintln(&b, "|---:|:---|---:|")
	writeLines(&b, pl.RevenueLines)
	fmt.Fprintf(&b, "| | **Total revenue** | **%s** |\n", money(pl.TotalRevenue))
	if pl.COGSLine != nil {
		writeLines(&b, []Line{*pl.COGSLine})
	}
	fmt.Fprintf(&b, "| | **Gross profit** | **%s** |\n", money(pl.GrossProfit))
	writeLines(&b, pl.ExpenseLines)
	fmt.Fprintf(&b, "| | **Total other expenses** | **%s** |\n", money(pl.TotalOtherExpenses))

	label := "Net profit"
	if pl.NetProfitOrLoss.IsNegative() {
		label = "Net loss"
	}
	fmt.Fprintf(&b, "| | **%s** | **%s** |\n", label, money(pl.NetProfitOrLoss))
	return b.String()
}

// TrialBalanceMarkdown renders tb as a markdown table.
func TrialBalanceMarkdown(tb TrialBalance) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Trial Balance\n\n")
	fmt.Fprintln(&b, "| Account | Name | Type | Debit | Credit |")
	fmt.Fprintln(&b, "|---:|:---|:---|---:|---:|")
	for _, r := range tb.Rows {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			r.AccountID, cell(r.Name), r.Type, blankZero(r.Debit), blankZero(r.Credit))
	}
	fmt.Fprintf(&b, "| | **Total** | | **%s** | **%s** |\n", money(tb.TotalDebit), money(tb.TotalCredit))
	return b.String()
}

func blankZero(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return money(d)
}

// ReconciliationMarkdown renders a bank reconciliation statement for period.
func ReconciliationMarkdown(period string, r recon.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Bank Reconciliation %s\n\n", period)

	fmt.Fprintln(&b, "| | Bank | Books |")
	fmt.Fprintln(&b, "|:---|---:|---:|")
	fmt.Fprintf(&b, "| Closing balance | %s | %s |\n", money(r.ClosingBankBalance), money(r.ClosingBookBalance))
	fmt.Fprintf(&b, "| Add: deposits in transit | %s | |\n", money(r.TotalDepositsInTransit))
	fmt.Fprintf(&b, "| Less: outstanding payments | %s | |\n", money(r.TotalOutstandingPayments))
	fmt.Fprintf(&b, "| Add: bank credits not in books | | %s |\n", money(r.TotalBankCreditsNotInBooks))
	fmt.Fprintf(&b, "| Less: bank debits not in books | | %s |\n", money(r.TotalBankDebitsNotInBooks))
	fmt.Fprintf(&b, "| **Adjusted balance** | **%s** | **%s** |\n\n", money(r.AdjustedBankBalance), money(r.AdjustedBookBalance))

	writeTransactions(&b, "Deposits in transit", r.DepositsInTransit)
	writeTransactions(&b, "Outstanding payments", r.OutstandingPayments)
	writeTransactions(&b, "Bank credits not in books", r.BankCreditsNotInBooks)
	writeTransactions(&b, "Bank debits not in books", r.BankDebitsNotInBooks)

	if r.Reconciled {
		fmt.Fprintln(&b, "Reconciled.")
	} else {
		fmt.Fprintf(&b, "**Not reconciled: difference %s.**\n", money(r.Difference))
	}
	return b.String()
}

func writeTransactions(b *strings.Builder, title string, txs []recon.Transaction) {
	if len(txs) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	fmt.Fprintln(b, "| Date | ID | Description | Amount |")
	fmt.Fprintln(b, "|:---|:---|:---|---:|")
	for _, t := range txs {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			t.Date.Format("2006-01-02"), cell(t.ID), cell(t.Description), money(t.Amount()))
	}
	fmt.Fprintln(b)
}
