package commands_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/activitylog"
	"github.com/cleared-dev/books/internal/recon"
	"github.com/cleared-dev/books/internal/report"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func initRepo(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	out, err := runBooks(t, append([]string{"init", dir, "--name", "Test Biz"}, args...)...)
	require.NoError(t, err, out)
	return dir
}

func post(t *testing.T, dir, date, narration, debit, credit string) {
	t.Helper()
	out, err := runBooks(t, "post", "--repo", dir, "--date", date, "--narration", narration,
		"--debit", debit, "--credit", credit)
	require.NoError(t, err, out)
	require.Contains(t, out, "Posted ")
}

// postWorkedExample books owner capital, a cash sale and rent in 2025.
func postWorkedExample(t *testing.T, dir string) {
	t.Helper()
	post(t, dir, "2025-01-02", "Owner capital", "1010=500000", "3010=500000")
	post(t, dir, "2025-03-15", "Cash sale", "1010=50000", "4010=50000")
	post(t, dir, "2025-06-01", "Office rent", "5040=25000", "1010=25000")
}

func balanceSheet(t *testing.T, dir, asOf string) report.BalanceSheet {
	t.Helper()
	var bs report.BalanceSheet
	out := runStdout(t, "report", "balance-sheet", "--repo", dir, "--as-of", asOf, "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &bs), out)
	return bs
}

func TestPost_NumbersAndRejects(t *testing.T) {
	dir := initRepo(t, "--no-git")
	post(t, dir, "2025-01-02", "Owner capital", "1010=1000", "3010=1000")

	out, err := runBooks(t, "post", "--repo", dir, "--date", "2025-01-05", "--narration", "Unbalanced",
		"--debit", "1010=10", "--credit", "3010=9")
	require.Error(t, err)
	assert.Contains(t, out, "balanced")

	out, err = runBooks(t, "post", "--repo", dir, "--date", "2025-01-05", "--narration", "Unknown account",
		"--debit", "9999=10", "--credit", "3010=10")
	require.Error(t, err)
	assert.Contains(t, out, "9999")

	out, err = runBooks(t, "post", "--repo", dir, "--date", "2025-01-05", "--narration", "Bad leg",
		"--debit", "1010", "--credit", "3010=10")
	require.Error(t, err)
	assert.Contains(t, out, "ACCOUNT=AMOUNT")

	out = runStdout(t, "post", "--repo", dir, "--date", "2025-01-20", "--narration", "Second",
		"--debit", "5020=10", "--credit", "1010=10", "--json")
	var v struct {
		Number string `json:"number"`
		Kind   string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "2025-01-002", v.Number, "rejected vouchers consume no number")
	assert.Equal(t, "manual", v.Kind)

	_, err = os.Stat(filepath.Join(dir, "ledger", "default", "2025", "01", "journal.csv"))
	assert.NoError(t, err)
}

func TestYearEndWorkflow(t *testing.T) {
	dir := initRepo(t)
	postWorkedExample(t, dir)

	bs := balanceSheet(t, dir, "2025-12-31")
	assert.True(t, bs.TotalAssets.Equal(dec("525000")))
	assert.True(t, bs.NetIncome.Equal(dec("25000")))
	assert.True(t, bs.Balanced())

	out, err := runBooks(t, "close-year", "2025", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Closed fiscal year 2025 (2025-01-01 to 2025-12-31)")
	assert.Contains(t, out, "Net profit: 25000.00")
	assert.Contains(t, out, "Closing voucher: 2025-12-001")
	assert.Contains(t, out, "Opening voucher: 2026-01-001")

	// A second close is refused and changes nothing.
	out, err = runBooks(t, "close-year", "2025", "--repo", dir)
	require.Error(t, err)
	assert.Contains(t, out, "already closed")

	// The closed year accepts no more postings.
	out, err = runBooks(t, "post", "--repo", dir, "--date", "2025-11-30", "--narration", "Late",
		"--debit", "5040=1", "--credit", "1010=1")
	require.Error(t, err)
	assert.Contains(t, out, "closed fiscal year")

	// The next year opens with the carried-forward balance sheet.
	bs = balanceSheet(t, dir, "2026-06-30")
	assert.True(t, bs.TotalAssets.Equal(dec("525000")))
	assert.True(t, bs.TotalEquity.Equal(dec("525000")))
	assert.True(t, bs.NetIncome.IsZero())
	var re report.Line
	for _, l := range bs.Equity {
		if l.AccountID == 3900 {
			re = l
		}
	}
	assert.True(t, re.Amount.Equal(dec("25000")), "retained earnings carried forward")

	// The closed year still reports its result.
	var pl report.ProfitAndLoss
	out = runStdout(t, "report", "pnl", "--repo", dir, "--year", "2025", "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &pl), out)
	assert.True(t, pl.NetProfitOrLoss.Equal(dec("25000")))
	assert.True(t, pl.TotalRevenue.Equal(dec("50000")))

	var tb report.TrialBalance
	out = runStdout(t, "report", "trial-balance", "--repo", dir, "--as-of", "2026-01-01", "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &tb), out)
	assert.True(t, tb.TotalDebit.Equal(dec("525000")))
	assert.True(t, tb.TotalDebit.Equal(tb.TotalCredit))

	log := exec.Command("git", "log", "--format=%s")
	log.Dir = dir
	gitOut, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(gitOut), "close: fiscal year 2025")
	assert.Contains(t, string(gitOut), "post: 2025-03-001 Cash sale")

	entries, err := activitylog.Read(dir)
	require.NoError(t, err)
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"init", "post", "post", "post", "close_year"}, actions)
	assert.NotEmpty(t, entries[len(entries)-1].CommitHash)
}

func TestReportMarkdown(t *testing.T) {
	dir := initRepo(t, "--no-git")
	postWorkedExample(t, dir)

	out := runStdout(t, "report", "balance-sheet", "--repo", dir, "--as-of", "2025-12-31", "--format", "markdown")
	assert.Contains(t, out, "# Balance Sheet as of 2025-12-31")
	assert.Contains(t, out, "| 1010 | Business Checking | 525000.00 |")

	out = runStdout(t, "report", "pnl", "--repo", dir, "--from", "2025-03-01", "--to", "2025-03-31", "--format", "markdown")
	assert.Contains(t, out, "2025-03-01 to 2025-03-31")
	assert.Contains(t, out, "| | **Net profit** | **50000.00** |")

	out = runStdout(t, "report", "balance-sheet", "--repo", dir, "--as-of", "2025-12-31")
	assert.Contains(t, out, "Balance Sheet", "pretty output renders the same statement")

	_, err := runBooks(t, "report", "pnl", "--repo", dir, "--format", "markdown")
	assert.Error(t, err, "pnl needs a period")
}

func TestBalances(t *testing.T) {
	dir := initRepo(t, "--no-git")
	postWorkedExample(t, dir)

	var rows []struct {
		AccountID int             `json:"account_id"`
		Balance   decimal.Decimal `json:"balance"`
	}
	out := runStdout(t, "balances", "--repo", dir, "--as-of", "2025-06-30", "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &rows), out)

	got := map[int]decimal.Decimal{}
	for _, r := range rows {
		got[r.AccountID] = r.Balance
	}
	assert.True(t, got[1010].Equal(dec("525000")))
	assert.True(t, got[4010].Equal(dec("50000")))
	assert.True(t, got[5040].Equal(dec("25000")))
	assert.True(t, got[3900].IsZero())
}

func TestImportAndReconcile(t *testing.T) {
	dir := initRepo(t, "--no-git")
	post(t, dir, "2025-01-03", "GitHub subscription", "5020=4", "1010=4")
	post(t, dir, "2025-01-09", "ACME Consulting, invoice 1042", "1010=3500", "4010=3500")

	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "chase_checking.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "chase_checking.csv"), data, 0o644))

	out, err := runBooks(t, "import", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "chase_checking.csv: 6 rows, 6 new (chase)")
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "chase_checking.csv"))
	require.NoError(t, err)

	out, err = runBooks(t, "import", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to import")

	var res struct {
		SessionID   string        `json:"session_id"`
		Report      recon.Report  `json:"report"`
		Suggestions []recon.Match `json:"suggestions"`
	}
	out = runStdout(t, "reconcile", "2025-01", "--repo", dir, "--clear-suggested", "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.NotEmpty(t, res.SessionID)
	require.Len(t, res.Suggestions, 2)
	assert.True(t, res.Report.ClosingBankBalance.Equal(dec("3141.79")))
	assert.True(t, res.Report.ClosingBookBalance.Equal(dec("3496")))
	assert.Len(t, res.Report.BankDebitsNotInBooks, 4)
	assert.True(t, res.Report.TotalBankDebitsNotInBooks.Equal(dec("354.21")))
	assert.True(t, res.Report.Reconciled)

	// Marks persist between runs.
	out = runStdout(t, "reconcile", "2025-01", "--repo", dir, "--format", "markdown")
	assert.Contains(t, out, "# Bank Reconciliation 2025-01")
	assert.Contains(t, out, "Reconciled.")

	// Un-clearing the deposit breaks the reconciliation.
	out = runStdout(t, "reconcile", "2025-01", "--repo", dir, "--format", "markdown",
		"--toggle", "bank:chase_20250110_ACMECONSUL")
	assert.Contains(t, out, "Not reconciled")

	out, err = runBooks(t, "reconcile", "2025-01", "--repo", dir, "--toggle", "bank:nope")
	require.Error(t, err)
	assert.Contains(t, out, "nope")

	_, err = runBooks(t, "reconcile", "January", "--repo", dir)
	assert.Error(t, err)
}

func TestReconcile_DepositInTransitClearsNextMonth(t *testing.T) {
	dir := initRepo(t, "--no-git")
	post(t, dir, "2025-01-15", "Owner capital", "1010=1000", "3010=1000")
	post(t, dir, "2025-01-31", "Cash sale", "1010=100", "4010=100")

	stmt := "id,date,description,debit,credit\n" +
		"d1,2025-01-15,OWNER DEPOSIT,,1000.00\n" +
		"d2,2025-02-02,CASH DEPOSIT,,100.00\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "statement.csv"), []byte(stmt), 0o644))
	out, err := runBooks(t, "import", "--repo", dir)
	require.NoError(t, err, out)

	type result struct {
		Report      recon.Report  `json:"report"`
		Suggestions []recon.Match `json:"suggestions"`
	}
	var jan result
	out = runStdout(t, "reconcile", "2025-01", "--repo", dir, "--clear-suggested", "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &jan), out)
	require.Len(t, jan.Suggestions, 1)
	assert.Equal(t, "d1", jan.Suggestions[0].BankID)
	assert.True(t, jan.Report.ClosingBankBalance.Equal(dec("1000")))
	assert.True(t, jan.Report.ClosingBookBalance.Equal(dec("1100")))
	require.Len(t, jan.Report.DepositsInTransit, 1)
	assert.True(t, jan.Report.TotalDepositsInTransit.Equal(dec("100")))
	assert.True(t, jan.Report.Reconciled)

	var feb result
	out = runStdout(t, "reconcile", "2025-02", "--repo", dir, "--clear-suggested", "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &feb), out)
	require.Len(t, feb.Suggestions, 1)
	assert.Equal(t, "d2", feb.Suggestions[0].BankID)
	assert.Equal(t, jan.Report.DepositsInTransit[0].ID, feb.Suggestions[0].BookID)
	assert.True(t, feb.Report.ClosingBankBalance.Equal(dec("1100")))
	assert.True(t, feb.Report.ClosingBookBalance.Equal(dec("1100")))
	assert.Empty(t, feb.Report.BankCreditsNotInBooks)
	assert.Empty(t, feb.Report.DepositsInTransit)
	assert.True(t, feb.Report.Reconciled)

	// A row cleared in January cannot be toggled from February.
	out, err = runBooks(t, "reconcile", "2025-02", "--repo", dir, "--toggle", "bank:d1")
	require.Error(t, err)
	assert.Contains(t, out, "cleared in reconciliation 2025-01")
}

func TestInvalidTenant(t *testing.T) {
	dir := initRepo(t, "--no-git")
	out, err := runBooks(t, "balances", "--repo", dir, "--tenant", "Not Valid")
	require.Error(t, err)
	assert.Contains(t, out, "tenant")
}

func TestTenantsAreIsolated(t *testing.T) {
	dir := initRepo(t, "--no-git")
	post(t, dir, "2025-01-02", "Owner capital", "1010=100", "3010=100")

	var bs report.BalanceSheet
	out := runStdout(t, "report", "balance-sheet", "--repo", dir, "--tenant", "other", "--as-of", "2025-12-31", "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &bs), out)
	assert.True(t, bs.TotalAssets.IsZero())
}
