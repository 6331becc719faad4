package recon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/testfixture"
)

var (
	dec  = testfixture.Dec
	date = testfixture.Date
)

func bankRow(id string, day int, debit, credit string) Transaction {
	return Transaction{ID: id, Date: date(2025, 1, day), Description: id, Debit: dec(debit), Credit: dec(credit)}
}

func bookRow(id string, day int, debit, credit string) Transaction {
	return Transaction{ID: id, Date: date(2025, 1, day), Description: id, Debit: dec(debit), Credit: dec(credit)}
}

// Bank and book feeds describing the same three movements.
func mirroredFeeds() (bank, book []Transaction) {
	bank = []Transaction{
		bankRow("b1", 2, "0", "500000"),
		bankRow("b2", 16, "0", "50000"),
		bankRow("b3", 20, "25000", "0"),
	}
	book = []Transaction{
		bookRow("v1", 2, "500000", "0"),
		bookRow("v2", 15, "50000", "0"),
		bookRow("v3", 18, "0", "25000"),
	}
	return bank, book
}

func TestBookFeed_WorkedExample(t *testing.T) {
	feed := BookFeed(testfixture.WorkedVouchers(), testfixture.Bank, balance.All())
	require.Len(t, feed, 3)

	assert.Equal(t, "v1", feed[0].ID)
	assert.Equal(t, "Owner capital", feed[0].Description)
	assert.True(t, feed[0].Debit.Equal(dec("500000")))
	assert.True(t, feed[0].Credit.IsZero())
	assert.True(t, feed[2].Credit.Equal(dec("25000")))
	assert.True(t, feed[2].Debit.IsZero())
}

func TestBookFeed_NetsEntriesAndFiltersWindow(t *testing.T) {
	v := model.Voucher{
		ID:        "split",
		Number:    "2025-02-001",
		Date:      date(2025, 2, 1),
		Narration: "transfer and fee",
		Entries: []model.VoucherEntry{
			{AccountID: testfixture.Bank, Debit: dec("100"), Credit: decimal.Zero},
			{AccountID: testfixture.Bank, Debit: decimal.Zero, Credit: dec("2.50")},
			{AccountID: testfixture.Capital, Debit: decimal.Zero, Credit: dec("97.50")},
		},
	}
	zero := model.Voucher{
		ID:   "wash",
		Date: date(2025, 2, 2),
		Entries: []model.VoucherEntry{
			{AccountID: testfixture.Bank, Debit: dec("10"), Credit: decimal.Zero},
			{AccountID: testfixture.Bank, Debit: decimal.Zero, Credit: dec("10")},
		},
	}
	vouchers := append(testfixture.WorkedVouchers(), v, zero)

	feed := BookFeed(vouchers, testfixture.Bank, balance.Range(date(2025, 2, 1), date(2025, 3, 1)))
	require.Len(t, feed, 1, "out-of-window and zero-net vouchers are skipped")
	assert.Equal(t, "split", feed[0].ID)
	assert.True(t, feed[0].Debit.Equal(dec("97.50")))
}

func TestBookFeed_SkipsOpeningVouchers(t *testing.T) {
	opening := model.Voucher{
		ID:   "open-2026",
		Date: date(2026, 1, 1),
		Kind: model.KindOpening,
		Entries: []model.VoucherEntry{
			{AccountID: testfixture.Bank, Debit: dec("525000"), Credit: decimal.Zero},
			{AccountID: testfixture.Capital, Debit: decimal.Zero, Credit: dec("525000")},
		},
	}
	feed := BookFeed(append(testfixture.WorkedVouchers(), opening), testfixture.Bank, balance.All())
	require.Len(t, feed, 3)
	for _, row := range feed {
		assert.NotEqual(t, "open-2026", row.ID)
	}
}

func TestBankFeed(t *testing.T) {
	stmt := []model.BankStatementTransaction{
		{ID: "st-1", Date: date(2025, 1, 3), Description: "GITHUB", Debit: dec("4"), Credit: decimal.Zero},
		{Reference: "chase_20250110_ACME", Date: date(2025, 1, 10), Description: "ACME", Debit: decimal.Zero, Credit: dec("3500")},
		{ID: "st-3", Date: date(2025, 2, 1), Description: "FEB", Debit: dec("1"), Credit: decimal.Zero},
	}
	feed := BankFeed(stmt, balance.Range(date(2025, 1, 1), date(2025, 2, 1)))
	require.Len(t, feed, 2)
	assert.Equal(t, "st-1", feed[0].ID)
	assert.Equal(t, "chase_20250110_ACME", feed[1].ID, "falls back to reference")
}

func TestBankAccount(t *testing.T) {
	a, err := BankAccount(testfixture.WorkedChart())
	require.NoError(t, err)
	assert.Equal(t, testfixture.Bank, a.ID)

	_, err = BankAccount(accounts.NewService([]model.Account{{ID: 1, Name: "Cash", Type: model.AccountTypeAsset}}))
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	_, err = BankAccount(accounts.NewService([]model.Account{{ID: 1, Name: "Loan", Type: model.AccountTypeLiability, Role: model.RoleBank}}))
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestReconcile_NothingCleared(t *testing.T) {
	bank, book := mirroredFeeds()
	r := Reconcile(bank, book, nil, nil)

	assert.True(t, r.ClosingBankBalance.Equal(dec("525000")))
	assert.True(t, r.ClosingBookBalance.Equal(dec("525000")))
	assert.Len(t, r.DepositsInTransit, 2)
	assert.Len(t, r.OutstandingPayments, 1)
	assert.Len(t, r.BankCreditsNotInBooks, 2)
	assert.Len(t, r.BankDebitsNotInBooks, 1)

	// Adjusted figures come purely from the raw feeds.
	assert.True(t, r.AdjustedBankBalance.Equal(dec("1050000")))
	assert.True(t, r.AdjustedBookBalance.Equal(dec("1050000")))
	assert.True(t, r.Reconciled)
}

func TestReconcile_ToggleRemovesExactlyOneAmount(t *testing.T) {
	bank, book := mirroredFeeds()
	before := Reconcile(bank, book, nil, nil)

	tests := []struct {
		name        string
		clearedBank map[string]bool
		clearedBook map[string]bool
		bankDelta   string
		bookDelta   string
	}{
		{"book deposit", nil, map[string]bool{"v2": true}, "-50000", "0"},
		{"book payment", nil, map[string]bool{"v3": true}, "25000", "0"},
		{"bank credit", map[string]bool{"b2": true}, nil, "0", "-50000"},
		{"bank debit", map[string]bool{"b3": true}, nil, "0", "25000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after := Reconcile(bank, book, tt.clearedBank, tt.clearedBook)
			assert.True(t, after.AdjustedBankBalance.Sub(before.AdjustedBankBalance).Equal(dec(tt.bankDelta)),
				"bank delta %s", after.AdjustedBankBalance.Sub(before.AdjustedBankBalance))
			assert.True(t, after.AdjustedBookBalance.Sub(before.AdjustedBookBalance).Equal(dec(tt.bookDelta)),
				"book delta %s", after.AdjustedBookBalance.Sub(before.AdjustedBookBalance))
			assert.True(t, after.ClosingBankBalance.Equal(before.ClosingBankBalance), "closing balances ignore marks")
		})
	}
}

func TestReconcile_ConvergesWhenAllCleared(t *testing.T) {
	bank, book := mirroredFeeds()
	all := func(feed []Transaction) map[string]bool {
		m := make(map[string]bool)
		for _, t := range feed {
			m[t.ID] = true
		}
		return m
	}

	r := Reconcile(bank, book, all(bank), all(book))
	assert.Empty(t, r.DepositsInTransit)
	assert.Empty(t, r.BankDebitsNotInBooks)
	assert.True(t, r.AdjustedBankBalance.Equal(dec("525000")))
	assert.True(t, r.AdjustedBookBalance.Equal(dec("525000")))
	assert.True(t, r.Difference.IsZero())
	assert.True(t, r.Reconciled)
}

func TestReconcile_BankFeeNotInBooks(t *testing.T) {
	bank, book := mirroredFeeds()
	bank = append(bank, bankRow("fee", 31, "15", "0"))
	cleared := map[string]bool{"b1": true, "b2": true, "b3": true}
	clearedBook := map[string]bool{"v1": true, "v2": true, "v3": true}

	r := Reconcile(bank, book, cleared, clearedBook)
	require.Len(t, r.BankDebitsNotInBooks, 1)
	assert.True(t, r.TotalBankDebitsNotInBooks.Equal(dec("15")))
	assert.True(t, r.AdjustedBankBalance.Equal(dec("524985")))
	assert.True(t, r.AdjustedBookBalance.Equal(dec("524985")))
	assert.True(t, r.Reconciled)
}

func TestReconcile_Tolerance(t *testing.T) {
	bank := []Transaction{bankRow("b", 1, "0", "100.00")}

	r := Reconcile(bank, []Transaction{bookRow("k", 1, "100.005", "0")}, map[string]bool{"b": true}, map[string]bool{"k": true})
	assert.True(t, r.Reconciled, "half a cent is within tolerance")

	r = Reconcile(bank, []Transaction{bookRow("k", 1, "100.01", "0")}, map[string]bool{"b": true}, map[string]bool{"k": true})
	assert.False(t, r.Reconciled)
	assert.True(t, r.Difference.Equal(dec("-0.01")))
}

func TestSuggestMatches(t *testing.T) {
	bank, book := mirroredFeeds()
	matches := SuggestMatches(bank, book, 3)
	assert.Equal(t, []Match{
		{BankID: "b1", BookID: "v1", Days: 0},
		{BankID: "b2", BookID: "v2", Days: 1},
		{BankID: "b3", BookID: "v3", Days: 2},
	}, matches)

	assert.Len(t, SuggestMatches(bank, book, 1), 2, "b3/v3 are two days apart")
}

func TestSuggestMatches_OneToOneClosestDate(t *testing.T) {
	bank := []Transaction{bankRow("b1", 10, "0", "100"), bankRow("b2", 12, "0", "100")}
	book := []Transaction{bookRow("k1", 12, "100", "0")}

	matches := SuggestMatches(bank, book, 5)
	require.Len(t, matches, 1)
	assert.Equal(t, "b2", matches[0].BankID)
}

func TestSuggestMatches_SidesMustMirror(t *testing.T) {
	bank := []Transaction{bankRow("b1", 10, "100", "0")} // money out
	book := []Transaction{bookRow("k1", 10, "100", "0")} // money in
	assert.Empty(t, SuggestMatches(bank, book, 5))
}
