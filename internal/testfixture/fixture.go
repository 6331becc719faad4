// Package testfixture provides ledgers shared by the engine tests.
package testfixture

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/model"
)

// Worked example account ids.
const (
	Bank             = 1
	Capital          = 2
	Sales            = 3
	Rent             = 4
	RetainedEarnings = 5
)

// Date returns midnight UTC on the given day.
func Date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// Dec parses a decimal literal and panics on bad input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// WorkedChart is the five-account chart used throughout the tests.
func WorkedChart() *accounts.Service {
	return accounts.NewService([]model.Account{
		{ID: Bank, Name: "Bank", Type: model.AccountTypeAsset, Role: model.RoleBank},
		{ID: Capital, Name: "Capital", Type: model.AccountTypeEquity},
		{ID: Sales, Name: "Sales", Type: model.AccountTypeRevenue, Role: model.RolePrimaryRevenue},
		{ID: Rent, Name: "Rent", Type: model.AccountTypeExpense},
		{ID: RetainedEarnings, Name: "Retained Earnings", Type: model.AccountTypeEquity, Role: model.RoleRetainedEarnings},
	})
}

// WorkedVouchers returns V1 (capital), V2 (sale) and V3 (rent), all in 2025.
func WorkedVouchers() []model.Voucher {
	return []model.Voucher{
		Simple("v1", "2025-01-001", Date(2025, 1, 2), "Owner capital", Bank, Capital, "500000"),
		Simple("v2", "2025-03-001", Date(2025, 3, 15), "Cash sale", Bank, Sales, "50000"),
		Simple("v3", "2025-06-001", Date(2025, 6, 1), "Shop rent", Rent, Bank, "25000"),
	}
}

// Simple builds a two-entry voucher debiting one account and crediting another.
func Simple(voucherID, number string, date time.Time, narration string, debitAcct, creditAcct int, amount string) model.Voucher {
	amt := Dec(amount)
	return model.Voucher{
		ID:        voucherID,
		Number:    number,
		Date:      date,
		Narration: narration,
		Kind:      model.KindManual,
		Entries: []model.VoucherEntry{
			{AccountID: debitAcct, Debit: amt},
			{AccountID: creditAcct, Credit: amt},
		},
	}
}

// RandomLedger returns n balanced vouchers spread over year, each with two to
// four entries against accounts drawn from chart. The same seed yields the
// same ledger.
func RandomLedger(seed int64, chart []model.Account, year, n int) []model.Voucher {
	rng := rand.New(rand.NewSource(seed))
	vouchers := make([]model.Voucher, 0, n)
	for i := 0; i < n; i++ {
		date := Date(year, 1, 1).AddDate(0, 0, rng.Intn(365))
		legs := 2 + rng.Intn(3)
		var entries []model.VoucherEntry
		total := decimal.Zero
		for l := 0; l < legs-1; l++ {
			amt := decimal.New(int64(1+rng.Intn(1_000_000)), -2)
			total = total.Add(amt)
			entries = append(entries, model.VoucherEntry{
				AccountID: chart[rng.Intn(len(chart))].ID,
				Debit:     amt,
			})
		}
		entries = append(entries, model.VoucherEntry{
			AccountID: chart[rng.Intn(len(chart))].ID,
			Credit:    total,
		})
		if rng.Intn(2) == 0 {
			for j := range entries {
				entries[j].Debit, entries[j].Credit = entries[j].Credit, entries[j].Debit
			}
		}
		vouchers = append(vouchers, model.Voucher{
			ID:        fmt.Sprintf("r%d", i),
			Number:    fmt.Sprintf("%04d-%02d-%03d", year, int(date.Month()), i+1),
			Date:      date,
			Narration: "random",
			Kind:      model.KindManual,
			Entries:   entries,
		})
	}
	return vouchers
}
