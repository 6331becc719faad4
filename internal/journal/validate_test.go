package journal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
)

// mockAccounts implements AccountChecker for testing.
type mockAccounts struct {
	ids map[int]bool
}

func (m *mockAccounts) Exists(id int) bool {
	return m.ids[id]
}

func newMockAccounts(ids ...int) *mockAccounts {
	m := &mockAccounts{ids: make(map[int]bool)}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

type takenNumbers map[string]bool

func (n takenNumbers) HasNumber(number string) bool { return n[number] }

var defaultAccounts = newMockAccounts(1010, 1020, 2010, 3010, 4010, 5020)

func entries(pairs ...any) []model.VoucherEntry {
	var out []model.VoucherEntry
	for i := 0; i+2 < len(pairs); i += 3 {
		out = append(out, model.VoucherEntry{
			AccountID: pairs[i].(int),
			Debit:     dec(pairs[i+1].(string)),
			Credit:    dec(pairs[i+2].(string)),
		})
	}
	return out
}

func TestValidate_Balanced(t *testing.T) {
	errs := ValidateVoucher(voucher("2025-01-001", 5020, 1010, "100.00"), defaultAccounts, nil)
	assert.Empty(t, errs)
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name    string
		entries []model.VoucherEntry
		rule    string
	}{
		{"unbalanced", entries(5020, "100.00", "0", 1010, "0", "99.00"), RuleBalanced},
		{"single entry", entries(5020, "0", "0"), RuleMinEntries},
		{"both sides", entries(5020, "100.00", "100.00", 1010, "0", "0"), RuleOneSided},
		{"neither side", entries(5020, "0", "0", 1010, "0", "0"), RuleOneSided},
		{"negative", entries(5020, "-5.00", "0", 1010, "0", "-5.00"), RuleNonNegative},
		{"unknown account", entries(9999, "50.00", "0", 1010, "0", "50.00"), RuleKnownAccount},
		{"too many decimals", entries(5020, "10.123", "0", 1010, "0", "10.123"), RulePrecision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := model.Voucher{Date: date(2025, 1, 15), Narration: tt.name, Entries: tt.entries}
			errs := ValidateVoucher(v, defaultAccounts, nil)
			assert.True(t, errs.Has(tt.rule), "expected %s, got %v", tt.rule, errs)
		})
	}
}

func TestValidate_NoEntries(t *testing.T) {
	errs := ValidateVoucher(model.Voucher{Date: date(2025, 1, 15)}, defaultAccounts, nil)
	assert.True(t, errs.Has(RuleMinEntries))
	assert.False(t, errs.Has(RuleBalanced), "zero equals zero")
}

func TestValidate_UniqueNumber(t *testing.T) {
	v := voucher("2025-01-001", 5020, 1010, "10.00")
	errs := ValidateVoucher(v, defaultAccounts, takenNumbers{"2025-01-001": true})
	assert.True(t, errs.Has(RuleUniqueNumber))

	errs = ValidateVoucher(v, defaultAccounts, takenNumbers{"2025-01-002": true})
	assert.Empty(t, errs)
}

func TestValidate_NumberFormat(t *testing.T) {
	v := voucher("2025-02-001", 5020, 1010, "10.00") // dated January
	errs := ValidateVoucher(v, defaultAccounts, nil)
	assert.True(t, errs.Has(RuleNumberFormat))

	v.Number = "JAN-1"
	errs = ValidateVoucher(v, defaultAccounts, nil)
	assert.True(t, errs.Has(RuleNumberFormat))
}

func TestValidate_MultiError(t *testing.T) {
	v := model.Voucher{
		Number: "2025-01-001",
		Date:   date(2025, 1, 1),
		Entries: []model.VoucherEntry{
			{AccountID: 9999, Debit: dec("100.00"), Credit: decimal.Zero}, // unknown account
			{AccountID: 1010, Debit: decimal.Zero, Credit: dec("50.00")},  // unbalanced
		},
	}
	errs := ValidateVoucher(v, defaultAccounts, nil)
	require.Greater(t, len(errs), 1, "should have multiple errors")
	assert.ErrorIs(t, errs, apperrors.ErrValidation)
	assert.Contains(t, errs.Error(), "unknown account 9999")
}

func TestValidate_MultiEntryBalanced(t *testing.T) {
	// Split expense across two accounts.
	v := model.Voucher{
		Date:    date(2025, 1, 15),
		Entries: entries(5020, "60.00", "0", 5020, "40.00", "0", 1010, "0", "100.00"),
	}
	errs := ValidateVoucher(v, defaultAccounts, nil)
	assert.Empty(t, errs)
}
