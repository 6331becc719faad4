package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherKind records how a voucher came into the ledger.
type VoucherKind string

const (
	KindManual  VoucherKind = "manual"
	KindClosing VoucherKind = "closing"
	KindOpening VoucherKind = "opening"
)

// VoucherEntry is one line of a voucher. Exactly one of Debit or Credit is non-zero.
type VoucherEntry struct {
	AccountID int             `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// Voucher is a balanced journal voucher.
type Voucher struct {
	ID        string         `json:"id"`
	Number    string         `json:"number"` // "YYYY-MM-NNN"
	Date      time.Time      `json:"date"`
	Narration string         `json:"narration"`
	Kind      VoucherKind    `json:"kind"`
	Entries   []VoucherEntry `json:"entries"`
}

// Totals returns the sum of debits and the sum of credits.
func (v Voucher) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, e := range v.Entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit, credit
}

// Balanced reports whether total debits equal total credits.
func (v Voucher) Balanced() bool {
	d, c := v.Totals()
	return d.Equal(c)
}

// Clone returns a deep copy so callers cannot mutate stored entries.
func (v Voucher) Clone() Voucher {
	v.Entries = append([]VoucherEntry(nil), v.Entries...)
	return v
}
