package ledger

import (
	"fmt"
	"time"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
)

// Tx is the view of a tenant's ledger inside Store.Update.
type Tx struct {
	base          Snapshot
	staged        []model.Voucher
	stagedPeriods []model.FiscalPeriod
	ids           map[string]bool
	numbers       map[string]bool
}

// NewTx starts a Tx over the committed state base. Stores call it; the Tx
// takes ownership of base.
func NewTx(base Snapshot) *Tx {
	tx := &Tx{
		base:    base,
		ids:     make(map[string]bool, len(base.Vouchers)),
		numbers: make(map[string]bool, len(base.Vouchers)),
	}
	for _, v := range base.Vouchers {
		tx.ids[v.ID] = true
		tx.numbers[v.Number] = true
	}
	return tx
}

// Vouchers returns committed and staged vouchers in append order.
func (tx *Tx) Vouchers() []model.Voucher {
	out := make([]model.Voucher, 0, len(tx.base.Vouchers)+len(tx.staged))
	for _, v := range tx.base.Vouchers {
		out = append(out, v.Clone())
	}
	for _, v := range tx.staged {
		out = append(out, v.Clone())
	}
	return out
}

// Numbers returns every voucher number in use.
func (tx *Tx) Numbers() []string {
	out := make([]string, 0, len(tx.numbers))
	for n := range tx.numbers {
		out = append(out, n)
	}
	return out
}

// HasNumber reports whether a voucher number is already taken.
func (tx *Tx) HasNumber(number string) bool {
	return tx.numbers[number]
}

// Periods returns committed and staged closed periods.
func (tx *Tx) Periods() []model.FiscalPeriod {
	out := append([]model.FiscalPeriod(nil), tx.base.Periods...)
	return append(out, tx.stagedPeriods...)
}

// IsClosed reports whether fiscal year has a closed period record.
func (tx *Tx) IsClosed(year int) bool {
	for _, p := range tx.Periods() {
		if p.Year == year {
			return true
		}
	}
	return false
}

// ClosedPeriodFor returns the closed period containing d, if any.
func (tx *Tx) ClosedPeriodFor(d time.Time) (model.FiscalPeriod, bool) {
	for _, p := range tx.Periods() {
		if p.Contains(d) {
			return p, true
		}
	}
	return model.FiscalPeriod{}, false
}

// ClosedThrough returns the end of the latest closed period, or the zero
// time when no year is closed. Nothing may be posted before it.
func (tx *Tx) ClosedThrough() time.Time {
	var end time.Time
	for _, p := range tx.Periods() {
		if p.End.After(end) {
			end = p.End
		}
	}
	return end
}

// Append stages a voucher. ID and number must be unique across the ledger.
func (tx *Tx) Append(v model.Voucher) error {
	if v.ID == "" || v.Number == "" {
		return fmt.Errorf("append voucher: id and number are required: %w", apperrors.ErrValidation)
	}
	if tx.ids[v.ID] {
		return fmt.Errorf("append voucher: id %s: %w", v.ID, apperrors.ErrDuplicate)
	}
	if tx.numbers[v.Number] {
		return fmt.Errorf("append voucher: number %s: %w", v.Number, apperrors.ErrDuplicate)
	}
	tx.ids[v.ID] = true
	tx.numbers[v.Number] = true
	tx.staged = append(tx.staged, v.Clone())
	return nil
}

// MarkClosed stages a closed-period record.
func (tx *Tx) MarkClosed(p model.FiscalPeriod) error {
	if tx.IsClosed(p.Year) {
		return fmt.Errorf("fiscal year %d: %w", p.Year, apperrors.ErrAlreadyClosed)
	}
	tx.stagedPeriods = append(tx.stagedPeriods, p)
	return nil
}

// Staged returns what fn appended. Stores call it after fn succeeds.
func (tx *Tx) Staged() ([]model.Voucher, []model.FiscalPeriod) {
	return tx.staged, tx.stagedPeriods
}
