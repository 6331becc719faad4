package model

import "time"

// FiscalPeriod is the durable record of a closed fiscal year.
type FiscalPeriod struct {
	Year             int       `json:"year"`
	Start            time.Time `json:"start"` // inclusive
	End              time.Time `json:"end"`   // exclusive
	ClosedAt         time.Time `json:"closed_at"`
	ClosingVoucherID string    `json:"closing_voucher_id,omitempty"`
	OpeningVoucherID string    `json:"opening_voucher_id,omitempty"`
}

// Contains reports whether d falls inside the period.
func (p FiscalPeriod) Contains(d time.Time) bool {
	return !d.Before(p.Start) && d.Before(p.End)
}
