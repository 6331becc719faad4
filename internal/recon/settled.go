package recon

import (
	"context"
	"fmt"
	"time"
)

// Settled maps each side's transaction IDs to the earlier period that
// cleared them.
type Settled map[Side]map[string]string

// LoadSettled collects the marks of every period from the month of the
// earliest feed row up to, but not including, period. A row cleared in one
// month stays cleared in every later reconciliation.
func LoadSettled(ctx context.Context, store ClearedStore, tenant, period string, bankFeed, bookFeed []Transaction) (Settled, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}
	end, err := time.Parse("2006-01", period)
	if err != nil {
		return nil, err
	}

	var first time.Time
	for _, feed := range [][]Transaction{bankFeed, bookFeed} {
		for _, t := range feed {
			if first.IsZero() || t.Date.Before(first) {
				first = t.Date
			}
		}
	}

	out := Settled{SideBank: {}, SideBook: {}}
	if first.IsZero() {
		return out, nil
	}
	for m := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC); m.Before(end); m = m.AddDate(0, 1, 0) {
		p := m.Format("2006-01")
		marks, err := store.Load(ctx, tenant, p)
		if err != nil {
			return nil, fmt.Errorf("loading cleared marks of %s: %w", p, err)
		}
		for _, mk := range marks {
			if side, ok := out[mk.Side]; ok {
				side[mk.TransactionID] = p
			}
		}
	}
	return out, nil
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSettled treats rows cleared in earlier periods as cleared. They cannot
// be toggled from this period.
func WithSettled(settled Settled) SessionOption {
	return func(s *Session) { s.settled = settled }
}
