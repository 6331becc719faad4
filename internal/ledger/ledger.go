// Package ledger defines the tenant-scoped voucher store shared by posting,
// closing and reporting.
package ledger

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
)

// Store persists vouchers and closed fiscal periods per tenant.
//
// Update runs fn with exclusive access to the tenant's ledger. Appends staged
// on the Tx are committed atomically if and only if fn returns nil. A backend
// may call fn again after a serialization conflict, so fn must not keep state
// from a previous attempt.
type Store interface {
	Update(ctx context.Context, tenant string, fn func(tx *Tx) error) error
	Snapshot(ctx context.Context, tenant string) (Snapshot, error)
}

// Snapshot is a point-in-time copy of a tenant's ledger.
type Snapshot struct {
	Vouchers []model.Voucher
	Periods  []model.FiscalPeriod
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Vouchers: make([]model.Voucher, len(s.Vouchers)),
		Periods:  append([]model.FiscalPeriod(nil), s.Periods...),
	}
	for i, v := range s.Vouchers {
		out.Vouchers[i] = v.Clone()
	}
	return out
}

var tenantPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// ValidateTenant rejects tenant names that are empty or unsafe to use as a
// directory or lock key.
func ValidateTenant(tenant string) error {
	if !tenantPattern.MatchString(tenant) {
		return apperrors.ValidationError{
			Rule:        "tenant",
			Ref:         tenant,
			Description: fmt.Sprintf("tenant %q must match %s", tenant, tenantPattern),
		}
	}
	return nil
}
