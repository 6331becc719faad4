// Package memory is an in-process ledger.Store used by tests and one-shot
// commands.
package memory

import (
	"context"
	"sync"

	"github.com/cleared-dev/books/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

type tenantLedger struct {
	mu    sync.Mutex
	state ledger.Snapshot
}

// Store keeps every tenant's ledger in memory. Writers to the same tenant are
// serialized by a per-tenant mutex.
type Store struct {
	mu      sync.Mutex
	tenants map[string]*tenantLedger
}

// New returns an empty Store.
func New() *Store {
	return &Store{tenants: make(map[string]*tenantLedger)}
}

func (s *Store) tenant(name string) *tenantLedger {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[name]
	if !ok {
		t = &tenantLedger{}
		s.tenants[name] = t
	}
	return t
}

// Update runs fn under the tenant's lock and commits its staged appends when
// fn returns nil.
func (s *Store) Update(ctx context.Context, tenant string, fn func(tx *ledger.Tx) error) error {
	if err := ledger.ValidateTenant(tenant); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t := s.tenant(tenant)
	t.mu.Lock()
	defer t.mu.Unlock()

	tx := ledger.NewTx(t.state.Clone())
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	vouchers, periods := tx.Staged()
	t.state.Vouchers = append(t.state.Vouchers, vouchers...)
	t.state.Periods = append(t.state.Periods, periods...)
	return nil
}

// Snapshot returns a copy of the tenant's ledger.
func (s *Store) Snapshot(ctx context.Context, tenant string) (ledger.Snapshot, error) {
	if err := ledger.ValidateTenant(tenant); err != nil {
		return ledger.Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return ledger.Snapshot{}, err
	}

	t := s.tenant(tenant)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone(), nil
}
